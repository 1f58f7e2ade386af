package dice

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"
)

// randSource adapts a math/rand/v2 generator to Source. IntN is unbiased for
// every n, so both the secure and the seeded source share it.
type randSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// Intn returns a value in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *randSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// cryptoBits feeds crypto/rand output to a math/rand/v2 generator.
type cryptoBits struct{}

// Uint64 panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (cryptoBits) Uint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewCryptoSource returns a Source backed by crypto/rand. It is safe for
// concurrent use.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &randSource{rng: mrand.New(cryptoBits{})}
}

// NewSeededSource returns a PCG-backed Source that produces the same sequence
// for the same seed. It is safe for concurrent use, although interleaving
// across goroutines makes the per-goroutine sequence nondeterministic.
func NewSeededSource(seed int64) Source {
	s := uint64(seed)
	return &randSource{rng: mrand.New(mrand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}
