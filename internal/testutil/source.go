// Package testutil provides shared helpers for tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceSource is a scripted dice source. Each call to Intn consumes the
// next face value (1-based) and returns it as a zero-based draw.
//
// Intn panics when the script is exhausted or a face does not fit the die,
// so a test that rolls more often than expected fails loudly.
type SequenceSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewSequenceSource returns a source that yields faces in order.
func NewSequenceSource(faces ...int) *SequenceSource {
	return &SequenceSource{faces: faces}
}

// Intn returns the next scripted face minus one.
//
// Precondition: the next face lies in [1, n].
func (s *SequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.faces) {
		panic(fmt.Sprintf("testutil: SequenceSource exhausted after %d draws", len(s.faces)))
	}
	face := s.faces[s.next]
	if face < 1 || face > n {
		panic(fmt.Sprintf("testutil: scripted face %d does not fit a d%d", face, n))
	}
	s.next++
	return face - 1
}

// Remaining reports how many scripted faces have not been drawn.
func (s *SequenceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) - s.next
}
