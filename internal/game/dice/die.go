package dice

import "fmt"

const (
	// MinDieSize is the smallest number of faces a Die may have.
	MinDieSize = 2
	// MaxDieSize is the largest number of faces a Die may have.
	MaxDieSize = 100
)

// Die is a single die of a fixed size together with every value it has shown.
//
// Invariant: every value appended by Roll lies in [1, Size].
type Die struct {
	Size     int
	Keep     bool  // counts toward the total
	Exploded bool  // spawned by an explosion
	History  []int // chronological, append-only
}

// NewDie returns an unrolled die with size faces.
//
// Precondition: size in [MinDieSize, MaxDieSize].
// Postcondition: Returns a die with an empty, independently allocated history,
// or an error wrapping ErrInvalidArgument.
func NewDie(size int) (*Die, error) {
	if size < MinDieSize || size > MaxDieSize {
		return nil, fmt.Errorf("%w: die size must be between %d and %d, got %d",
			ErrInvalidArgument, MinDieSize, MaxDieSize, size)
	}
	return &Die{Size: size, History: make([]int, 0, 1)}, nil
}

func mustNewDie(size int, exploded bool) *Die {
	d, err := NewDie(size)
	if err != nil {
		panic("dice: " + err.Error())
	}
	d.Exploded = exploded
	return d
}

// Roll draws a value in [1, Size] from src and appends it to the history.
func (d *Die) Roll(src Source) {
	d.History = append(d.History, src.Intn(d.Size)+1)
}

// AddRoll appends value to the history without rolling.
//
// Values below 1 are accepted; only values above Size are rejected.
func (d *Die) AddRoll(value int) error {
	if value > d.Size {
		return fmt.Errorf("%w: added value %d exceeds die size %d", ErrInvalidArgument, value, d.Size)
	}
	d.History = append(d.History, value)
	return nil
}

// Result returns the most recent value and true, or 0 and false if the die
// has not been rolled.
func (d *Die) Result() (int, bool) {
	if len(d.History) == 0 {
		return 0, false
	}
	return d.History[len(d.History)-1], true
}

func (d *Die) value() int {
	v, _ := d.Result()
	return v
}

// MarkKeep flags the die as counting toward the total.
func (d *Die) MarkKeep() {
	d.Keep = true
}

// Copy returns an independent copy of the die.
//
// Postcondition: the copy's History shares no backing array with d's.
func (d *Die) Copy() *Die {
	history := make([]int, len(d.History), cap(d.History)+1)
	copy(history, d.History)
	return &Die{
		Size:     d.Size,
		Keep:     d.Keep,
		Exploded: d.Exploded,
		History:  history,
	}
}

// String renders the die as
// "{Size: 6, Keep: true, Exploded: false, Result: 4, History: [2 4]}".
func (d *Die) String() string {
	result := "None"
	if v, ok := d.Result(); ok {
		result = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("{Size: %d, Keep: %t, Exploded: %t, Result: %s, History: %v}",
		d.Size, d.Keep, d.Exploded, result, d.History)
}
