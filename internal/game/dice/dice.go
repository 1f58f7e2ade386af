// Package dice parses and evaluates tabletop dice expressions such as
// "4d6kh3", "2d20rr<10" or "6d10!+2".
//
// An expression is parsed once into an immutable Expression and may be rolled
// any number of times; every Roll builds its own dice and shares no mutable
// state with earlier or concurrent rolls.
package dice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument indicates a die was constructed or mutated with an
// out-of-range value, or a limit passed to the parser is out of range.
var ErrInvalidArgument = errors.New("dice: invalid argument")

// ErrInvalidExpression indicates the expression text does not match the dice
// grammar or violates one of its numeric constraints.
var ErrInvalidExpression = errors.New("dice: invalid expression")

// Source is the randomness provider for dice rolls.
//
// Implementations used by concurrent rollers MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the full audit trail for a single expression evaluation.
//
// Postcondition: Total equals the kept results folded through the modifier.
type RollResult struct {
	ID         string // roll identifier, set by Roller
	Expression string // original expression text, e.g. "4d6kh3"
	MaxReroll  int
	Params     Params
	Dice       []*Die // initial, rerolled and exploded dice in roll order
	Total      int
}

// Results returns the current result of every die in roll order.
func (r RollResult) Results() []int {
	out := make([]int, 0, len(r.Dice))
	for _, d := range r.Dice {
		out = append(out, d.value())
	}
	return out
}

// Kept returns the results of the dice that count toward the total.
func (r RollResult) Kept() []int {
	var out []int
	for _, d := range r.Dice {
		if d.Keep {
			out = append(out, d.value())
		}
	}
	return out
}

// String returns a human-readable audit string in the format:
//
//	"4d6kh3 → [6 5 (2) 4] = 15"
//
// Dropped dice are wrapped in parentheses; exploded dice carry a "!" suffix.
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	parts := make([]string, 0, len(r.Dice))
	for _, d := range r.Dice {
		s := fmt.Sprintf("%d", d.value())
		if d.Exploded {
			s += "!"
		}
		if !d.Keep {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s → [%s] = %d", r.Expression, strings.Join(parts, " "), r.Total)
}
