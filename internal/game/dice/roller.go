package dice

import (
	"cmp"
	"fmt"
	"slices"
)

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// The pipeline is: roll the initial dice, resolve rerolls on copies of each
// batch, spawn one exploded die per explode hit and repeat on the new batch,
// raise results below the minimum, select kept dice, then fold the total.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == NDice + number of explosions, and
// result.Total is computed from the kept dice only. result.Params shares no
// pointers with expr.
func Roll(expr Expression, src Source) (RollResult, error) {
	p := expr.Params
	if p.NDice < 1 || p.DiceSize < MinDieSize || p.DiceSize > MaxDieSize {
		return RollResult{}, fmt.Errorf("%w: expression %q was not produced by Parse", ErrInvalidExpression, expr.Raw)
	}

	rolled := rollBatches(expr, src)
	applyMinimum(rolled, p.Min)
	selectKept(rolled, p.Keep)

	return RollResult{
		Expression: expr.Raw,
		MaxReroll:  expr.MaxReroll,
		Params:     p.clone(),
		Dice:       rolled,
		Total:      calculateTotal(rolled, p.Mod),
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a RollResult or a parse error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// rollBatches drains a queue of pending batches: the initial dice first, then
// each round of exploded dice. The returned slice is flat and in roll order.
func rollBatches(expr Expression, src Source) []*Die {
	p := expr.Params
	batch := newBatch(p.NDice, p.DiceSize, false)
	var out []*Die
	for round := 0; len(batch) > 0; round++ {
		for _, d := range batch {
			d.Roll(src)
		}
		resolved := resolveRerolls(batch, p.Reroll, expr.MaxReroll, src)
		out = append(out, resolved...)
		if expr.MaxExplodeRounds > 0 && round >= expr.MaxExplodeRounds {
			break
		}
		batch = explodeBatch(resolved, p.Explode)
	}
	return out
}

func newBatch(n, size int, exploded bool) []*Die {
	batch := make([]*Die, n)
	for i := range batch {
		batch[i] = mustNewDie(size, exploded)
	}
	return batch
}

// resolveRerolls returns independent copies of batch with rerolls applied;
// the originals are left untouched.
func resolveRerolls(batch []*Die, rr *Reroll, maxReroll int, src Source) []*Die {
	copied := make([]*Die, len(batch))
	for i, d := range batch {
		copied[i] = d.Copy()
	}
	if rr == nil {
		return copied
	}
	for _, d := range copied {
		switch rr.Mode {
		case RerollOnce:
			if rr.Compare.Holds(d.value(), rr.Value) {
				d.Roll(src)
			}
		case RerollUntil:
			for i := 0; i < maxReroll && rr.Compare.Holds(d.value(), rr.Value); i++ {
				d.Roll(src)
			}
		}
	}
	return copied
}

func explodeBatch(batch []*Die, ex *Explode) []*Die {
	if ex == nil {
		return nil
	}
	var next []*Die
	for _, d := range batch {
		if d.value() == ex.Value {
			next = append(next, mustNewDie(d.Size, true))
		}
	}
	return next
}

func applyMinimum(dice []*Die, m *Minimum) {
	if m == nil {
		return
	}
	for _, d := range dice {
		if r, ok := d.Result(); ok && r < m.Value {
			if err := d.AddRoll(m.Value); err != nil {
				panic("dice: minimum floor violated die invariant: " + err.Error())
			}
		}
	}
}

// selectKept marks the first Keep.Value dice of a stable sort by result, or
// every die when k is nil.
func selectKept(dice []*Die, k *Keep) {
	if k == nil {
		for _, d := range dice {
			d.MarkKeep()
		}
		return
	}
	sorted := slices.Clone(dice)
	slices.SortStableFunc(sorted, func(a, b *Die) int {
		if k.Mode == KeepHighest {
			return cmp.Compare(b.value(), a.value())
		}
		return cmp.Compare(a.value(), b.value())
	})
	for _, d := range sorted[:min(len(sorted), k.Value)] {
		d.MarkKeep()
	}
}
