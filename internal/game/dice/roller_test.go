package dice_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/d7/internal/game/dice"
	"github.com/cory-johannsen/d7/internal/testutil"
)

func rollScripted(t *testing.T, expr string, faces ...int) dice.RollResult {
	t.Helper()
	src := testutil.NewSequenceSource(faces...)
	result, err := dice.RollExpr(expr, src)
	require.NoError(t, err)
	assert.Zero(t, src.Remaining(), "expected every scripted face to be drawn")
	return result
}

func keepFlags(r dice.RollResult) []bool {
	out := make([]bool, len(r.Dice))
	for i, d := range r.Dice {
		out[i] = d.Keep
	}
	return out
}

// TestRoll_KeepHighest verifies "4d6kh3" sums the three highest results.
func TestRoll_KeepHighest(t *testing.T) {
	r := rollScripted(t, "4d6kh3", 3, 6, 1, 4)
	assert.Equal(t, []int{3, 6, 1, 4}, r.Results())
	assert.Equal(t, []bool{true, true, false, true}, keepFlags(r))
	assert.Equal(t, 13, r.Total)
}

func TestRoll_KeepLowest(t *testing.T) {
	r := rollScripted(t, "3d6kl1", 4, 2, 5)
	assert.Equal(t, []bool{false, true, false}, keepFlags(r))
	assert.Equal(t, 2, r.Total)
}

// TestRoll_KeepMoreThanRolled keeps every die when the keep count is larger.
func TestRoll_KeepMoreThanRolled(t *testing.T) {
	r := rollScripted(t, "2d6kh5", 3, 4)
	assert.Equal(t, []bool{true, true}, keepFlags(r))
	assert.Equal(t, 7, r.Total)
}

// TestRoll_KeepTiesPreferEarlierDice verifies keep selection is a stable sort.
func TestRoll_KeepTiesPreferEarlierDice(t *testing.T) {
	r := rollScripted(t, "3d6kh1", 5, 5, 2)
	assert.Equal(t, []bool{true, false, false}, keepFlags(r))

	r = rollScripted(t, "3d6kl2", 2, 5, 2)
	assert.Equal(t, []bool{true, false, true}, keepFlags(r))
}

// TestRoll_NoKeepMarksAll verifies "2d6" keeps both dice.
func TestRoll_NoKeepMarksAll(t *testing.T) {
	r := rollScripted(t, "2d6", 2, 5)
	assert.Equal(t, []bool{true, true}, keepFlags(r))
	assert.Equal(t, 7, r.Total)
}

// TestRoll_MinimumFloor verifies results below the minimum are raised by
// extending history.
func TestRoll_MinimumFloor(t *testing.T) {
	r := rollScripted(t, "4d6mi2", 1, 3, 1, 6)
	assert.Equal(t, []int{2, 3, 2, 6}, r.Results())
	assert.Equal(t, []int{1, 2}, r.Dice[0].History)
	assert.Equal(t, []int{3}, r.Dice[1].History)
	assert.Equal(t, 13, r.Total)
}

// TestRoll_Explode verifies each hit on the die size spawns exactly one more
// die, recursively.
func TestRoll_Explode(t *testing.T) {
	r := rollScripted(t, "6d10!", 10, 3, 4, 5, 6, 7, 10, 2)
	require.Len(t, r.Dice, 8)
	for i, d := range r.Dice {
		assert.Equal(t, i >= 6, d.Exploded, "die %d exploded flag", i)
		assert.True(t, d.Keep)
	}
	assert.Equal(t, 47, r.Total)
}

func TestRoll_ExplodeCustomValue(t *testing.T) {
	r := rollScripted(t, "2d6!5", 5, 1, 3)
	require.Len(t, r.Dice, 3)
	assert.True(t, r.Dice[2].Exploded)
	assert.Equal(t, 9, r.Total)
}

// TestRoll_MinimumAppliesToExplodedDice verifies the floor runs over the
// whole flattened list.
func TestRoll_MinimumAppliesToExplodedDice(t *testing.T) {
	r := rollScripted(t, "1d6mi3!", 6, 1)
	require.Len(t, r.Dice, 2)
	assert.Equal(t, []int{1, 3}, r.Dice[1].History)
	assert.Equal(t, 9, r.Total)
}

// TestRoll_ExplodeLimit verifies the safety cap on explosion rounds.
func TestRoll_ExplodeLimit(t *testing.T) {
	src := testutil.NewSequenceSource(6, 6)
	r, err := dice.Roll(dice.MustParse("1d6!").WithExplodeLimit(1), src)
	require.NoError(t, err)
	assert.Len(t, r.Dice, 2)
	assert.Equal(t, 12, r.Total)
	assert.Zero(t, src.Remaining())
}

// TestRoll_RerollUntilCapped verifies "2d20rr<10" stops at a passing result or
// after MaxReroll extra rolls.
func TestRoll_RerollUntilCapped(t *testing.T) {
	// Initial batch: 3, 1. Then die 0 rerolls 4, 12; die 1 rerolls five times.
	r := rollScripted(t, "2d20rr<10", 3, 1, 4, 12, 2, 3, 4, 5, 6)
	assert.Equal(t, []int{3, 4, 12}, r.Dice[0].History)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, r.Dice[1].History)
	assert.Equal(t, 18, r.Total)
}

func TestRoll_RerollUntil_ZeroMaxReroll(t *testing.T) {
	src := testutil.NewSequenceSource(1)
	e, err := dice.ParseWithMaxReroll("1d6rr1", 0)
	require.NoError(t, err)
	r, err := dice.Roll(e, src)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, r.Dice[0].History)
}

// TestRoll_RerollOnce verifies "ro" rerolls once without re-checking.
func TestRoll_RerollOnce(t *testing.T) {
	r := rollScripted(t, "3d6ro1", 1, 2, 1, 1, 5)
	assert.Equal(t, []int{1, 1}, r.Dice[0].History)
	assert.Equal(t, []int{2}, r.Dice[1].History)
	assert.Equal(t, []int{1, 5}, r.Dice[2].History)
	assert.Equal(t, 8, r.Total)
}

func TestRoll_RerollOnceGreater(t *testing.T) {
	r := rollScripted(t, "2d6ro>4", 5, 2, 6)
	assert.Equal(t, []int{5, 6}, r.Dice[0].History)
	assert.Equal(t, 8, r.Total)
}

// TestRoll_ExplodeChecksRerolledResult verifies explosions use the
// post-reroll result.
func TestRoll_ExplodeChecksRerolledResult(t *testing.T) {
	r := rollScripted(t, "1d6rr1!", 1, 6, 2)
	require.Len(t, r.Dice, 2)
	assert.Equal(t, []int{1, 6}, r.Dice[0].History)
	assert.Equal(t, 8, r.Total)
}

// TestRoll_Modifiers covers each operator and the rounding policy.
func TestRoll_Modifiers(t *testing.T) {
	cases := []struct {
		expr string
		face int
		want int
	}{
		{"1d20/3", 10, 3},
		{"1d20/^3", 10, 4},
		{"1d20/^5", 10, 2},
		{"1d6+3", 4, 7},
		{"1d6-5", 2, -3},
		{"1d6*3", 4, 12},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			r := rollScripted(t, tc.expr, tc.face)
			assert.Equal(t, tc.want, r.Total)
		})
	}
}

func TestOperator_Apply_FloorsAndCeilsNegatives(t *testing.T) {
	assert.Equal(t, -4, dice.OpDiv.Apply(-10, 3))
	assert.Equal(t, -3, dice.OpDivCeil.Apply(-10, 3))
	assert.Equal(t, 3, dice.OpDiv.Apply(10, 3))
	assert.Equal(t, 4, dice.OpDivCeil.Apply(10, 3))
	assert.Panics(t, func() { dice.OpDiv.Apply(1, 0) })
}

// TestRoll_IndependentResults verifies two rolls of one Expression share no dice.
func TestRoll_IndependentResults(t *testing.T) {
	e := dice.MustParse("2d6kh1")
	src := testutil.NewSequenceSource(1, 2, 3, 4)
	first, err := dice.Roll(e, src)
	require.NoError(t, err)
	second, err := dice.Roll(e, src)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 4, second.Total)
	for _, a := range first.Dice {
		for _, b := range second.Dice {
			assert.NotSame(t, a, b)
		}
	}
	first.Dice[0].History[0] = 6
	assert.Equal(t, []int{3, 4}, second.Results())
	assert.Nil(t, e.Params.Min, "expression must not be mutated")
}

// TestRoll_ResultParamsDetachedFromExpression verifies editing a result's
// params leaves the Expression and later rolls unchanged.
func TestRoll_ResultParamsDetachedFromExpression(t *testing.T) {
	e := dice.MustParse("3d6rr<2mi2kh1!+1")
	first, err := dice.Roll(e, testutil.NewSequenceSource(3, 4, 5))
	require.NoError(t, err)

	first.Params.Keep.Value = 3
	first.Params.Reroll.Value = 6
	first.Params.Min.Value = 6
	first.Params.Explode.Value = 1
	first.Params.Mod.Value = 50

	assert.Equal(t, 1, e.Params.Keep.Value)
	assert.Equal(t, 2, e.Params.Reroll.Value)
	assert.Equal(t, 2, e.Params.Min.Value)
	assert.Equal(t, 6, e.Params.Explode.Value)
	assert.Equal(t, 1, e.Params.Mod.Value)

	second, err := dice.Roll(e, testutil.NewSequenceSource(3, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, 6, second.Total)
	assert.Equal(t, 1, second.Params.Keep.Value)
}

func TestRoll_RejectsZeroExpression(t *testing.T) {
	_, err := dice.Roll(dice.Expression{}, testutil.NewSequenceSource())
	assert.True(t, errors.Is(err, dice.ErrInvalidExpression))
}

func TestRollExpr_PropagatesParseError(t *testing.T) {
	_, err := dice.RollExpr("4d6mi7", testutil.NewSequenceSource())
	assert.True(t, errors.Is(err, dice.ErrInvalidExpression))
}

// TestProperty_Roll_KeepHighestSumsTopResults verifies kh totals against an
// independent sort of the rolled values.
func TestProperty_Roll_KeepHighestSumsTopResults(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		size := rapid.IntRange(2, 100).Draw(rt, "size")
		keep := rapid.IntRange(1, 25).Draw(rt, "keep")
		e, err := dice.Parse(itoa(n) + "d" + itoa(size) + "kh" + itoa(keep))
		require.NoError(rt, err)

		r, err := dice.Roll(e, src)
		require.NoError(rt, err)
		require.Len(rt, r.Dice, n)

		values := r.Results()
		slices.Sort(values)
		slices.Reverse(values)
		want := 0
		for _, v := range values[:min(n, keep)] {
			want += v
		}
		assert.Equal(rt, want, r.Total)
		assert.Len(rt, r.Kept(), min(n, keep))
	})
}

// TestProperty_Roll_ExplodeCount verifies len(Dice) == NDice + explode hits
// and every value stays within the die.
func TestProperty_Roll_ExplodeCount(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		size := rapid.IntRange(4, 20).Draw(rt, "size")
		e, err := dice.Parse(itoa(n) + "d" + itoa(size) + "!")
		require.NoError(rt, err)

		r, err := dice.Roll(e, src)
		require.NoError(rt, err)

		hits, exploded := 0, 0
		for _, d := range r.Dice {
			v, ok := d.Result()
			require.True(rt, ok)
			assert.GreaterOrEqual(rt, v, 1)
			assert.LessOrEqual(rt, v, size)
			if v == size {
				hits++
			}
			if d.Exploded {
				exploded++
			}
		}
		assert.Equal(rt, n+hits, len(r.Dice))
		assert.Equal(rt, hits, exploded)
	})
}

// TestProperty_Roll_RerollUntilBounded verifies each die rolls at most
// 1 + MaxReroll times and stops early only on a passing result.
func TestProperty_Roll_RerollUntilBounded(t *testing.T) {
	src := dice.NewSeededSource(42)
	rapid.Check(t, func(rt *rapid.T) {
		maxReroll := rapid.IntRange(0, dice.MaxRerollLimit).Draw(rt, "maxReroll")
		e, err := dice.ParseWithMaxReroll("4d20rr<10", maxReroll)
		require.NoError(rt, err)
		r, err := dice.Roll(e, src)
		require.NoError(rt, err)
		for _, d := range r.Dice {
			assert.LessOrEqual(rt, len(d.History), 1+maxReroll)
			v, _ := d.Result()
			if len(d.History) < 1+maxReroll {
				assert.GreaterOrEqual(rt, v, 10)
			}
		}
	})
}

// TestProperty_Roll_MinimumRaisesResults verifies no result is below the floor.
func TestProperty_Roll_MinimumRaisesResults(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(2, 100).Draw(rt, "size")
		floor := rapid.IntRange(1, size).Draw(rt, "floor")
		e, err := dice.Parse("10d" + itoa(size) + "mi" + itoa(floor))
		require.NoError(rt, err)
		r, err := dice.Roll(e, src)
		require.NoError(rt, err)
		sum := 0
		for _, v := range r.Results() {
			assert.GreaterOrEqual(rt, v, floor)
			sum += v
		}
		assert.Equal(rt, sum, r.Total)
	})
}
