package dice

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Limits bound the work a single roll may do.
type Limits struct {
	MaxReroll        int // per-die "rr" cap, 0..MaxRerollLimit
	MaxExplodeRounds int // 0 means unbounded
}

// DefaultLimits returns the limits Parse applies.
func DefaultLimits() Limits {
	return Limits{MaxReroll: DefaultMaxReroll, MaxExplodeRounds: DefaultMaxExplodeRounds}
}

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with a roll id, expression, dice
// values, kept values and total.
type Roller struct {
	src    Source
	logger *zap.Logger
	limits Limits
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to
// logger, using DefaultLimits.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger, limits: DefaultLimits()}
}

// WithLimits returns a copy of r that parses and rolls under l.
func (r *Roller) WithLimits(l Limits) *Roller {
	out := *r
	out.limits = l
	return &out
}

// Limits returns the limits r applies to RollExpr.
func (r *Roller) Limits() Limits {
	return r.limits
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
// Postcondition: result logged and stamped with a fresh ID; returns RollResult or error.
func (r *Roller) Roll(expr Expression) (RollResult, error) {
	result, err := Roll(expr, r.src)
	if err != nil {
		r.logger.Warn("dice roll rejected",
			zap.String("expression", expr.Raw),
			zap.Error(err),
		)
		return RollResult{}, err
	}
	result.ID = uuid.NewString()
	r.logger.Debug("dice roll",
		zap.String("roll_id", result.ID),
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Results()),
		zap.Ints("kept", result.Kept()),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// RollExpr parses expr under r's limits and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse/roll error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	return r.RollExprWithMaxReroll(expr, r.limits.MaxReroll)
}

// RollExprWithMaxReroll is RollExpr with an explicit per-die reroll cap.
func (r *Roller) RollExprWithMaxReroll(expr string, maxReroll int) (RollResult, error) {
	e, err := ParseWithMaxReroll(expr, maxReroll)
	if err != nil {
		r.logger.Debug("dice expression rejected",
			zap.String("expression", expr),
			zap.Error(err),
		)
		return RollResult{}, err
	}
	return r.Roll(e.WithExplodeLimit(r.limits.MaxExplodeRounds))
}
