package dice

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	// DefaultMaxReroll is the per-die cap on "rr" rerolls used by Parse.
	DefaultMaxReroll = 5
	// MaxRerollLimit is the largest accepted max reroll.
	MaxRerollLimit = 10
	// DefaultMaxExplodeRounds caps how many explosion rounds follow the initial roll.
	DefaultMaxExplodeRounds = 100
)

// num matches 1-100 with no leading zero.
const num = `(?:100|[1-9][0-9]|[1-9])`

var exprPattern = regexp.MustCompile(`^` +
	`(?P<nDice>` + num + `)d(?P<diceSize>` + num + `)` +
	`(?:(?P<reroll>ro<|ro>|ro|rr<|rr>|rr)(?P<rerollValue>` + num + `))?` +
	`(?:mi(?P<minValue>` + num + `))?` +
	`(?:(?P<keep>kh|kl)(?P<keepValue>` + num + `))?` +
	`(?:(?P<explode>!)(?P<explodeValue>` + num + `)?)?` +
	`(?:(?P<mod>/\^|[-+*/])(?P<modValue>` + num + `))?` +
	`$`)

// Expression is a parsed dice expression ready to be rolled.
//
// Invariant: an Expression returned by Parse is immutable; Roll never mutates it.
type Expression struct {
	Raw              string // original input string
	MaxReroll        int    // per-die cap on "rr" rerolls
	MaxExplodeRounds int    // 0 means unbounded
	Params           Params
}

// WithExplodeLimit returns a copy of e whose explosion rounds are capped at
// rounds; 0 removes the cap.
func (e Expression) WithExplodeLimit(rounds int) Expression {
	if rounds < 0 {
		rounds = 0
	}
	e.MaxExplodeRounds = rounds
	return e
}

// Parse parses a dice expression using DefaultMaxReroll.
//
// Precondition: none; any string is accepted as input.
// Postcondition: Returns an Expression or an error wrapping ErrInvalidExpression.
func Parse(expr string) (Expression, error) {
	return ParseWithMaxReroll(expr, DefaultMaxReroll)
}

// ParseWithMaxReroll parses expr, capping "rr" rerolls at maxReroll per die.
//
// Precondition: maxReroll in [0, MaxRerollLimit].
// Postcondition: Returns an Expression, or an error wrapping
// ErrInvalidExpression (grammar or constraint violation, maxReroll too large)
// or ErrInvalidArgument (negative maxReroll).
func ParseWithMaxReroll(expr string, maxReroll int) (Expression, error) {
	if maxReroll > MaxRerollLimit {
		return Expression{}, fmt.Errorf("%w: max reroll %d exceeds limit %d", ErrInvalidExpression, maxReroll, MaxRerollLimit)
	}
	if maxReroll < 0 {
		return Expression{}, fmt.Errorf("%w: max reroll must not be negative, got %d", ErrInvalidArgument, maxReroll)
	}

	m := exprPattern.FindStringSubmatch(expr)
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q does not match the dice grammar", ErrInvalidExpression, expr)
	}
	group := func(name string) string {
		return m[exprPattern.SubexpIndex(name)]
	}

	p := Params{
		NDice:    atoi(group("nDice")),
		DiceSize: atoi(group("diceSize")),
	}
	if p.DiceSize < MinDieSize {
		return Expression{}, fmt.Errorf("%w: %q: dice size must be at least %d", ErrInvalidExpression, expr, MinDieSize)
	}

	if tok := group("reroll"); tok != "" {
		p.Reroll = parseReroll(tok, atoi(group("rerollValue")))
	}
	if v := group("minValue"); v != "" {
		p.Min = &Minimum{Value: atoi(v)}
		if p.Min.Value > p.DiceSize {
			return Expression{}, fmt.Errorf("%w: %q: minimum value larger than dice size", ErrInvalidExpression, expr)
		}
	}
	if tok := group("keep"); tok != "" {
		mode := KeepHighest
		if tok == "kl" {
			mode = KeepLowest
		}
		p.Keep = &Keep{Mode: mode, Value: atoi(group("keepValue"))}
	}
	if group("explode") != "" {
		value := p.DiceSize
		if v := group("explodeValue"); v != "" {
			value = atoi(v)
		}
		if value > p.DiceSize {
			return Expression{}, fmt.Errorf("%w: %q: explode value larger than dice size", ErrInvalidExpression, expr)
		}
		p.Explode = &Explode{Value: value}
	}
	if tok := group("mod"); tok != "" {
		p.Mod = &Modifier{Op: parseOperator(tok), Value: atoi(group("modValue"))}
	}

	return Expression{
		Raw:              expr,
		MaxReroll:        maxReroll,
		MaxExplodeRounds: DefaultMaxExplodeRounds,
		Params:           p,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Valid reports whether expr parses with DefaultMaxReroll.
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

func parseReroll(tok string, value int) *Reroll {
	r := &Reroll{Mode: RerollOnce, Compare: CompareEqual, Value: value}
	if tok[:2] == "rr" {
		r.Mode = RerollUntil
	}
	if len(tok) == 3 {
		switch tok[2] {
		case '<':
			r.Compare = CompareLess
		case '>':
			r.Compare = CompareGreater
		}
	}
	return r
}

func parseOperator(tok string) Operator {
	switch tok {
	case "-":
		return OpSub
	case "*":
		return OpMul
	case "/":
		return OpDiv
	case "/^":
		return OpDivCeil
	default:
		return OpAdd
	}
}

// atoi converts a group already constrained to 1-100 by the grammar.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic("dice: grammar admitted non-numeric group " + strconv.Quote(s))
	}
	return n
}
