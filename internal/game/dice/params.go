package dice

// RerollMode selects how often a qualifying die is rerolled.
type RerollMode int

const (
	// RerollOnce rolls a qualifying die exactly one more time ("ro").
	RerollOnce RerollMode = iota
	// RerollUntil rerolls while the comparison holds, up to MaxReroll times ("rr").
	RerollUntil
)

// Comparison is the test applied to a die result against a threshold.
type Comparison int

const (
	CompareEqual Comparison = iota
	CompareLess
	CompareGreater
)

// Holds reports whether result compares to threshold as c requires.
func (c Comparison) Holds(result, threshold int) bool {
	switch c {
	case CompareLess:
		return result < threshold
	case CompareGreater:
		return result > threshold
	default:
		return result == threshold
	}
}

func (c Comparison) suffix() string {
	switch c {
	case CompareLess:
		return "<"
	case CompareGreater:
		return ">"
	default:
		return ""
	}
}

// Reroll is a parsed reroll segment, e.g. "rr<10".
type Reroll struct {
	Mode    RerollMode
	Compare Comparison
	Value   int
}

// Token returns the segment's operator text, e.g. "rr<".
func (r Reroll) Token() string {
	prefix := "ro"
	if r.Mode == RerollUntil {
		prefix = "rr"
	}
	return prefix + r.Compare.suffix()
}

// Minimum is a parsed minimum floor segment, e.g. "mi2".
type Minimum struct {
	Value int
}

// KeepMode selects which end of the sorted results is kept.
type KeepMode int

const (
	KeepHighest KeepMode = iota
	KeepLowest
)

// Keep is a parsed keep segment, e.g. "kh3".
type Keep struct {
	Mode  KeepMode
	Value int
}

// Token returns "kh" or "kl".
func (k Keep) Token() string {
	if k.Mode == KeepLowest {
		return "kl"
	}
	return "kh"
}

// Explode is a parsed explode segment. Value defaults to the die size when the
// expression gives only "!".
type Explode struct {
	Value int
}

// Operator is the arithmetic applied to the sum of kept dice.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv     // floor division
	OpDivCeil // "/^", ceiling division
)

// Token returns the operator's expression text.
func (o Operator) Token() string {
	switch o {
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpDivCeil:
		return "/^"
	default:
		return "+"
	}
}

// Modifier is a parsed arithmetic segment, e.g. "/^3".
type Modifier struct {
	Op    Operator
	Value int
}

// Params are the typed fields extracted from an expression.
//
// Optional segments are nil when absent from the text.
type Params struct {
	NDice    int
	DiceSize int
	Reroll   *Reroll
	Min      *Minimum
	Keep     *Keep
	Explode  *Explode
	Mod      *Modifier
}

// clone returns a copy of p whose optional segments share no memory with p.
func (p Params) clone() Params {
	p.Reroll = clonePtr(p.Reroll)
	p.Min = clonePtr(p.Min)
	p.Keep = clonePtr(p.Keep)
	p.Explode = clonePtr(p.Explode)
	p.Mod = clonePtr(p.Mod)
	return p
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
