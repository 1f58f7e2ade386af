package dice

// Apply returns sum combined with value under o.
//
// OpDiv floors toward negative infinity; OpDivCeil rounds toward positive
// infinity.
//
// Precondition: value != 0 for OpDiv and OpDivCeil.
func (o Operator) Apply(sum, value int) int {
	switch o {
	case OpSub:
		return sum - value
	case OpMul:
		return sum * value
	case OpDiv:
		if value == 0 {
			panic("dice: Operator.Apply division by zero")
		}
		return floorDiv(sum, value)
	case OpDivCeil:
		if value == 0 {
			panic("dice: Operator.Apply division by zero")
		}
		return -floorDiv(-sum, value)
	default:
		return sum + value
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// calculateTotal sums the kept dice and applies mod, defaulting to "+0".
func calculateTotal(dice []*Die, mod *Modifier) int {
	sum := 0
	for _, d := range dice {
		if d.Keep {
			sum += d.value()
		}
	}
	if mod == nil {
		return OpAdd.Apply(sum, 0)
	}
	return mod.Op.Apply(sum, mod.Value)
}
