package fina

// Signed integer helpers. The planner needs floored division and modulo
// (rounding toward negative infinity), which differ from Go's truncated
// operators on negative operands.

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return floorDiv(a+b-1, b)
}

// floorMod returns a mod b with the sign of b (b > 0 here).
func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// nearestMult returns the multiple of m closest to x, rounding half up.
func nearestMult(x, m int64) int64 {
	q := floorDiv(x, m)
	if 2*(x-q*m) >= m {
		q++
	}
	return q * m
}

func clampI(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absI(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
