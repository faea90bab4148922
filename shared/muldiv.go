package shared

import "math/bits"

// MulDiv returns a * b / c with 128-bit intermediate precision, so the
// product may exceed 64 bits as long as the quotient fits. Fails if c is
// zero or the quotient overflows.
func MulDiv(a, b, c Amount) (Amount, error) {
	if c == 0 {
		return 0, ErrAmountOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrAmountOverflow
	}
	quotient, _ := bits.Div64(hi, lo, c)
	return quotient, nil
}
