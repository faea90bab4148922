package shared

import (
	"errors"
	"math"
)

// Amount is a token amount in the smallest indivisible unit.
type Amount = uint64

var ErrAmountOverflow = errors.New("amount overflows")

// SafeAdd returns a + b, failing instead of wrapping around.
func SafeAdd(a, b Amount) (Amount, error) {
	if a > math.MaxUint64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// SafeSub returns a - b, failing on underflow.
func SafeSub(a, b Amount) (Amount, error) {
	if b > a {
		return 0, ErrAmountOverflow
	}
	return a - b, nil
}

// SafeMul returns a * b, failing instead of wrapping around.
func SafeMul(a, b Amount) (Amount, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrAmountOverflow
	}
	return a * b, nil
}

// PctOf returns amount * pct / 100, failing if the intermediate
// product overflows.
func PctOf(amount Amount, pct uint64) (Amount, error) {
	product, err := SafeMul(amount, pct)
	if err != nil {
		return 0, err
	}
	return product / 100, nil
}
