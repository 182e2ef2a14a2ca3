package types

import (
	"errors"
	"math"
)

// CarsonsPerCoin is the number of carsons (the smallest indivisible unit) in
// one display coin: 1 carson = 10^-8 coin.
const CarsonsPerCoin = 100_000_000

// MaxCoin is the largest representable amount in carsons.
const MaxCoin = math.MaxUint64

// ErrCoinOverflow is returned when a coin sum exceeds the uint64 range.
var ErrCoinOverflow = errors.New("coin amount overflow")

// AddCoin returns a+b, or ErrCoinOverflow if the sum does not fit in uint64.
func AddCoin(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrCoinOverflow
	}
	return a + b, nil
}
