package swap

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Satoshis is an amount of the smallest bitcoin unit. It is signed so that
// fee math can go through negative intermediate values without wrapping.
type Satoshis int64

const (
	// Dust is the smallest output amount the protocol considers
	// relayable. Fee resolution refuses to produce outputs below it.
	Dust Satoshis = 546

	// MaxSatoshis is the total bitcoin supply. No amount handled by this
	// package legitimately exceeds it.
	MaxSatoshis Satoshis = 21e6 * 1e8
)

// Add returns s + other. Overflow panics: amounts are bounded by the total
// supply, so wrapping can only mean corrupt input.
func (s Satoshis) Add(other Satoshis) Satoshis {
	sum := s + other
	if (other > 0 && sum < s) || (other < 0 && sum > s) {
		panic(fmt.Sprintf("satoshi overflow: %d + %d", s, other))
	}

	return sum
}

// Sub returns s - other, panicking on overflow.
func (s Satoshis) Sub(other Satoshis) Satoshis {
	diff := s - other
	if (other > 0 && diff > s) || (other < 0 && diff < s) {
		panic(fmt.Sprintf("satoshi overflow: %d - %d", s, other))
	}

	return diff
}

// Neg returns -s.
func (s Satoshis) Neg() Satoshis {
	if s == math.MinInt64 {
		panic("satoshi overflow: negating min int64")
	}

	return -s
}

// Scale returns s * factor, panicking on overflow.
func (s Satoshis) Scale(factor int64) Satoshis {
	if s == 0 || factor == 0 {
		return 0
	}

	product := int64(s) * factor
	if product/factor != int64(s) {
		panic(fmt.Sprintf("satoshi overflow: %d * %d", s, factor))
	}

	return Satoshis(product)
}

// Decimal returns the amount as a decimal number of satoshis.
func (s Satoshis) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(s))
}

// ToBTC returns the amount in whole bitcoin.
func (s Satoshis) ToBTC() decimal.Decimal {
	return s.Decimal().Shift(-8)
}

// FromBTC converts a decimal bitcoin amount to satoshis, rounding half to
// even. A satoshi is too small a unit for the caller to complain about the
// direction of the tie-break.
func FromBTC(btc decimal.Decimal) Satoshis {
	return FromDecimal(btc.Shift(8))
}

// FromDecimal converts a decimal satoshi amount to an integer one, rounding
// half to even.
func FromDecimal(d decimal.Decimal) Satoshis {
	return Satoshis(d.RoundBank(0).IntPart())
}

// String returns the amount formatted for logs.
func (s Satoshis) String() string {
	return fmt.Sprintf("%d sat", int64(s))
}
