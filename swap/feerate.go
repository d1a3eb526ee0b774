package swap

import (
	"github.com/shopspring/decimal"
)

// vBytesPerWeightUnit is the witness discount: 4 weight units make up one
// virtual byte.
var vBytesPerWeightUnit = decimal.NewFromInt(4)

// FeeRate is a transaction fee rate in satoshis per virtual byte. Rates are
// decimal because fee estimators quote sub-satoshi precision.
type FeeRate struct {
	SatsPerVByte decimal.Decimal
}

// NewFeeRate returns a fee rate of the given satoshis per virtual byte.
func NewFeeRate(satsPerVByte decimal.Decimal) FeeRate {
	return FeeRate{SatsPerVByte: satsPerVByte}
}

// NewFeeRateFromInt is a convenience constructor for whole sat/vByte rates.
func NewFeeRateFromInt(satsPerVByte int64) FeeRate {
	return NewFeeRate(decimal.NewFromInt(satsPerVByte))
}

// NewFeeRateFromWeightUnit converts a sat/WU rate. 1 sat/WU equals
// 4 sat/vByte.
func NewFeeRateFromWeightUnit(satsPerWeightUnit decimal.Decimal) FeeRate {
	return FeeRate{
		SatsPerVByte: satsPerWeightUnit.Mul(vBytesPerWeightUnit),
	}
}

// FeeForWeight returns the fee for a transaction of the given size in
// weight units. The implied vByte fee always rounds up: underpaying is
// never acceptable.
func (f FeeRate) FeeForWeight(sizeInWeightUnit int64) Satoshis {
	fee := f.SatsPerVByte.
		Mul(decimal.NewFromInt(sizeInWeightUnit)).
		Div(vBytesPerWeightUnit)

	return Satoshis(fee.Ceil().IntPart())
}

// Equal reports whether two rates denote the same sat/vByte value.
func (f FeeRate) Equal(other FeeRate) bool {
	return f.SatsPerVByte.Equal(other.SatsPerVByte)
}

// LessOrEqual reports whether f is at most other.
func (f FeeRate) LessOrEqual(other FeeRate) bool {
	return f.SatsPerVByte.LessThanOrEqual(other.SatsPerVByte)
}

// String returns the rate rounded down to two decimals, the way it is
// displayed.
func (f FeeRate) String() string {
	return f.SatsPerVByte.RoundFloor(2).String() + " sat/vB"
}
