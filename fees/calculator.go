package fees

import (
	"errors"

	"github.com/muun/swaps/swap"
)

var (
	// ErrAmountTooSmall is returned for amounts below the dust limit.
	ErrAmountTooSmall = errors.New("amount is below dust")

	// ErrInsufficientBalance is returned when the wallet cannot pay the
	// amount with any fee at all.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoFeeForTarget is returned when the targeted fee table has no
	// entry at or below the requested confirmation target. The table
	// always has a 1-block entry in practice, so hitting this means the
	// fee data is broken rather than merely sparse.
	ErrNoFeeForTarget = errors.New("no fee rate for confirmation target")
)

// SizeForAmount is one step of the next-transaction-size progression: the
// size of a spend once it needs to consume utxos accumulating to the given
// amount.
type SizeForAmount struct {
	// Amount is the accumulated utxo value at this step.
	Amount swap.Satoshis

	// SizeInWeightUnit is the size of a transaction spending the utxos
	// of this step.
	SizeInWeightUnit int64

	// Outpoint identifies the utxo added at this step.
	Outpoint string
}

// NextTransactionSize models the incremental size of the wallet's next
// spend as a function of the amount sent, as tracked by the server.
type NextTransactionSize struct {
	// SizeProgression is ordered by accumulated amount.
	SizeProgression []SizeForAmount

	// ExpectedDebt is the amount already owed to the server out of the
	// utxo balance.
	ExpectedDebt swap.Satoshis
}

// Calculator resolves on-chain fees against the current fee targets and the
// wallet's utxo composition. Results are deterministic functions of the
// construction parameters.
type Calculator struct {
	targetedFees map[uint32]swap.FeeRate
	nts          NextTransactionSize
	minFeeRate   swap.FeeRate
}

// NewCalculator builds a calculator from the targeted fee-rate table, the
// next-transaction-size progression and the network's minimum relay rate.
func NewCalculator(targetedFees map[uint32]swap.FeeRate,
	nts NextTransactionSize, minFeeRate swap.FeeRate) *Calculator {

	return &Calculator{
		targetedFees: targetedFees,
		nts:          nts,
		minFeeRate:   minFeeRate,
	}
}

// FeeResult is the outcome of a single fee computation.
type FeeResult struct {
	// Fee to pay.
	Fee swap.Satoshis

	// Rate the fee was derived from.
	Rate swap.FeeRate

	// Valid is false when the amount only clears with a fee lower than
	// the one the requested target demands. The fee then carried is still
	// the target's fee, for display.
	Valid bool
}

// TotalBalance is the spendable balance: the utxo balance minus the debt
// already owed to the server.
func (c *Calculator) TotalBalance() swap.Satoshis {
	last, ok := c.biggestSize()
	if !ok {
		return 0
	}

	return last.Amount.Sub(c.nts.ExpectedDebt)
}

// ShouldTakeFeeFromAmount reports whether the fee must be deducted from the
// amount itself, which is only the case when spending the full balance.
func (c *Calculator) ShouldTakeFeeFromAmount(amount swap.Satoshis) bool {
	return amount == c.TotalBalance()
}

// FeeForAmount resolves the fee to send amount at the given confirmation
// target.
func (c *Calculator) FeeForAmount(amount swap.Satoshis, target uint32,
	debtType swap.DebtType) (FeeResult, error) {

	rate, err := c.rateForTarget(target)
	if err != nil {
		return FeeResult{}, err
	}

	return c.FeeForAmountAtRate(amount, rate, debtType)
}

// FeeForAmountAtRate resolves the fee to send amount at the given rate,
// walking the size progression for the step able to hold the amount plus
// its fee.
func (c *Calculator) FeeForAmountAtRate(amount swap.Satoshis,
	rate swap.FeeRate, debtType swap.DebtType) (FeeResult, error) {

	// Lend swaps produce no on-chain transaction, so they carry no
	// on-chain fee either.
	if debtType == swap.DebtLend {
		if !c.isAmountPayable(amount, 0, debtType) {
			return FeeResult{}, ErrInsufficientBalance
		}

		return FeeResult{Valid: true}, nil
	}

	if amount < swap.Dust {
		return FeeResult{}, ErrAmountTooSmall
	}

	takeFeeFromAmount := c.ShouldTakeFeeFromAmount(amount)

	for _, size := range c.nts.SizeProgression {
		if amount > size.Amount {
			continue
		}

		fee := rate.FeeForWeight(size.SizeInWeightUnit)

		if takeFeeFromAmount {
			remaining := size.Amount.Sub(c.nts.ExpectedDebt)
			switch {
			// The spend must leave one output of at least dust
			// after the fee.
			case remaining >= fee.Add(swap.Dust):
				return FeeResult{fee, rate, true}, nil

			// It can't at this rate, but it can with the minimum
			// fee.
			case remaining.Sub(c.minimumFee()) >= swap.Dust:
				return FeeResult{fee, rate, false}, nil
			}

			return FeeResult{}, ErrInsufficientBalance
		}

		// We need enough at this step to cover the fee too.
		if amount.Add(fee) <= size.Amount {
			if c.isAmountPayable(amount, fee, debtType) {
				return FeeResult{fee, rate, true}, nil
			}

			if c.isAmountPayable(
				amount, c.minimumFee(), debtType,
			) {

				return FeeResult{fee, rate, false}, nil
			}
		}
	}

	last, ok := c.biggestSize()
	if ok && c.isAmountPayable(amount, c.minimumFee(), debtType) {
		fee := rate.FeeForWeight(last.SizeInWeightUnit)
		return FeeResult{fee, rate, false}, nil
	}

	return FeeResult{}, ErrInsufficientBalance
}

// MinimumFeeForTarget is the smallest fee that could confirm within the
// target, assuming the biggest spend the wallet can make.
func (c *Calculator) MinimumFeeForTarget(target uint32) (swap.Satoshis,
	error) {

	rate, err := c.rateForTarget(target)
	if err != nil {
		return 0, err
	}

	last, ok := c.biggestSize()
	if !ok {
		return 0, nil
	}

	return rate.FeeForWeight(last.SizeInWeightUnit), nil
}

// rateForTarget walks the targets down from the requested one. The first
// hit is the cheapest rate that still confirms in time: the table is
// sparse and we don't interpolate, so we may overshoot.
func (c *Calculator) rateForTarget(target uint32) (swap.FeeRate, error) {
	for t := target; t > 0; t-- {
		if rate, ok := c.targetedFees[t]; ok {
			return rate, nil
		}
	}

	return swap.FeeRate{}, ErrNoFeeForTarget
}

// minimumFee is the fee for the biggest possible spend at the cheapest
// known rate, used for payability checks.
func (c *Calculator) minimumFee() swap.Satoshis {
	last, ok := c.biggestSize()
	if !ok {
		return 0
	}

	return c.cheapestRate().FeeForWeight(last.SizeInWeightUnit)
}

// cheapestRate is the rate at the highest known target, falling back to
// the minimum relay rate.
func (c *Calculator) cheapestRate() swap.FeeRate {
	var (
		maxTarget uint32
		rate      swap.FeeRate
	)
	for target, targetRate := range c.targetedFees {
		if target >= maxTarget {
			maxTarget = target
			rate = targetRate
		}
	}

	if maxTarget == 0 {
		return c.minFeeRate
	}

	return rate
}

func (c *Calculator) isAmountPayable(amount, fee swap.Satoshis,
	debtType swap.DebtType) bool {

	// Collect swaps spend the utxo balance directly: the collected debt
	// is part of the output, so the expected debt must not be discounted
	// twice.
	if debtType == swap.DebtCollect {
		return amount.Add(fee) <= c.utxoBalance()
	}

	return amount.Add(fee) <= c.TotalBalance()
}

func (c *Calculator) utxoBalance() swap.Satoshis {
	last, ok := c.biggestSize()
	if !ok {
		return 0
	}

	return last.Amount
}

func (c *Calculator) biggestSize() (SizeForAmount, bool) {
	if len(c.nts.SizeProgression) == 0 {
		return SizeForAmount{}, false
	}

	return c.nts.SizeProgression[len(c.nts.SizeProgression)-1], true
}
