package fees

import (
	"errors"
	"fmt"

	"github.com/muun/swaps/swap"
)

// maxFixedPointIterations bounds the off-chain amount search. The routing
// fee grows with the amount, so amount plus fee is strictly increasing and
// the search must reach its target; the cap turns corrupt route data into a
// detectable error instead of a hang.
const maxFixedPointIterations = 1 << 20

// Resolution is a successful fee resolution.
type Resolution struct {
	// Params the swap would execute with.
	Params swap.ExecutionParams

	// OnchainFee of the funding transaction.
	OnchainFee swap.Satoshis

	// Rate the on-chain fee was derived from.
	Rate swap.FeeRate

	// Amount is the final amount to display to the user. It equals the
	// requested amount unless the fee had to be taken from it.
	Amount swap.Satoshis
}

// Result is the outcome of resolving fees for a swap. Exactly one of Valid
// or MinAmountPlusFee is set. An unset Valid is not a failure: it means the
// requested amount cannot clear with current fees and the user has to be
// asked for a higher one.
type Result struct {
	// Valid is set when the amount clears with current fees.
	Valid *Resolution

	// MinAmountPlusFee is set instead when it doesn't. It carries the
	// smallest total that would clear, for "increase the amount to at
	// least X" feedback.
	MinAmountPlusFee *swap.Satoshis
}

func valid(res Resolution) Result {
	return Result{Valid: &res}
}

func invalid(amountPlusFee swap.Satoshis) Result {
	return Result{MinAmountPlusFee: &amountPlusFee}
}

// Resolve computes the execution parameters, on-chain fee and final amount
// for a swap of the requested amount. Fixed-amount swaps resolve directly
// from their server-quoted parameters; user-amount swaps run the iterative
// off-chain search. The outcome is reproducible from the arguments alone.
func Resolve(s *swap.SubmarineSwap, amount swap.Satoshis,
	calc *Calculator) (Result, error) {

	if params, ok := s.FixedParams(); ok {
		return resolveFixedAmount(params, amount, calc)
	}

	if len(s.BestRouteFees) == 0 || s.FundingOutputPolicies == nil {
		return Result{}, fmt.Errorf("swap %v with user chosen amount "+
			"is missing route fees or funding policies", s.UUID)
	}

	if calc.ShouldTakeFeeFromAmount(amount) {
		return resolveTakeFeeFromAmount(s, amount, calc)
	}

	return resolveFeeOnTop(s, amount, calc)
}

// resolveFixedAmount handles swaps whose fees, debt and confirmations were
// already committed by the server.
func resolveFixedAmount(params swap.ExecutionParams, amount swap.Satoshis,
	calc *Calculator) (Result, error) {

	output := outputAmountWithDebt(amount, params)

	res, err := onchainFee(
		calc, output, params.ConfirmationsNeeded, params.DebtType,
	)
	if err != nil {
		return invalidWithMinimumFee(
			calc, output, params.ConfirmationsNeeded,
		)
	}

	total := amount.Add(params.OffchainFee()).Add(res.Fee)
	if total > calc.TotalBalance() {
		return invalid(total), nil
	}

	return valid(Resolution{
		Params:     params,
		OnchainFee: res.Fee,
		Rate:       res.Rate,
		Amount:     amount,
	}), nil
}

// resolveTakeFeeFromAmount handles spending all funds: fees come out of the
// requested amount, so the on-chain fee is resolved first and the off-chain
// amount is searched for below it.
func resolveTakeFeeFromAmount(s *swap.SubmarineSwap, amount swap.Satoshis,
	calc *Calculator) (Result, error) {

	res, err := onchainFee(calc, amount, 0, swap.DebtNone)
	if err != nil {
		return invalidWithMinimumFee(calc, amount, 0)
	}

	params, output, offchain, err := findParamsForAllFunds(
		amount, res.Fee, s.BestRouteFees, *s.FundingOutputPolicies,
	)
	if err != nil {
		return Result{}, err
	}

	// The search may land on parameters that don't qualify for 0-conf.
	// Redo the whole computation for a 1-conf spend then: this is a full
	// second pass, not a refinement of the first.
	if params.ConfirmationsNeeded == 1 {
		log.Debugf("Swap %v does not qualify for 0-conf, redoing "+
			"fee resolution at 1 block", s.UUID)

		res, err = onchainFee(calc, amount, 1, swap.DebtNone)
		if err != nil {
			return invalidWithMinimumFee(calc, output, 1)
		}

		params, output, offchain, err = findParamsForAllFunds(
			amount, res.Fee, s.BestRouteFees,
			*s.FundingOutputPolicies,
		)
		if err != nil {
			return Result{}, err
		}
	}

	// With fees high enough the off-chain amount can come out negative.
	if offchain < 0 {
		minTotal := params.OffchainFee().Add(res.Fee)
		return invalid(minTotal), nil
	}

	return valid(Resolution{
		Params:     params,
		OnchainFee: res.Fee,
		Rate:       res.Rate,
		Amount:     offchain,
	}), nil
}

// resolveFeeOnTop handles the common case where fees are added on top of
// the requested amount.
func resolveFeeOnTop(s *swap.SubmarineSwap, amount swap.Satoshis,
	calc *Calculator) (Result, error) {

	params := swap.ComputeSwapFees(
		amount, s.BestRouteFees, *s.FundingOutputPolicies,
	)

	output := outputAmountWithDebt(amount, params)

	res, err := onchainFee(
		calc, output, params.ConfirmationsNeeded, params.DebtType,
	)
	if err != nil {
		return invalidWithMinimumFee(
			calc, output, params.ConfirmationsNeeded,
		)
	}

	return valid(Resolution{
		Params:     params,
		OnchainFee: res.Fee,
		Rate:       res.Rate,
		Amount:     amount,
	}), nil
}

// findParamsForAllFunds searches for the off-chain amount whose off-chain
// fee, added back, reaches the on-chain output amount.
func findParamsForAllFunds(amount, fee swap.Satoshis,
	routes []swap.BestRouteFees, policies swap.FundingOutputPolicies) (
	swap.ExecutionParams, swap.Satoshis, swap.Satoshis, error) {

	// No lend when sending all funds.
	lendless := swap.FundingOutputPolicies{
		MaximumDebt:       0,
		PotentialCollect:  policies.PotentialCollect,
		MaxAmountFor0Conf: policies.MaxAmountFor0Conf,
	}

	output := amount.Sub(fee)

	// First approximation by excess, then walk up one satoshi at a time
	// until the off-chain amount plus its fee reaches the output.
	params := swap.ComputeSwapFees(output, routes, lendless)
	offchain := output.Sub(params.OffchainFee())

	for i := 0; ; i++ {
		if i >= maxFixedPointIterations {
			return swap.ExecutionParams{}, 0, 0,
				fmt.Errorf("off-chain amount search did not "+
					"converge for output %v", output)
		}

		params = swap.ComputeSwapFees(offchain, routes, lendless)
		if offchain.Add(params.OffchainFee()) >= output {
			break
		}

		offchain = offchain.Add(1)
	}

	return params, output, offchain, nil
}

// onchainFee resolves the fee for the funding output. 0-conf eligible
// spends are refunded instantly, so they always use the 250 block target;
// everything else pays for the next block.
func onchainFee(calc *Calculator, output swap.Satoshis,
	confirmations uint32, debtType swap.DebtType) (FeeResult, error) {

	target := uint32(250)
	if confirmations != 0 {
		target = 1
	}

	res, err := calc.FeeForAmount(output, target, debtType)
	if err != nil {
		return FeeResult{}, err
	}

	if !res.Valid {
		return FeeResult{}, ErrInsufficientBalance
	}

	return res, nil
}

// invalidWithMinimumFee reports the smallest amount-plus-fee that would
// clear for the output. 1-conf swaps need at least the next-block fee; the
// rest use the 250 block target as a no-urgency ceiling.
func invalidWithMinimumFee(calc *Calculator, output swap.Satoshis,
	confirmations uint32) (Result, error) {

	target := uint32(250)
	if confirmations == 1 {
		target = 1
	}

	minFee, err := calc.MinimumFeeForTarget(target)
	if err != nil {
		if errors.Is(err, ErrNoFeeForTarget) {
			return Result{}, fmt.Errorf("cannot compute minimum "+
				"fee: %w", err)
		}
		return Result{}, err
	}

	return invalid(output.Add(minFee)), nil
}

func outputAmountWithDebt(amount swap.Satoshis,
	params swap.ExecutionParams) swap.Satoshis {

	output := amount.Add(params.OffchainFee())

	// Collect swaps fold the collected debt into the output.
	if params.DebtType == swap.DebtCollect {
		output = output.Add(params.DebtAmount)
	}

	return output
}
