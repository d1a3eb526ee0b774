package fees

import (
	"testing"

	"github.com/muun/swaps/swap"
	"github.com/stretchr/testify/require"
)

var testRoutes = []swap.BestRouteFees{
	{
		MaxCapacity:               100_000_000,
		FeeProportionalMillionths: 100,
		FeeBase:                   1_000,
	},
}

func userAmountSwap(routes []swap.BestRouteFees,
	policies *swap.FundingOutputPolicies) *swap.SubmarineSwap {

	return &swap.SubmarineSwap{
		UUID:                  "5d3d6b2e-user",
		BestRouteFees:         routes,
		FundingOutputPolicies: policies,
	}
}

func fixedAmountSwap(fees swap.Fees, debtType swap.DebtType,
	debtAmount swap.Satoshis, confs uint32) *swap.SubmarineSwap {

	return &swap.SubmarineSwap{
		UUID: "5d3d6b2e-fixed",
		Fees: &fees,
		FundingOutput: swap.FundingOutput{
			DebtType:            &debtType,
			DebtAmount:          &debtAmount,
			ConfirmationsNeeded: &confs,
		},
	}
}

func TestResolveFeeOnTop(t *testing.T) {
	s := userAmountSwap(testRoutes, &swap.FundingOutputPolicies{})

	result, err := Resolve(s, 10_000, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	res := result.Valid
	require.Equal(t, swap.Satoshis(10_000), res.Amount)
	require.Equal(t, swap.Satoshis(1_001), res.Params.RoutingFee)
	require.Equal(t, swap.DebtNone, res.Params.DebtType)
	require.Equal(t, uint32(1), res.Params.ConfirmationsNeeded)
	require.Equal(t, swap.Satoshis(275), res.OnchainFee)
	require.True(t, res.Rate.Equal(swap.NewFeeRateFromInt(10)))
}

func TestResolveFeeOnTopWith0Conf(t *testing.T) {
	s := userAmountSwap(testRoutes, &swap.FundingOutputPolicies{
		MaxAmountFor0Conf: 100_000,
	})

	result, err := Resolve(s, 10_000, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	// 0-conf outputs are in no hurry to confirm, so they pay the far
	// target's rate.
	res := result.Valid
	require.Equal(t, uint32(0), res.Params.ConfirmationsNeeded)
	require.Equal(t, swap.Satoshis(14), res.OnchainFee)
}

func TestResolveFeeOnTopWithLend(t *testing.T) {
	s := userAmountSwap(testRoutes, &swap.FundingOutputPolicies{
		MaximumDebt:       100_000,
		MaxAmountFor0Conf: 100_000,
	})

	result, err := Resolve(s, 10_000, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	res := result.Valid
	require.Equal(t, swap.DebtLend, res.Params.DebtType)
	require.Equal(t, swap.Satoshis(11_001), res.Params.DebtAmount)
	require.Equal(t, swap.Satoshis(0), res.OnchainFee)
	require.Equal(t, swap.Satoshis(10_000), res.Amount)
}

func TestResolveFixedAmount(t *testing.T) {
	s := fixedAmountSwap(
		swap.Fees{Lightning: 300}, swap.DebtNone, 0, 0,
	)

	result, err := Resolve(s, 50_000, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	res := result.Valid
	require.Equal(t, swap.Satoshis(50_000), res.Amount)
	require.Equal(t, swap.Satoshis(300), res.Params.RoutingFee)
	require.Equal(t, swap.Satoshis(14), res.OnchainFee)
}

func TestResolveFixedAmountWith1Conf(t *testing.T) {
	s := fixedAmountSwap(
		swap.Fees{Lightning: 300}, swap.DebtNone, 0, 1,
	)

	result, err := Resolve(s, 50_000, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)
	require.Equal(t, swap.Satoshis(275), result.Valid.OnchainFee)
}

func TestResolveFixedAmountInsufficientBalance(t *testing.T) {
	s := fixedAmountSwap(
		swap.Fees{Lightning: 300}, swap.DebtNone, 0, 0,
	)

	result, err := Resolve(s, 703_456_689, newTestCalculator(0))
	require.NoError(t, err)
	require.Nil(t, result.Valid)
	require.NotNil(t, result.MinAmountPlusFee)

	// Output plus the cheapest fee that could still confirm.
	require.Equal(
		t, swap.Satoshis(703_457_062), *result.MinAmountPlusFee,
	)
}

// TestResolveFixedAmountInvalidAt0Conf asserts that a failing 0-conf fee
// resolution reports the output plus the 250 block minimum fee.
func TestResolveFixedAmountInvalidAt0Conf(t *testing.T) {
	calc := NewCalculator(
		testTargetedFees,
		NextTransactionSize{
			SizeProgression: []SizeForAmount{
				{Amount: 5_000, SizeInWeightUnit: 400},
			},
		},
		testMinFeeRate,
	)

	s := fixedAmountSwap(swap.Fees{}, swap.DebtNone, 0, 0)

	result, err := Resolve(s, 10_000, calc)
	require.NoError(t, err)
	require.Nil(t, result.Valid)
	require.NotNil(t, result.MinAmountPlusFee)
	require.Equal(t, swap.Satoshis(10_050), *result.MinAmountPlusFee)
}

func TestResolveTakeFeeFromAmount(t *testing.T) {
	s := userAmountSwap(testRoutes, &swap.FundingOutputPolicies{})

	result, err := Resolve(s, 703_456_789, newTestCalculator(0))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	res := result.Valid
	require.Equal(t, swap.Satoshis(703_384_001), res.Amount)
	require.Equal(t, swap.Satoshis(71_338), res.Params.RoutingFee)
	require.Equal(t, swap.Satoshis(1_450), res.OnchainFee)
	require.Equal(t, uint32(1), res.Params.ConfirmationsNeeded)
	require.True(t, res.Rate.Equal(swap.NewFeeRateFromInt(10)))
}

func TestResolveTakeFeeFromAmountWithDebt(t *testing.T) {
	s := userAmountSwap(testRoutes, &swap.FundingOutputPolicies{
		PotentialCollect: 500,
	})

	result, err := Resolve(s, 703_456_289, newTestCalculator(500))
	require.NoError(t, err)
	require.NotNil(t, result.Valid)

	res := result.Valid
	require.Equal(t, swap.Satoshis(703_383_501), res.Amount)
	require.Equal(t, swap.Satoshis(71_338), res.Params.RoutingFee)
	require.Equal(t, swap.DebtCollect, res.Params.DebtType)
	require.Equal(t, swap.Satoshis(500), res.Params.DebtAmount)
	require.Equal(t, swap.Satoshis(1_450), res.OnchainFee)
}

func TestResolveTakeFeeFromAmountUnpayable(t *testing.T) {
	calc := NewCalculator(
		testTargetedFees,
		NextTransactionSize{
			SizeProgression: []SizeForAmount{
				{Amount: 10_000, SizeInWeightUnit: 400},
			},
		},
		testMinFeeRate,
	)

	// The routing fee alone exceeds the balance: the off-chain amount
	// search goes negative and we report the smallest viable total.
	routes := []swap.BestRouteFees{{
		MaxCapacity: 100_000_000,
		FeeBase:     20_000,
	}}
	s := userAmountSwap(routes, &swap.FundingOutputPolicies{
		MaxAmountFor0Conf: 100_000,
	})

	result, err := Resolve(s, 10_000, calc)
	require.NoError(t, err)
	require.Nil(t, result.Valid)
	require.NotNil(t, result.MinAmountPlusFee)
	require.Equal(t, swap.Satoshis(20_050), *result.MinAmountPlusFee)
}

func TestResolveUserAmountMissingRoutes(t *testing.T) {
	s := userAmountSwap(nil, &swap.FundingOutputPolicies{})

	_, err := Resolve(s, 10_000, newTestCalculator(0))
	require.Error(t, err)

	s = userAmountSwap(testRoutes, nil)

	_, err = Resolve(s, 10_000, newTestCalculator(0))
	require.Error(t, err)
}

func TestFindParamsForAllFundsIsMinimal(t *testing.T) {
	policies := swap.FundingOutputPolicies{}

	params, output, offchain, err := findParamsForAllFunds(
		703_456_789, 1_450, testRoutes, policies,
	)
	require.NoError(t, err)
	require.Equal(t, swap.Satoshis(703_455_339), output)
	require.Equal(t, swap.Satoshis(703_384_001), offchain)
	require.Equal(t, swap.Satoshis(71_338), params.RoutingFee)

	// The off-chain amount reaches the output together with its fee.
	require.GreaterOrEqual(
		t, int64(offchain.Add(params.OffchainFee())), int64(output),
	)

	// One satoshi less wouldn't.
	smaller := offchain.Sub(1)
	smallerFee := testRoutes[0].RoutingFee(smaller)
	require.Less(t, int64(smaller.Add(smallerFee)), int64(output))
}

// TestFindParamsForAllFundsDoesNotConverge asserts that route data breaking
// the search's monotonicity invariant errors out at the iteration cap
// instead of spinning forever. With a proportional fee of -100% the
// amount-plus-fee sum stays constant and can never reach the output.
func TestFindParamsForAllFundsDoesNotConverge(t *testing.T) {
	routes := []swap.BestRouteFees{{
		MaxCapacity:               100_000_000,
		FeeProportionalMillionths: -1_000_000,
		FeeBase:                   100,
	}}

	_, _, _, err := findParamsForAllFunds(
		10_000, 0, routes, swap.FundingOutputPolicies{},
	)
	require.ErrorContains(t, err, "did not converge")
}
