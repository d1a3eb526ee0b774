package swap

// FeeRateTotalParts defines the granularity of proportional routing fees.
// Fee tiers express their proportional part in millionths.
const FeeRateTotalParts = 1_000_000

// DebtType describes how server-side debt participates in a swap.
type DebtType uint8

const (
	// DebtNone means no debt is involved in the swap.
	DebtNone DebtType = iota

	// DebtLend means the server momentarily advances the funds. No
	// on-chain output is needed yet.
	DebtLend

	// DebtCollect means the client owes additional satoshis that are
	// folded into the required on-chain output.
	DebtCollect
)

// String returns a human readable debt type.
func (d DebtType) String() string {
	switch d {
	case DebtNone:
		return "None"
	case DebtLend:
		return "Lend"
	case DebtCollect:
		return "Collect"
	default:
		return "Unknown"
	}
}

// ExecutionParams are the parameters a swap would execute with at the
// amount they were computed for. They are derived on every fee resolution
// and never persisted.
type ExecutionParams struct {
	// SweepFee is the cost of eventually sweeping the funding output.
	SweepFee Satoshis

	// RoutingFee is the off-chain cost of routing the payment.
	RoutingFee Satoshis

	// DebtType determines whether debt participates in the swap.
	DebtType DebtType

	// DebtAmount is the debt lent by the server or collected from the
	// client, depending on DebtType.
	DebtAmount Satoshis

	// ConfirmationsNeeded is the number of confirmations the funding
	// output requires before the server pays the invoice. Zero or one.
	ConfirmationsNeeded uint32
}

// OffchainFee is the total off-chain cost of the swap.
func (p ExecutionParams) OffchainFee() Satoshis {
	return p.SweepFee.Add(p.RoutingFee)
}

// BestRouteFees is the fee tier of one candidate route towards the
// receiver, quoted by the server.
type BestRouteFees struct {
	// MaxCapacity is the maximum amount, fees included, the route can
	// carry.
	MaxCapacity Satoshis

	// FeeProportionalMillionths is the proportional routing fee, in
	// millionths of the routed amount.
	FeeProportionalMillionths int64

	// FeeBase is the flat part of the routing fee.
	FeeBase Satoshis
}

// RoutingFee returns the routing fee for the given amount. The
// proportional part truncates, matching the server's arithmetic.
func (b BestRouteFees) RoutingFee(amount Satoshis) Satoshis {
	proportional := amount.Scale(b.FeeProportionalMillionths) /
		FeeRateTotalParts

	return b.FeeBase.Add(proportional)
}

// FundingOutputPolicies are the server-quoted limits that decide debt and
// confirmation requirements for a user-chosen swap amount.
type FundingOutputPolicies struct {
	// MaximumDebt is the largest total the server is willing to lend.
	MaximumDebt Satoshis

	// PotentialCollect is the debt the server would collect from the
	// client as part of this swap.
	PotentialCollect Satoshis

	// MaxAmountFor0Conf is the largest funding output the server accepts
	// without confirmations.
	MaxAmountFor0Conf Satoshis
}

// ComputeSwapFees derives the execution parameters for a swap of the given
// off-chain amount. The result is a pure function of its inputs.
func ComputeSwapFees(amount Satoshis, routes []BestRouteFees,
	policies FundingOutputPolicies) ExecutionParams {

	// Quote the first route able to carry the amount plus its own fee.
	// If none can, we still quote the last route and let the server
	// reject the payment.
	var routingFee Satoshis
	for _, route := range routes {
		routingFee = route.RoutingFee(amount)
		if amount.Add(routingFee) <= route.MaxCapacity {
			break
		}
	}

	params := ExecutionParams{
		RoutingFee: routingFee,
		DebtType:   DebtNone,
	}

	switch {
	case amount.Add(routingFee) <= policies.MaximumDebt:
		params.DebtType = DebtLend
		params.DebtAmount = amount.Add(routingFee)

	case policies.PotentialCollect > 0:
		params.DebtType = DebtCollect
		params.DebtAmount = policies.PotentialCollect
	}

	// Lend swaps have no funding output, so confirmations never apply.
	if params.DebtType != DebtLend {
		output := amount.Add(routingFee)
		if params.DebtType == DebtCollect {
			output = output.Add(params.DebtAmount)
		}

		if output > policies.MaxAmountFor0Conf {
			params.ConfirmationsNeeded = 1
		}
	}

	return params
}
