package swap

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// SubmarineSwap is a swap quote issued by the server to pay a lightning
// invoice through an on-chain funding output. Once created it is immutable,
// except for the preimage attached after the invoice is paid.
//
// A swap comes in one of two shapes. Fixed-amount swaps carry a quoted
// Fees breakdown and committed debt/confirmation values in their funding
// output. User-amount swaps instead carry the BestRouteFees table and the
// FundingOutputPolicies limits, and their final fee has to be resolved
// iteratively.
type SubmarineSwap struct {
	// UUID identifies the swap with the server.
	UUID string

	// Invoice is the payment request this swap pays.
	Invoice string

	// Receiver describes the node being paid.
	Receiver Receiver

	// FundingOutput describes the on-chain output funding the swap.
	FundingOutput FundingOutput

	// Fees is the server-quoted fee breakdown. Only set for fixed-amount
	// swaps.
	Fees *Fees

	// ExpiresAt is the time at which the server stops honoring the quote.
	ExpiresAt time.Time

	// WillPreOpenChannel is set when the server plans to open a channel
	// to the receiver as part of the swap.
	WillPreOpenChannel bool

	// BestRouteFees are the routing fee tiers towards the receiver. Only
	// set for user-amount swaps.
	BestRouteFees []BestRouteFees

	// FundingOutputPolicies are the debt and 0-conf limits. Only set for
	// user-amount swaps.
	FundingOutputPolicies *FundingOutputPolicies

	// PaidAt is the time the invoice was paid, once it was.
	PaidAt *time.Time

	// PreimageHex is the revealed payment preimage, attached after
	// fulfillment.
	PreimageHex string
}

// FixedParams returns the committed execution parameters of a fixed-amount
// swap, or false when the swap amount is user-chosen and parameters must be
// resolved iteratively instead.
func (s *SubmarineSwap) FixedParams() (ExecutionParams, bool) {
	out := &s.FundingOutput
	if s.Fees == nil || out.DebtType == nil || out.DebtAmount == nil ||
		out.ConfirmationsNeeded == nil {

		return ExecutionParams{}, false
	}

	return ExecutionParams{
		SweepFee:            s.Fees.Sweep,
		RoutingFee:          s.Fees.Lightning,
		DebtType:            *out.DebtType,
		DebtAmount:          *out.DebtAmount,
		ConfirmationsNeeded: *out.ConfirmationsNeeded,
	}, true
}

// Fees is the server-quoted fee breakdown of a fixed-amount swap.
type Fees struct {
	// Lightning is the off-chain routing fee.
	Lightning Satoshis

	// Sweep is the cost of sweeping the funding output.
	Sweep Satoshis

	// ChannelOpen and ChannelClose are the costs of a channel the server
	// opens for the receiver, when it does.
	ChannelOpen  Satoshis
	ChannelClose Satoshis
}

// Total sums all fee components.
func (f Fees) Total() Satoshis {
	return f.Lightning.Add(f.Sweep).Add(f.ChannelOpen).Add(f.ChannelClose)
}

// Receiver identifies the node a submarine swap pays to.
type Receiver struct {
	// Alias is the node's public alias, if known.
	Alias string

	// NetworkAddresses are the node's announced addresses.
	NetworkAddresses []string

	// PublicKey is the node's identity key in hex.
	PublicKey string
}

// FundingOutput describes the on-chain output that funds a submarine swap.
type FundingOutput struct {
	// OutputAddress is the address the client pays to.
	OutputAddress string

	// OutputAmount is the required output amount. Only known for
	// fixed-amount swaps.
	OutputAmount *Satoshis

	// ConfirmationsNeeded before the server pays the invoice. Only known
	// for fixed-amount swaps.
	ConfirmationsNeeded *uint32

	// UserLockTime is the block height after which the user can claim a
	// refund.
	UserLockTime *int32

	// ServerPaymentHashHex is the payment hash committed to by the output
	// script.
	ServerPaymentHashHex string

	// ServerPublicKeyHex is the server key in the output script.
	ServerPublicKeyHex string

	// ExpirationInBlocks is the relative expiry of the output script.
	ExpirationInBlocks *int32

	// ScriptVersion is the version of the output script. It determines
	// the shape of Refund.
	ScriptVersion int

	// Refund is the script-version-specific material the user needs to
	// reclaim the output.
	Refund RefundPath

	// DebtType and DebtAmount are the committed debt parameters. Only
	// known for fixed-amount swaps.
	DebtType   *DebtType
	DebtAmount *Satoshis
}

// Address parses and validates the funding output address for the given
// network.
func (f *FundingOutput) Address(
	params *chaincfg.Params) (btcutil.Address, error) {

	addr, err := btcutil.DecodeAddress(f.OutputAddress, params)
	if err != nil {
		return nil, fmt.Errorf("invalid funding address %q: %w",
			f.OutputAddress, err)
	}

	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("funding address %v is not valid for "+
			"network %v", addr, params.Name)
	}

	return addr, nil
}

// RefundPath is the script-version-specific material needed to reclaim a
// funding output. The concrete type is determined by the script version.
type RefundPath interface {
	refundPath()
}

// RefundV1 reclaims a v1 output through a fixed refund address.
type RefundV1 struct {
	// RefundAddress receives the refund.
	RefundAddress string
}

func (RefundV1) refundPath() {}

// RefundV2 reclaims a v2 output through the 2-of-2 user and muun keys.
type RefundV2 struct {
	// UserPublicKey is the user key in the output script.
	UserPublicKey []byte

	// MuunPublicKey is the cosigning key in the output script.
	MuunPublicKey []byte
}

func (RefundV2) refundPath() {}
