package swaps

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
	"github.com/muun/swaps/swapdb"
)

// FulfillmentData is the signing material the server hands out to settle an
// incoming swap on-chain.
type FulfillmentData struct {
	// FulfillmentTx is the unsigned transaction spending the htlc
	// output.
	FulfillmentTx []byte

	// MuunSignature is the cosigner's signature for the htlc input.
	MuunSignature []byte

	// OutputPath is the derivation path of the destination output.
	OutputPath string

	// OutputVersion is the script version of the destination output.
	OutputVersion int
}

// HtlcClaim bundles everything needed to verify and sign the fulfillment of
// a single incoming swap htlc.
type HtlcClaim struct {
	// HtlcTx is the raw transaction paying to the htlc output.
	HtlcTx []byte

	// PaymentHash of the payment being settled.
	PaymentHash lntypes.Hash

	// SphinxPacket is the onion payload of the incoming htlc. It is
	// checked against the invoice before any signature is produced.
	SphinxPacket []byte

	// ServerPubKey is the server key in the htlc script.
	ServerPubKey *btcec.PublicKey

	// ExpirationHeight is the absolute height at which the htlc times
	// out.
	ExpirationHeight int64

	// CollectAmount is the debt collected out of this swap.
	CollectAmount swap.Satoshis

	// Data is the server-provided signing material.
	Data FulfillmentData
}

// RealTimeData is the server state relevant to invoice creation.
type RealTimeData struct {
	// ForwardingPolicies of the peers the wallet can be reached through.
	ForwardingPolicies []swap.ForwardingPolicy
}

// SettlementServer is the server side of the swap protocol.
type SettlementServer interface {
	// FetchFulfillmentData returns the signing material for settling the
	// swap on-chain. Failures carry a ServerError classification.
	FetchFulfillmentData(ctx context.Context, swapUUID string) (
		*FulfillmentData, error)

	// PushFulfillmentTx sends the fully signed fulfillment transaction
	// to the server for broadcast.
	PushFulfillmentTx(ctx context.Context, swapUUID string,
		rawTx []byte) error

	// FulfillWithPreimage settles a swap that has no on-chain output by
	// revealing the preimage directly.
	FulfillWithPreimage(ctx context.Context, swapUUID string,
		preimage lntypes.Preimage) error

	// ExpireInvoice tells the server to cancel the invoice with the
	// given payment hash.
	ExpireInvoice(ctx context.Context, paymentHashHex string) error

	// FetchRealTimeData returns the current server state.
	FetchRealTimeData(ctx context.Context) (*RealTimeData, error)

	// RegisterInvoiceSecrets generates a new batch of invoice secrets
	// and registers it with the server.
	RegisterInvoiceSecrets(ctx context.Context) error
}

// KeyRing holds the wallet's extended keys used in swap scripts.
type KeyRing struct {
	// UserKey is the user's extended private key.
	UserKey *hdkeychain.ExtendedKey

	// MuunKey is the cosigner's extended public key.
	MuunKey *hdkeychain.ExtendedKey
}

// InvoiceRequest describes the invoice to create.
type InvoiceRequest struct {
	// Network the invoice is for.
	Network *chaincfg.Params

	// UserKey signs the invoice.
	UserKey *hdkeychain.ExtendedKey

	// RouteHint is the forwarding policy embedded as the invoice's route
	// hint.
	RouteHint swap.ForwardingPolicy

	// Amount of the invoice. Zero creates an amountless invoice.
	Amount swap.Satoshis
}

// Signer owns the wallet's script-level operations: verifying htlcs,
// producing signatures and minting invoices from the stored secrets.
type Signer interface {
	// VerifyAndFulfill checks the claim against the invoice it settles
	// and returns the fully signed fulfillment transaction. It returns
	// ErrMultipartPayment when the htlc only covers part of the invoice.
	VerifyAndFulfill(claim *HtlcClaim, keys KeyRing) ([]byte, error)

	// ExposePreimage reveals the preimage for the payment hash, if it
	// belongs to one of our invoices.
	ExposePreimage(paymentHash lntypes.Hash) (lntypes.Preimage, error)

	// CheckFulfillable verifies that the swap can be fulfilled with the
	// secrets we hold.
	CheckFulfillable(s *swap.IncomingSwap) error

	// CreateInvoice mints a new invoice from the stored secrets. It
	// returns ErrInvoiceSecretsDepleted when none remain unused.
	CreateInvoice(req *InvoiceRequest) (string, error)
}

// Config holds the external dependencies of the swap operations.
type Config struct {
	// Store is the local swap database.
	Store swapdb.SwapStore

	// Server is the settlement server.
	Server SettlementServer

	// Signer performs all script-level operations.
	Signer Signer

	// Keys are the wallet keys used in swap scripts.
	Keys KeyRing

	// ChainParams identify the bitcoin network.
	ChainParams *chaincfg.Params

	// Clock provides the time source, mockable in tests.
	Clock clock.Clock
}
