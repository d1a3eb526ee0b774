package swap

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lntypes"
)

// IncomingSwap is a single incoming lightning payment being settled through
// the swap protocol. It is created when the matching operation notification
// arrives and is append-only afterwards: the only mutation ever made is
// attaching the preimage once the swap is fulfilled.
type IncomingSwap struct {
	// UUID identifies the swap with the server.
	UUID string

	// PaymentHash of the incoming payment.
	PaymentHash lntypes.Hash

	// SphinxPacket is the onion payload carried by the incoming htlc.
	SphinxPacket []byte

	// CollectAmount is the debt the server collects as part of this
	// swap.
	CollectAmount Satoshis

	// Htlc is the on-chain claim material. It is nil for swaps settled
	// purely against debt, which need no on-chain artifact.
	Htlc *IncomingSwapHtlc

	// Preimage is attached after fulfillment.
	Preimage *lntypes.Preimage
}

// IncomingSwapHtlc is the on-chain claim material of an incoming swap.
type IncomingSwapHtlc struct {
	// HtlcTx is the raw transaction paying to the htlc output.
	HtlcTx []byte

	// ExpirationHeight is the absolute height at which the htlc times
	// out.
	ExpirationHeight int64

	// ServerPublicKey is the server's compressed key in the htlc script.
	ServerPublicKey []byte
}

// ParseServerPubKey parses the server key in the htlc script.
func (h *IncomingSwapHtlc) ParseServerPubKey() (*btcec.PublicKey, error) {
	key, err := btcec.ParsePubKey(h.ServerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid swap server key: %w", err)
	}

	return key, nil
}
