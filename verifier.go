package swaps

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swapdb"
)

// Verifier prechecks incoming swaps ahead of fulfillment, at the time the
// payment notification arrives rather than when the claim is executed.
type Verifier struct {
	cfg *Config
}

// NewVerifier returns a verifier backed by the given dependencies.
func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// VerifyFulfillable checks that the swap stored for the payment hash can be
// fulfilled with the secrets we hold. A swap that can't be is expired with
// the server and reports success: expiry is the terminal outcome, and the
// sender's htlc is released instead of hanging until timeout. Only a failed
// expiry call surfaces as an error.
func (v *Verifier) VerifyFulfillable(ctx context.Context,
	paymentHash lntypes.Hash) error {

	sw, err := v.cfg.Store.FetchIncomingSwap(paymentHash)
	if errors.Is(err, swapdb.ErrSwapNotFound) {
		return fmt.Errorf("%w: no swap stored for hash %v",
			ErrUnknownSwap, paymentHash)
	}
	if err != nil {
		return fmt.Errorf("fetching swap for hash %v: %w",
			paymentHash, err)
	}

	if err := v.cfg.Signer.CheckFulfillable(sw); err != nil {
		log.Warnf("Swap %v is not fulfillable, expiring invoice: %v",
			sw.UUID, err)

		expireErr := v.cfg.Server.ExpireInvoice(
			ctx, paymentHash.String(),
		)
		if expireErr != nil {
			return fmt.Errorf("expiring invoice for swap %v: %w",
				sw.UUID, expireErr)
		}

		return nil
	}

	return nil
}
