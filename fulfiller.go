package swaps

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
	"github.com/muun/swaps/swapdb"
)

// Fulfiller settles incoming swaps once the matching payment notification
// arrives.
type Fulfiller struct {
	cfg *Config
}

// NewFulfiller returns a fulfiller backed by the given dependencies.
func NewFulfiller(cfg *Config) *Fulfiller {
	return &Fulfiller{cfg: cfg}
}

// FulfillSwap settles the incoming swap stored for the payment hash. Swaps
// that turn out to be unfulfillable have their invoice expired with the
// server and report success: there is nothing left to retry. A swap the
// server already settled reports success too, so notification retries are
// harmless.
func (f *Fulfiller) FulfillSwap(ctx context.Context,
	paymentHash lntypes.Hash) error {

	sw, err := f.cfg.Store.FetchIncomingSwap(paymentHash)
	if errors.Is(err, swapdb.ErrSwapNotFound) {
		return fmt.Errorf("%w: no swap stored for hash %v",
			ErrUnknownSwap, paymentHash)
	}
	if err != nil {
		return fmt.Errorf("fetching swap for hash %v: %w",
			paymentHash, err)
	}

	if sw.Preimage != nil {
		log.Infof("Swap %v already fulfilled locally", sw.UUID)
		return nil
	}

	err = f.fulfill(ctx, sw)
	switch {
	case errors.Is(err, ErrUnknownSwap) ||
		errors.Is(err, ErrUnfulfillable):

		log.Warnf("Swap %v cannot be fulfilled, expiring invoice: %v",
			sw.UUID, err)

		return f.cfg.Server.ExpireInvoice(
			ctx, sw.PaymentHash.String(),
		)

	case IsServerErrorKind(err, KindAlreadyFulfilled):
		log.Infof("Swap %v was already fulfilled by the server",
			sw.UUID)
		return nil

	case err != nil:
		return fmt.Errorf("fulfilling swap %v: %w", sw.UUID, err)
	}

	return nil
}

func (f *Fulfiller) fulfill(ctx context.Context,
	sw *swap.IncomingSwap) error {

	if err := f.cfg.Signer.CheckFulfillable(sw); err != nil {
		return fmt.Errorf("%w: %v", ErrUnfulfillable, err)
	}

	if sw.Htlc == nil {
		if err := f.fulfillFullDebt(ctx, sw); err != nil {
			return err
		}
	} else {
		if err := f.fulfillOnchain(ctx, sw); err != nil {
			return err
		}
	}

	return f.persistPreimage(sw)
}

// fulfillOnchain settles a swap with an htlc output by signing the server's
// fulfillment transaction and handing it back for broadcast.
func (f *Fulfiller) fulfillOnchain(ctx context.Context,
	sw *swap.IncomingSwap) error {

	data, err := f.cfg.Server.FetchFulfillmentData(ctx, sw.UUID)
	if err != nil {
		return err
	}

	serverKey, err := sw.Htlc.ParseServerPubKey()
	if err != nil {
		return err
	}

	claim := &HtlcClaim{
		HtlcTx:           sw.Htlc.HtlcTx,
		PaymentHash:      sw.PaymentHash,
		SphinxPacket:     sw.SphinxPacket,
		ServerPubKey:     serverKey,
		ExpirationHeight: sw.Htlc.ExpirationHeight,
		CollectAmount:    sw.CollectAmount,
		Data:             *data,
	}

	rawTx, err := f.cfg.Signer.VerifyAndFulfill(claim, f.cfg.Keys)
	if errors.Is(err, ErrMultipartPayment) {
		// The invoice can never be settled by this htlc alone.
		return fmt.Errorf("%w: %v", ErrUnfulfillable, err)
	}
	if err != nil {
		return err
	}

	log.Infof("Swap %v: pushing signed fulfillment tx", sw.UUID)

	return f.cfg.Server.PushFulfillmentTx(ctx, sw.UUID, rawTx)
}

// fulfillFullDebt settles a swap without an on-chain output by revealing
// the preimage directly.
func (f *Fulfiller) fulfillFullDebt(ctx context.Context,
	sw *swap.IncomingSwap) error {

	preimage, err := f.cfg.Signer.ExposePreimage(sw.PaymentHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownSwap, err)
	}

	log.Infof("Swap %v: fulfilling against debt", sw.UUID)

	return f.cfg.Server.FulfillWithPreimage(ctx, sw.UUID, preimage)
}

func (f *Fulfiller) persistPreimage(sw *swap.IncomingSwap) error {
	preimage, err := f.cfg.Signer.ExposePreimage(sw.PaymentHash)
	if err != nil {
		return fmt.Errorf("exposing preimage for swap %v: %w",
			sw.UUID, err)
	}

	return f.cfg.Store.UpdatePreimage(sw.PaymentHash, preimage)
}
