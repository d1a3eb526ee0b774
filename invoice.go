package swaps

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/muun/swaps/swap"
)

// policyMaxAge is how long cached forwarding policies stay usable as route
// hints before a refresh is forced.
const policyMaxAge = time.Hour

// InvoiceCreator mints invoices from the wallet's pre-registered secrets,
// embedding one of the wallet's forwarding policies as the route hint.
type InvoiceCreator struct {
	cfg *Config
}

// NewInvoiceCreator returns an invoice creator backed by the given
// dependencies.
func NewInvoiceCreator(cfg *Config) *InvoiceCreator {
	return &InvoiceCreator{cfg: cfg}
}

// CreateInvoice creates a new invoice for the given amount. A zero amount
// creates an amountless invoice. The route hint is picked at random among
// the known forwarding policies, refreshed from the server when the cache
// is empty or stale. When the stored invoice secrets run out, a new batch
// is registered and the creation retried once.
func (c *InvoiceCreator) CreateInvoice(ctx context.Context,
	amount swap.Satoshis) (string, error) {

	policies, fetchedAt, err := c.cfg.Store.FetchForwardingPolicies()
	if err != nil {
		return "", fmt.Errorf("fetching forwarding policies: %w", err)
	}

	if len(policies) == 0 ||
		c.cfg.Clock.Now().Sub(fetchedAt) > policyMaxAge {

		policies, err = c.refreshPolicies(ctx)
		if err != nil {
			return "", err
		}
	}

	if len(policies) == 0 {
		return "", ErrNoRoutingPolicies
	}

	req := &InvoiceRequest{
		Network:   c.cfg.ChainParams,
		UserKey:   c.cfg.Keys.UserKey,
		RouteHint: policies[rand.Intn(len(policies))],
		Amount:    amount,
	}

	invoice, err := c.cfg.Signer.CreateInvoice(req)
	if errors.Is(err, ErrInvoiceSecretsDepleted) {
		log.Infof("Invoice secrets depleted, registering a new batch")

		err = c.cfg.Server.RegisterInvoiceSecrets(ctx)
		if err != nil {
			return "", fmt.Errorf("registering invoice "+
				"secrets: %w", err)
		}

		invoice, err = c.cfg.Signer.CreateInvoice(req)
	}
	if err != nil {
		return "", fmt.Errorf("creating invoice: %w", err)
	}

	// Top up the secret pool in the background so the next invoice
	// doesn't have to wait for it.
	go func() {
		err := c.cfg.Server.RegisterInvoiceSecrets(
			context.Background(),
		)
		if err != nil {
			log.Warnf("Background invoice secrets refill "+
				"failed: %v", err)
		}
	}()

	return invoice, nil
}

// refreshPolicies replaces the policy cache with the server's current view.
func (c *InvoiceCreator) refreshPolicies(ctx context.Context) (
	[]swap.ForwardingPolicy, error) {

	data, err := c.cfg.Server.FetchRealTimeData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching real time data: %w", err)
	}

	err = c.cfg.Store.PutForwardingPolicies(data.ForwardingPolicies)
	if err != nil {
		return nil, fmt.Errorf("storing forwarding policies: %w", err)
	}

	return data.ForwardingPolicies, nil
}
