package swapdb

import (
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
)

// StoreMock implements a mock client swap store.
type StoreMock struct {
	sync.RWMutex

	IncomingSwaps map[lntypes.Hash]*swap.IncomingSwap

	Policies          []swap.ForwardingPolicy
	PoliciesFetchedAt time.Time

	clock clock.Clock
}

// NewStoreMock instantiates a new mock store.
func NewStoreMock(clock clock.Clock) *StoreMock {
	return &StoreMock{
		IncomingSwaps: make(map[lntypes.Hash]*swap.IncomingSwap),
		clock:         clock,
	}
}

// CreateIncomingSwap stores a new incoming swap.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) CreateIncomingSwap(sw *swap.IncomingSwap) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.IncomingSwaps[sw.PaymentHash]; ok {
		return fmt.Errorf("swap %v already stored", sw.PaymentHash)
	}

	cp := *sw
	s.IncomingSwaps[sw.PaymentHash] = &cp

	return nil
}

// FetchIncomingSwap returns the swap stored for the payment hash.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) FetchIncomingSwap(paymentHash lntypes.Hash) (
	*swap.IncomingSwap, error) {

	s.RLock()
	defer s.RUnlock()

	sw, ok := s.IncomingSwaps[paymentHash]
	if !ok {
		return nil, ErrSwapNotFound
	}

	cp := *sw
	return &cp, nil
}

// UpdatePreimage attaches the preimage to a stored swap.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) UpdatePreimage(paymentHash lntypes.Hash,
	preimage lntypes.Preimage) error {

	s.Lock()
	defer s.Unlock()

	sw, ok := s.IncomingSwaps[paymentHash]
	if !ok {
		return ErrSwapNotFound
	}

	sw.Preimage = &preimage

	return nil
}

// FetchForwardingPolicies returns the cached forwarding policies.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) FetchForwardingPolicies() ([]swap.ForwardingPolicy,
	time.Time, error) {

	s.RLock()
	defer s.RUnlock()

	return s.Policies, s.PoliciesFetchedAt, nil
}

// PutForwardingPolicies replaces the policy cache.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) PutForwardingPolicies(
	policies []swap.ForwardingPolicy) error {

	s.Lock()
	defer s.Unlock()

	s.Policies = policies
	s.PoliciesFetchedAt = s.clock.Now()

	return nil
}

// Close closes the store.
//
// NOTE: Part of the SwapStore interface.
func (s *StoreMock) Close() error {
	return nil
}
