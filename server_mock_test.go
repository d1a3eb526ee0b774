package swaps

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"
)

// serverMock is used in unit tests to simulate settlement server behaviour.
type serverMock struct {
	fulfillmentData *FulfillmentData
	fetchDataErr    error

	pushErr   error
	pushedTxs [][]byte

	fulfillPreimageErr error
	fulfilledPreimages []lntypes.Preimage

	expiredInvoices []string
	expireErr       error

	realTimeData     *RealTimeData
	fetchRealTimeErr error

	// registerMtx guards the registration counter, which background
	// refills bump from their own goroutine.
	registerMtx   sync.Mutex
	registerErr   error
	registerCalls int

	// registered is signalled on every secrets registration, so tests
	// can wait for background refills.
	registered chan struct{}
}

var _ SettlementServer = (*serverMock)(nil)

func newServerMock() *serverMock {
	return &serverMock{
		fulfillmentData: &FulfillmentData{
			FulfillmentTx: []byte{0x01, 0x00, 0x00, 0x00},
			MuunSignature: []byte{0x30, 0x45},
			OutputPath:    "m/schema:1'/recovery:1'/change:0/1",
			OutputVersion: 4,
		},
		realTimeData: &RealTimeData{},
		registered:   make(chan struct{}, 10),
	}
}

func (s *serverMock) FetchFulfillmentData(_ context.Context,
	_ string) (*FulfillmentData, error) {

	if s.fetchDataErr != nil {
		return nil, s.fetchDataErr
	}

	return s.fulfillmentData, nil
}

func (s *serverMock) PushFulfillmentTx(_ context.Context, _ string,
	rawTx []byte) error {

	if s.pushErr != nil {
		return s.pushErr
	}

	s.pushedTxs = append(s.pushedTxs, rawTx)

	return nil
}

func (s *serverMock) FulfillWithPreimage(_ context.Context, _ string,
	preimage lntypes.Preimage) error {

	if s.fulfillPreimageErr != nil {
		return s.fulfillPreimageErr
	}

	s.fulfilledPreimages = append(s.fulfilledPreimages, preimage)

	return nil
}

func (s *serverMock) ExpireInvoice(_ context.Context,
	paymentHashHex string) error {

	if s.expireErr != nil {
		return s.expireErr
	}

	s.expiredInvoices = append(s.expiredInvoices, paymentHashHex)

	return nil
}

func (s *serverMock) FetchRealTimeData(_ context.Context) (*RealTimeData,
	error) {

	if s.fetchRealTimeErr != nil {
		return nil, s.fetchRealTimeErr
	}

	return s.realTimeData, nil
}

func (s *serverMock) RegisterInvoiceSecrets(_ context.Context) error {
	s.registerMtx.Lock()
	s.registerCalls++
	err := s.registerErr
	s.registerMtx.Unlock()

	s.registered <- struct{}{}

	return err
}

func (s *serverMock) registeredSecretsCalls() int {
	s.registerMtx.Lock()
	defer s.registerMtx.Unlock()

	return s.registerCalls
}
