package swaps

import (
	"errors"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
)

// signerMock is used in unit tests to simulate the wallet's script-level
// operations.
type signerMock struct {
	checkFulfillableErr error

	verifyErr   error
	signedTx    []byte
	seenClaims  []*HtlcClaim
	exposeErr   error
	preimage    lntypes.Preimage
	exposeCalls int

	// createErrs is a queue of errors for successive CreateInvoice
	// calls. A nil entry or an exhausted queue means success.
	createErrs []error
	invoice    string
	seenReqs   []*InvoiceRequest
}

var _ Signer = (*signerMock)(nil)

func newSignerMock() *signerMock {
	var preimage lntypes.Preimage
	copy(preimage[:], []byte("mock preimage mock preimage 123!"))

	return &signerMock{
		signedTx: []byte{0x02, 0x00, 0x00, 0x00},
		preimage: preimage,
		invoice:  "lnbcrt1mockinvoice",
	}
}

func (s *signerMock) VerifyAndFulfill(claim *HtlcClaim,
	_ KeyRing) ([]byte, error) {

	s.seenClaims = append(s.seenClaims, claim)

	if s.verifyErr != nil {
		return nil, s.verifyErr
	}

	return s.signedTx, nil
}

func (s *signerMock) ExposePreimage(_ lntypes.Hash) (lntypes.Preimage,
	error) {

	s.exposeCalls++

	if s.exposeErr != nil {
		return lntypes.Preimage{}, s.exposeErr
	}

	return s.preimage, nil
}

func (s *signerMock) CheckFulfillable(_ *swap.IncomingSwap) error {
	return s.checkFulfillableErr
}

func (s *signerMock) CreateInvoice(req *InvoiceRequest) (string, error) {
	s.seenReqs = append(s.seenReqs, req)

	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return "", err
		}
	}

	return s.invoice, nil
}

// errMock is a distinguishable error for wiring into mocks.
var errMock = errors.New("mock error")
