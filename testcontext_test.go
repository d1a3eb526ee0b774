package swaps

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
	"github.com/muun/swaps/swapdb"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)

// testContext bundles the mocked dependencies of the swap operations.
type testContext struct {
	t *testing.T

	store  *swapdb.StoreMock
	server *serverMock
	signer *signerMock
	clock  *clock.TestClock

	cfg *Config
}

func newTestContext(t *testing.T) *testContext {
	testClock := clock.NewTestClock(testTime)

	ctx := &testContext{
		t:      t,
		store:  swapdb.NewStoreMock(testClock),
		server: newServerMock(),
		signer: newSignerMock(),
		clock:  testClock,
	}

	ctx.cfg = &Config{
		Store:       ctx.store,
		Server:      ctx.server,
		Signer:      ctx.signer,
		ChainParams: &chaincfg.RegressionNetParams,
		Clock:       testClock,
	}

	return ctx
}

// storeSwap puts an incoming swap with an htlc into the store.
func (ctx *testContext) storeSwap() *swap.IncomingSwap {
	var hash lntypes.Hash
	copy(hash[:], []byte("incoming swap payment hash 1234!"))

	sw := &swap.IncomingSwap{
		UUID:         "8a1f23bc-test",
		PaymentHash:  hash,
		SphinxPacket: []byte{0x01, 0x02},
		Htlc: &swap.IncomingSwapHtlc{
			HtlcTx:           []byte{0x04, 0x05},
			ExpirationHeight: 740_000,
			ServerPublicKey:  testServerPubKey,
		},
	}
	require.NoError(ctx.t, ctx.store.CreateIncomingSwap(sw))

	return sw
}

// storeFullDebtSwap puts an incoming swap without on-chain material into
// the store.
func (ctx *testContext) storeFullDebtSwap() *swap.IncomingSwap {
	sw := ctx.storeSwap()
	sw.Htlc = nil
	ctx.store.IncomingSwaps[sw.PaymentHash] = sw

	return sw
}

// testServerPubKey is a valid compressed secp256k1 key, the curve's
// generator point.
var testServerPubKey = []byte{
	0x02,
	0x79, 0xbe, 0x66, 0x7e, 0xf9, 0xdc, 0xbb, 0xac,
	0x55, 0xa0, 0x62, 0x95, 0xce, 0x87, 0x0b, 0x07,
	0x02, 0x9b, 0xfc, 0xdb, 0x2d, 0xce, 0x28, 0xd9,
	0x59, 0xf2, 0x81, 0x5b, 0x16, 0xf8, 0x17, 0x98,
}
