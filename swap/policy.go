package swap

import (
	"github.com/lightningnetwork/lnd/routing/route"
)

// ForwardingPolicy holds the routing parameters of one peer the wallet can
// be reached through. Policies are used as route hints when creating
// invoices. They are fetched from the local cache and refreshed from the
// server's real-time data when the cache is empty or stale.
type ForwardingPolicy struct {
	// CLTVExpiryDelta is the peer's forwarding delta.
	CLTVExpiryDelta int32

	// FeeBaseMsat is the flat forwarding fee in millisatoshis.
	FeeBaseMsat int64

	// FeeProportionalMillionths is the proportional forwarding fee.
	FeeProportionalMillionths int64

	// Identity is the peer's node key.
	Identity route.Vertex
}
