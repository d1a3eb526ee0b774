package swapdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/muun/swaps/swap"
)

var byteOrder = binary.BigEndian

// writeBytes writes a length-prefixed byte slice.
func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, byteOrder, uint32(len(b))); err != nil {
		return err
	}

	_, err := w.Write(b)
	return err
}

// readBytes reads a length-prefixed byte slice. A zero length yields nil.
func readBytes(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return nil, err
	}

	if length == 0 {
		return nil, nil
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}

	return b, nil
}

// serializeIncomingSwap encodes an incoming swap, preimage excluded: the
// preimage lives under its own key so attaching it doesn't rewrite the
// contract.
func serializeIncomingSwap(sw *swap.IncomingSwap) ([]byte, error) {
	var b bytes.Buffer

	if err := writeBytes(&b, []byte(sw.UUID)); err != nil {
		return nil, err
	}

	if _, err := b.Write(sw.PaymentHash[:]); err != nil {
		return nil, err
	}

	if err := writeBytes(&b, sw.SphinxPacket); err != nil {
		return nil, err
	}

	err := binary.Write(&b, byteOrder, int64(sw.CollectAmount))
	if err != nil {
		return nil, err
	}

	hasHtlc := sw.Htlc != nil
	if err := binary.Write(&b, byteOrder, hasHtlc); err != nil {
		return nil, err
	}

	if hasHtlc {
		if err := writeBytes(&b, sw.Htlc.HtlcTx); err != nil {
			return nil, err
		}

		err := binary.Write(
			&b, byteOrder, sw.Htlc.ExpirationHeight,
		)
		if err != nil {
			return nil, err
		}

		err = writeBytes(&b, sw.Htlc.ServerPublicKey)
		if err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

func deserializeIncomingSwap(value []byte) (*swap.IncomingSwap, error) {
	r := bytes.NewReader(value)

	var sw swap.IncomingSwap

	uuid, err := readBytes(r)
	if err != nil {
		return nil, err
	}
	sw.UUID = string(uuid)

	if _, err := io.ReadFull(r, sw.PaymentHash[:]); err != nil {
		return nil, err
	}

	sw.SphinxPacket, err = readBytes(r)
	if err != nil {
		return nil, err
	}

	var collectAmount int64
	if err := binary.Read(r, byteOrder, &collectAmount); err != nil {
		return nil, err
	}
	sw.CollectAmount = swap.Satoshis(collectAmount)

	var hasHtlc bool
	if err := binary.Read(r, byteOrder, &hasHtlc); err != nil {
		return nil, err
	}

	if hasHtlc {
		var htlc swap.IncomingSwapHtlc

		htlc.HtlcTx, err = readBytes(r)
		if err != nil {
			return nil, err
		}

		err = binary.Read(r, byteOrder, &htlc.ExpirationHeight)
		if err != nil {
			return nil, err
		}

		htlc.ServerPublicKey, err = readBytes(r)
		if err != nil {
			return nil, err
		}

		sw.Htlc = &htlc
	}

	return &sw, nil
}

func serializeForwardingPolicies(policies []swap.ForwardingPolicy) []byte {
	var b bytes.Buffer

	// Writes to a bytes.Buffer never fail.
	_ = binary.Write(&b, byteOrder, uint32(len(policies)))

	for _, policy := range policies {
		_, _ = b.Write(policy.Identity[:])
		_ = binary.Write(&b, byteOrder, policy.CLTVExpiryDelta)
		_ = binary.Write(&b, byteOrder, policy.FeeBaseMsat)
		_ = binary.Write(
			&b, byteOrder, policy.FeeProportionalMillionths,
		)
	}

	return b.Bytes()
}

func deserializeForwardingPolicies(value []byte) ([]swap.ForwardingPolicy,
	error) {

	r := bytes.NewReader(value)

	var count uint32
	if err := binary.Read(r, byteOrder, &count); err != nil {
		return nil, err
	}

	policies := make([]swap.ForwardingPolicy, 0, count)
	for i := uint32(0); i < count; i++ {
		var policy swap.ForwardingPolicy

		if _, err := io.ReadFull(r, policy.Identity[:]); err != nil {
			return nil, err
		}

		err := binary.Read(r, byteOrder, &policy.CLTVExpiryDelta)
		if err != nil {
			return nil, err
		}

		err = binary.Read(r, byteOrder, &policy.FeeBaseMsat)
		if err != nil {
			return nil, err
		}

		err = binary.Read(
			r, byteOrder, &policy.FeeProportionalMillionths,
		)
		if err != nil {
			return nil, err
		}

		policies = append(policies, policy)
	}

	return policies, nil
}

func serializeTime(t time.Time) []byte {
	b := make([]byte, 8)
	byteOrder.PutUint64(b, uint64(t.UnixNano()))
	return b
}

func deserializeTime(value []byte) (time.Time, error) {
	if len(value) != 8 {
		return time.Time{}, fmt.Errorf("invalid timestamp length %v",
			len(value))
	}

	nanos := int64(byteOrder.Uint64(value))
	return time.Unix(0, nanos), nil
}
