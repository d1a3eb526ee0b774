package swap

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"
)

// InvoiceAmount returns the amount of a payment request. It requires an
// amount to be specified.
func InvoiceAmount(params *chaincfg.Params, payReq string) (Satoshis, error) {
	invoice, err := zpay32.Decode(payReq, params)
	if err != nil {
		return 0, err
	}

	if invoice.MilliSat == nil {
		return 0, errors.New("no amount in invoice")
	}

	return Satoshis(invoice.MilliSat.ToSatoshis()), nil
}
