package swapdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/muun/swaps/swap"
	"go.etcd.io/bbolt"
)

var (
	// dbFileName is the default file name of the client-side swap
	// database.
	dbFileName = "swaps.db"

	// incomingSwapsBucketKey is a bucket that contains all incoming swaps
	// that are currently pending or fulfilled. This bucket is keyed by the
	// payment hash, and leads to a nested sub-bucket that houses
	// information for that swap.
	//
	// maps: paymentHash -> swapBucket
	incomingSwapsBucketKey = []byte("incoming-swaps")

	// swapKey is the key that stores the serialized incoming swap. It is
	// nested within the sub-bucket for each swap.
	//
	// path: incomingSwapsBucket -> swapBucket[hash] -> swapKey
	//
	// value: serialized incoming swap, preimage excluded
	swapKey = []byte("swap")

	// preimageKey is the key that stores the payment preimage once the
	// swap was fulfilled. Absent until then.
	//
	// path: incomingSwapsBucket -> swapBucket[hash] -> preimageKey
	//
	// value: 32-byte preimage
	preimageKey = []byte("preimage")

	// policiesBucketKey is a bucket that caches the forwarding policies
	// last fetched from the server. It is replaced wholesale on every
	// refresh.
	policiesBucketKey = []byte("forwarding-policies")

	// policiesKey contains the serialized policy list.
	//
	// path: policiesBucket -> policiesKey
	policiesKey = []byte{0}

	// policiesFetchedAtKey contains the time the list was fetched, as
	// unix nanoseconds.
	//
	// path: policiesBucket -> policiesFetchedAtKey
	policiesFetchedAtKey = []byte{1}
)

// ErrSwapNotFound is returned when no swap is stored for a payment hash.
var ErrSwapNotFound = errors.New("swap not found")

// SwapStore is the persistence layer of incoming swaps and the forwarding
// policy cache.
type SwapStore interface {
	// CreateIncomingSwap stores a new incoming swap. The swap's payment
	// hash must not be in use by another stored swap.
	CreateIncomingSwap(s *swap.IncomingSwap) error

	// FetchIncomingSwap returns the swap stored for the payment hash, or
	// ErrSwapNotFound.
	FetchIncomingSwap(paymentHash lntypes.Hash) (*swap.IncomingSwap,
		error)

	// UpdatePreimage attaches the preimage to a stored swap. Attaching
	// the same preimage twice is a noop.
	UpdatePreimage(paymentHash lntypes.Hash,
		preimage lntypes.Preimage) error

	// FetchForwardingPolicies returns the cached forwarding policies and
	// the time they were fetched. An empty cache returns no policies and
	// a zero time.
	FetchForwardingPolicies() ([]swap.ForwardingPolicy, time.Time, error)

	// PutForwardingPolicies replaces the policy cache with the given
	// policies, stamped with the current time.
	PutForwardingPolicies(policies []swap.ForwardingPolicy) error

	// Close closes the underlying database.
	Close() error
}

// fileExists returns true if the file exists, and false otherwise.
func fileExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}

	return true
}

// boltSwapStore stores swap data in boltdb.
type boltSwapStore struct {
	db    *bbolt.DB
	clock clock.Clock
}

// A compile-time flag to ensure that boltSwapStore implements the SwapStore
// interface.
var _ SwapStore = (*boltSwapStore)(nil)

// NewBoltSwapStore creates a new client swap store.
func NewBoltSwapStore(dbPath string, clock clock.Clock) (*boltSwapStore,
	error) {

	// If the target path for the swap store doesn't exist, then we'll
	// create it now before we proceed.
	if !fileExists(dbPath) {
		if err := os.MkdirAll(dbPath, 0700); err != nil {
			return nil, err
		}
	}

	// Now that we know that path exists, we'll open up bolt, which
	// implements our default swap store.
	path := filepath.Join(dbPath, dbFileName)
	bdb, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// We'll create all the buckets we need if this is the first time
	// we're starting up. If they already exist, then these calls will be
	// noops.
	err = bdb.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(incomingSwapsBucketKey) == nil {
			log.Infof("Initializing new swap database at %v", path)
		}

		_, err := tx.CreateBucketIfNotExists(incomingSwapsBucketKey)
		if err != nil {
			return err
		}

		_, err = tx.CreateBucketIfNotExists(policiesBucketKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &boltSwapStore{
		db:    bdb,
		clock: clock,
	}, nil
}

// CreateIncomingSwap stores a new incoming swap.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) CreateIncomingSwap(sw *swap.IncomingSwap) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(incomingSwapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		// The payment hash is the primary key, so a second swap for
		// the same hash is a hard error.
		swapBucket, err := rootBucket.CreateBucket(
			sw.PaymentHash[:],
		)
		if err != nil {
			return fmt.Errorf("swap %v already stored: %w",
				sw.PaymentHash, err)
		}

		contract, err := serializeIncomingSwap(sw)
		if err != nil {
			return err
		}

		if err := swapBucket.Put(swapKey, contract); err != nil {
			return err
		}

		if sw.Preimage != nil {
			err := swapBucket.Put(preimageKey, sw.Preimage[:])
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// FetchIncomingSwap returns the swap stored for the payment hash.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) FetchIncomingSwap(paymentHash lntypes.Hash) (
	*swap.IncomingSwap, error) {

	var sw *swap.IncomingSwap

	err := s.db.View(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(incomingSwapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		swapBucket := rootBucket.Bucket(paymentHash[:])
		if swapBucket == nil {
			return ErrSwapNotFound
		}

		contract := swapBucket.Get(swapKey)
		if contract == nil {
			return errors.New("swap contract not found")
		}

		var err error
		sw, err = deserializeIncomingSwap(contract)
		if err != nil {
			return err
		}

		if rawPreimage := swapBucket.Get(preimageKey); rawPreimage != nil {
			preimage, err := lntypes.MakePreimage(rawPreimage)
			if err != nil {
				return err
			}
			sw.Preimage = &preimage
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sw, nil
}

// UpdatePreimage attaches the preimage to a stored swap.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) UpdatePreimage(paymentHash lntypes.Hash,
	preimage lntypes.Preimage) error {

	return s.db.Update(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(incomingSwapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		swapBucket := rootBucket.Bucket(paymentHash[:])
		if swapBucket == nil {
			return ErrSwapNotFound
		}

		return swapBucket.Put(preimageKey, preimage[:])
	})
}

// FetchForwardingPolicies returns the cached forwarding policies.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) FetchForwardingPolicies() ([]swap.ForwardingPolicy,
	time.Time, error) {

	var (
		policies  []swap.ForwardingPolicy
		fetchedAt time.Time
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(policiesBucketKey)
		if bucket == nil {
			return errors.New("bucket does not exist")
		}

		raw := bucket.Get(policiesKey)
		if raw == nil {
			return nil
		}

		var err error
		policies, err = deserializeForwardingPolicies(raw)
		if err != nil {
			return err
		}

		rawTime := bucket.Get(policiesFetchedAtKey)
		if rawTime != nil {
			fetchedAt, err = deserializeTime(rawTime)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	return policies, fetchedAt, nil
}

// PutForwardingPolicies replaces the policy cache.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) PutForwardingPolicies(
	policies []swap.ForwardingPolicy) error {

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(policiesBucketKey)
		if bucket == nil {
			return errors.New("bucket does not exist")
		}

		raw := serializeForwardingPolicies(policies)
		if err := bucket.Put(policiesKey, raw); err != nil {
			return err
		}

		rawTime := serializeTime(s.clock.Now())
		return bucket.Put(policiesFetchedAtKey, rawTime)
	})
}

// Close closes the underlying database.
//
// NOTE: Part of the swapdb.SwapStore interface.
func (s *boltSwapStore) Close() error {
	return s.db.Close()
}
