package registry

import (
	"bytes"
	"fmt"
	"strconv"

	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/curatelabs/tcr/vote"
)

// Serializable record forms of the engine state. Stage boundaries are
// unix timestamps; enums are widened for the XDR encoder.
type listingRecord struct {
	ID                string
	Owner             string
	Deposit           uint64
	Status            uint32
	ApplicationExpiry int64
	ChallengeID       uint64
}

type challengeRecord struct {
	ID            uint64
	ListingID     string
	Challenger    string
	PollID        uint64
	Deposit       uint64
	Bond          uint64
	RewardPool    uint64
	InflationPool uint64
	Resolved      bool
	Winner        uint32
}

// refundRecord tracks a stale-deposit refund still owed out of escrow.
// A zero amount marks the debt as settled.
type refundRecord struct {
	Account string
	Amount  uint64
}

var (
	listingPrefix   = []byte("listing/")
	challengePrefix = []byte("challenge/")
	pollPrefix      = []byte("poll/")
	refundPrefix    = []byte("refund/")
)

// database is the registry's durable store. Every successful mutation is
// written through so that reopening a registry from the same directory
// recovers the full engine state.
type database struct {
	db *leveldb.DB
}

func newDatabase(path string) (*database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database @ %s: %w", path, err)
	}
	return &database{db: db}, nil
}

func (db *database) Close() error {
	return db.db.Close()
}

func (db *database) SaveListing(record listingRecord) error {
	return db.put(append(listingPrefix, record.ID...), &record)
}

func (db *database) SaveChallenge(record challengeRecord) error {
	return db.put(append(challengePrefix, formatID(record.ID)...), &record)
}

func (db *database) SavePoll(record vote.PollRecord) error {
	return db.put(append(pollPrefix, formatID(record.ID)...), &record)
}

func (db *database) SaveRefund(record refundRecord) error {
	return db.put(append(refundPrefix, record.Account...), &record)
}

func (db *database) Listings() ([]listingRecord, error) {
	var records []listingRecord
	err := db.scan(listingPrefix, func(data []byte) error {
		var record listingRecord
		if _, err := xdr.Unmarshal(bytes.NewReader(data), &record); err != nil {
			return fmt.Errorf("failed to deserialize listing: %v", err)
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

func (db *database) Challenges() ([]challengeRecord, error) {
	var records []challengeRecord
	err := db.scan(challengePrefix, func(data []byte) error {
		var record challengeRecord
		if _, err := xdr.Unmarshal(bytes.NewReader(data), &record); err != nil {
			return fmt.Errorf("failed to deserialize challenge: %v", err)
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

func (db *database) Polls() ([]vote.PollRecord, error) {
	var records []vote.PollRecord
	err := db.scan(pollPrefix, func(data []byte) error {
		var record vote.PollRecord
		if _, err := xdr.Unmarshal(bytes.NewReader(data), &record); err != nil {
			return fmt.Errorf("failed to deserialize poll: %v", err)
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

func (db *database) Refunds() ([]refundRecord, error) {
	var records []refundRecord
	err := db.scan(refundPrefix, func(data []byte) error {
		var record refundRecord
		if _, err := xdr.Unmarshal(bytes.NewReader(data), &record); err != nil {
			return fmt.Errorf("failed to deserialize refund: %v", err)
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

func (db *database) put(key []byte, record interface{}) error {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, record); err != nil {
		return fmt.Errorf("serialization failure: %v", err)
	}
	if err := db.db.Put(key, buf.Bytes(), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("storing %s in DB: %w", key, err)
	}
	return nil
}

func (db *database) scan(prefix []byte, each func(data []byte) error) error {
	iter := db.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := each(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
