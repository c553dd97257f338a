// Package storage persists submission outcomes so their status can be
// queried after the fact.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/log"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// TxStatus is the lifecycle state of a submission.
type TxStatus string

const (
	StatusPending TxStatus = "pending"
	StatusMined   TxStatus = "mined"
	StatusFailed  TxStatus = "failed"
)

var txKeyPrefix = []byte("tx/")

// TxRecord is the stored outcome of one submission, keyed by its canonical
// hash.
type TxRecord struct {
	Hash         common.Hash  `json:"hash"`
	RollupID     uint32       `json:"rollupId"`
	Status       TxStatus     `json:"status"`
	SettleTxHash *common.Hash `json:"settleTxHash,omitempty"`
	Detail       string       `json:"detail,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ReceiptStore wraps LevelDB for submission status persistence.
// Thread-safe: LevelDB handles its own synchronization.
type ReceiptStore struct {
	db *leveldb.DB
}

// NewReceiptStore opens or creates a LevelDB database at the given path.
// An empty path uses in-memory storage.
func NewReceiptStore(path string) (*ReceiptStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open receipt store at %s: %w", path, err)
	}

	return &ReceiptStore{db: db}, nil
}

// NewMemoryReceiptStore creates an in-memory ReceiptStore for testing.
func NewMemoryReceiptStore() (*ReceiptStore, error) {
	return NewReceiptStore("")
}

func (s *ReceiptStore) Close() error {
	return s.db.Close()
}

func txKey(hash common.Hash) []byte {
	return append(append([]byte{}, txKeyPrefix...), hash.Bytes()...)
}

func (s *ReceiptStore) put(rec TxRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.Hash, err)
	}
	return s.db.Put(txKey(rec.Hash), data, nil)
}

// Get retrieves a record by submission hash. Returns (zero, false, nil) when
// not found.
func (s *ReceiptStore) Get(hash common.Hash) (TxRecord, bool, error) {
	data, err := s.db.Get(txKey(hash), nil)
	if err == leveldb.ErrNotFound {
		return TxRecord{}, false, nil
	}
	if err != nil {
		return TxRecord{}, false, fmt.Errorf("get %s: %w", hash, err)
	}

	var rec TxRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TxRecord{}, false, fmt.Errorf("unmarshal %s: %w", hash, err)
	}
	return rec, true, nil
}

// MarkPending records a freshly accepted submission.
func (s *ReceiptStore) MarkPending(hash common.Hash, rollupID uint32) error {
	return s.put(TxRecord{Hash: hash, RollupID: rollupID, Status: StatusPending})
}

// MarkMined records a settled submission along with its settlement tx hash.
func (s *ReceiptStore) MarkMined(hash common.Hash, rollupID uint32, settleTxHash common.Hash) error {
	return s.put(TxRecord{
		Hash:         hash,
		RollupID:     rollupID,
		Status:       StatusMined,
		SettleTxHash: &settleTxHash,
	})
}

// MarkFailed records a submission whose settlement failed.
func (s *ReceiptStore) MarkFailed(hash common.Hash, rollupID uint32, detail string) error {
	return s.put(TxRecord{
		Hash:     hash,
		RollupID: rollupID,
		Status:   StatusFailed,
		Detail:   detail,
	})
}

// List returns all stored records, sorted by key order.
func (s *ReceiptStore) List() ([]TxRecord, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var records []TxRecord
	for ok := iter.Seek(txKeyPrefix); ok; ok = iter.Next() {
		key := iter.Key()
		if len(key) < len(txKeyPrefix) || string(key[:len(txKeyPrefix)]) != string(txKeyPrefix) {
			break
		}

		var rec TxRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			log.Warn(log.StoreMonitoring, "Skipping undecodable record", "key", common.Bytes2Hex(key), "err", err)
			continue
		}
		records = append(records, rec)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
