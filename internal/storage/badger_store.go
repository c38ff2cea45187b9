package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/quangdm/fleetdeck/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store holds the simulated provider's instance records. Kept as an
// interface so tests and the seed command can swap implementations.
type Store interface {
	PutInstance(ctx context.Context, inst models.Instance) error
	GetInstance(ctx context.Context, region, id string) (models.Instance, error)
	ListRegion(ctx context.Context, region string) ([]models.Instance, error)
	Regions(ctx context.Context) ([]string, error)
	DeleteInstance(ctx context.Context, region, id string) error
	Close() error
}

// BadgerStore implements Store with Badger DB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a disk-backed store at path.
func NewBadgerStore(path string) (Store, error) {
	opts := badger.DefaultOptions(filepath.Clean(path))
	opts.Logger = nil                         // badger's own logging is noise here
	opts = opts.WithValueLogFileSize(1 << 20) // smaller value log for local dev
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// NewInMemoryStore opens a store that lives only for the process
// lifetime. This is the default: fleetdeck does not persist fleet state.
func NewInMemoryStore() (Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func instanceKey(region, id string) []byte {
	return []byte("instance:" + region + ":" + id)
}

func regionPrefix(region string) []byte {
	return []byte("instance:" + region + ":")
}

func (s *BadgerStore) PutInstance(ctx context.Context, inst models.Instance) error {
	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(inst)
		if err != nil {
			return err
		}
		return txn.Set(instanceKey(inst.Region, inst.ID), data)
	})
}

func (s *BadgerStore) GetInstance(ctx context.Context, region, id string) (models.Instance, error) {
	var out models.Instance
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(instanceKey(region, id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &out)
		})
	})
	if err != nil {
		return models.Instance{}, err
	}
	return out, nil
}

// ListRegion returns every instance stored under one region, in key
// order. Key order is the store's canonical per-region ordering.
func (s *BadgerStore) ListRegion(ctx context.Context, region string) ([]models.Instance, error) {
	var out []models.Instance
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := regionPrefix(region)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var inst models.Instance
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &inst)
			})
			if err != nil {
				return err
			}
			out = append(out, inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Regions scans the key space and returns the distinct regions present,
// in key order.
func (s *BadgerStore) Regions(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("instance:")
		var last []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			rest := key[len(prefix):]
			i := bytes.IndexByte(rest, ':')
			if i < 0 {
				continue
			}
			region := rest[:i]
			if bytes.Equal(region, last) {
				continue
			}
			last = append(last[:0], region...)
			out = append(out, string(region))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) DeleteInstance(ctx context.Context, region, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(instanceKey(region, id))
	})
}
