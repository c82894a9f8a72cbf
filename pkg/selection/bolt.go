package selection

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sternrassler/artsel/pkg/artwork"
	bolt "go.etcd.io/bbolt"
)

var bucketSelection = []byte("selection")

// present is stored as the value of every selected id.
var present = []byte{1}

// BoltStore keeps the selection in a bbolt bucket keyed by big-endian id.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create selection directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSelection)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create selection bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func idKey(id artwork.ID) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func (b *BoltStore) Has(ctx context.Context, id artwork.ID) (bool, error) {
	res, err := b.HasMany(ctx, []artwork.ID{id})
	if err != nil {
		return false, err
	}
	return res[0], nil
}

func (b *BoltStore) HasMany(_ context.Context, ids []artwork.ID) ([]bool, error) {
	out := make([]bool, len(ids))
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSelection)
		for i, id := range ids {
			out[i] = bucket.Get(idKey(id)) != nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt view: %w", err)
	}
	return out, nil
}

func (b *BoltStore) Add(ctx context.Context, id artwork.ID) error {
	return b.AddMany(ctx, []artwork.ID{id})
}

func (b *BoltStore) AddMany(_ context.Context, ids []artwork.ID) error {
	if len(ids) == 0 {
		return nil
	}
	added := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSelection)
		for _, id := range ids {
			key := idKey(id)
			if bucket.Get(key) != nil {
				continue
			}
			if err := bucket.Put(key, present); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt add: %w", err)
	}
	recordMutation("bolt", "add", added)
	return nil
}

func (b *BoltStore) Remove(ctx context.Context, id artwork.ID) error {
	return b.RemoveMany(ctx, []artwork.ID{id})
}

func (b *BoltStore) RemoveMany(_ context.Context, ids []artwork.ID) error {
	if len(ids) == 0 {
		return nil
	}
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSelection)
		for _, id := range ids {
			key := idKey(id)
			if bucket.Get(key) == nil {
				continue
			}
			if err := bucket.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt remove: %w", err)
	}
	recordMutation("bolt", "remove", removed)
	return nil
}

func (b *BoltStore) All(_ context.Context) (Set, error) {
	set := make(Set)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSelection).ForEach(func(k, _ []byte) error {
			set[artwork.ID(binary.BigEndian.Uint64(k))] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt scan: %w", err)
	}
	return set, nil
}

func (b *BoltStore) Len(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSelection).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bolt count: %w", err)
	}
	return n, nil
}
