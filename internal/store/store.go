package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/laptophub/internal/domain"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// Bucket names
var (
	bucketCart = []byte("cart")
)

const keyLastCart = "last"

// CartStore implements domain.CartStore using BoltDB.
type CartStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewCartStore opens the cache for one server and user.
// An empty baseCacheDir gives a memory-only store.
func NewCartStore(baseCacheDir, serverURL, userID string) (*CartStore, error) {
	if baseCacheDir == "" {
		return NewMemoryStore(), nil
	}

	dir := filepath.Join(baseCacheDir, hashScope(serverURL, userID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cart.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCart)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CartStore{db: db, cache: make(map[string][]byte)}, nil
}

// NewMemoryStore returns a store without persistence
func NewMemoryStore() *CartStore {
	return &CartStore{cache: make(map[string][]byte)}
}

func hashScope(serverURL, userID string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/") + "|" + userID
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CartStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CartStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CartStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// === Cart ===

// GetCart returns the last saved cart
func (s *CartStore) GetCart() (*domain.Cart, bool) {
	var cart domain.Cart
	if !s.get(bucketCart, keyLastCart, &cart) {
		return nil, false
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, true
}

// SaveCart replaces the saved cart wholesale
func (s *CartStore) SaveCart(cart *domain.Cart) error {
	if cart == nil {
		return fmt.Errorf("cannot save nil cart")
	}
	return s.set(bucketCart, keyLastCart, cart)
}

// InvalidateAll wipes the memory cache and every bucket
func (s *CartStore) InvalidateAll() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCart); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketCart)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cart cache: %w", err)
	}
	return nil
}
