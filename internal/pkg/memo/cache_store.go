package memo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/unifiedui/docdb-connection/internal/core/cache"
	"github.com/unifiedui/docdb-connection/internal/pkg/encryption"
)

// CacheStore keeps entries in a shared cache.Client such as Redis, so every
// process pointing at the same cache sees the same entries. Values are BSON
// encoded and then sealed by the encryptor.
type CacheStore struct {
	client    cache.Client
	encryptor encryption.Encryptor
	prefix    string
}

// NewCacheStore creates a CacheStore. Keys are written under prefix so Reset
// only touches this store's entries. A nil encryptor stores plain BSON (base64).
func NewCacheStore(client cache.Client, encryptor encryption.Encryptor, prefix string) (*CacheStore, error) {
	if client == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if encryptor == nil {
		encryptor = encryption.NewNoOpEncryptor()
	}
	if prefix == "" {
		prefix = "docdb"
	}

	return &CacheStore{
		client:    client,
		encryptor: encryptor,
		prefix:    prefix,
	}, nil
}

type storedEntry struct {
	V         interface{} `bson:"v"`
	CreatedAt time.Time   `bson:"createdAt"`
}

// Get loads and decodes the entry for key. Entries that cannot be decrypted or
// decoded (e.g. after a key rotation) are deleted and returned as an error, which
// the Memoizer reports and treats as a miss.
func (s *CacheStore) Get(ctx context.Context, key string, decode Decoder) (*Entry, error) {
	fullKey := s.fullKey(key)

	sealed, err := s.client.Get(ctx, fullKey)
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, nil
	}

	data, err := s.encryptor.Decrypt(string(sealed))
	if err != nil {
		_, _ = s.client.Delete(ctx, fullKey)
		return nil, fmt.Errorf("failed to decrypt cache entry %s: %w", key, err)
	}

	raw := bson.Raw(data)
	createdAt, ok := raw.Lookup("createdAt").TimeOK()
	if !ok {
		_, _ = s.client.Delete(ctx, fullKey)
		return nil, fmt.Errorf("cache entry %s has no creation time", key)
	}

	if decode == nil {
		return nil, fmt.Errorf("decoder is required for key %s", key)
	}
	value, err := decode(raw)
	if err != nil {
		_, _ = s.client.Delete(ctx, fullKey)
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}

	return &Entry{Value: value, CreatedAt: createdAt}, nil
}

// Set encodes and stores the entry. The cache expires it after ttl on its own.
func (s *CacheStore) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	data, err := bson.Marshal(storedEntry{V: entry.Value, CreatedAt: entry.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	sealed, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt cache entry: %w", err)
	}

	return s.client.Set(ctx, s.fullKey(key), []byte(sealed), ttl)
}

// Reset deletes every entry under the store prefix.
func (s *CacheStore) Reset(ctx context.Context) error {
	if _, err := s.client.DeletePattern(ctx, s.prefix+":*"); err != nil {
		return fmt.Errorf("failed to reset cache: %w", err)
	}
	return nil
}

func (s *CacheStore) fullKey(key string) string {
	return s.prefix + ":" + key
}
