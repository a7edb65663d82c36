// Package clientdata provides persistent caching for external API client responses.
// Entries carry an expiration timestamp for cache-first reads; expired entries stay
// readable through Get so callers can fall back to stale data when the API fails.
package clientdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Namespaces stored in market_cache.
const (
	NamespaceQuote    = "quote"
	NamespaceDaily    = "daily"
	NamespaceNews     = "news"
	NamespaceSearch   = "search"
	NamespaceOverview = "overview"
)

// AllNamespaces lists every namespace for cleanup and validation.
var AllNamespaces = []string{
	NamespaceQuote,
	NamespaceDaily,
	NamespaceNews,
	NamespaceSearch,
	NamespaceOverview,
}

var validNamespaces = func() map[string]bool {
	m := make(map[string]bool, len(AllNamespaces))
	for _, ns := range AllNamespaces {
		m[ns] = true
	}
	return m
}()

// Repository provides cache operations over the market_cache table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func validateNamespace(namespace string) error {
	if !validNamespaces[namespace] {
		return fmt.Errorf("invalid cache namespace: %s", namespace)
	}
	return nil
}

// Store saves a raw payload with expiration = now + ttl.
func (r *Repository) Store(namespace, key string, data []byte, ttl time.Duration) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	now := r.now()
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO market_cache (namespace, key, data, expires_at, stored_at)
		 VALUES (?, ?, ?, ?, ?)`,
		namespace, key, data, now.Add(ttl).Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", namespace, key, err)
	}
	return nil
}

// GetIfFresh returns data only if it has not expired.
// Returns nil, nil if the key doesn't exist or the data is expired.
func (r *Repository) GetIfFresh(namespace, key string) ([]byte, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.QueryRow(
		"SELECT data FROM market_cache WHERE namespace = ? AND key = ? AND expires_at > ?",
		namespace, key, r.now().Unix(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// Get returns data regardless of expiration. Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(namespace, key string) ([]byte, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.QueryRow(
		"SELECT data FROM market_cache WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// StoreValue msgpack-encodes v and stores it.
func (r *Repository) StoreValue(namespace, key string, v interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", namespace, key, err)
	}
	return r.Store(namespace, key, data, ttl)
}

// GetValue decodes a msgpack entry into out, ignoring expiry.
// found is false when nothing is stored; fresh reports whether the entry has not expired.
func (r *Repository) GetValue(namespace, key string, out interface{}) (found bool, fresh bool, err error) {
	if err := validateNamespace(namespace); err != nil {
		return false, false, err
	}

	var data []byte
	var expiresAt int64
	err = r.db.QueryRow(
		"SELECT data, expires_at FROM market_cache WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, false, fmt.Errorf("failed to decode %s/%s: %w", namespace, key, err)
	}
	return true, expiresAt > r.now().Unix(), nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(namespace, key string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	if _, err := r.db.Exec("DELETE FROM market_cache WHERE namespace = ? AND key = ?", namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// DeleteExpired removes entries of a namespace that expired more than grace ago.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(namespace string, grace time.Duration) (int64, error) {
	if err := validateNamespace(namespace); err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-grace).Unix()
	result, err := r.db.Exec("DELETE FROM market_cache WHERE namespace = ? AND expires_at < ?", namespace, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", namespace, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", namespace, err)
	}
	return deleted, nil
}

// DeleteAllExpired runs DeleteExpired for every namespace.
// Returns a map of namespace to number of rows deleted.
func (r *Repository) DeleteAllExpired(grace time.Duration) (map[string]int64, error) {
	results := make(map[string]int64)

	for _, ns := range AllNamespaces {
		deleted, err := r.DeleteExpired(ns, grace)
		if err != nil {
			return results, err
		}
		results[ns] = deleted
	}

	return results, nil
}
