package budgets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Flags are the threshold flags of one budget at the last computation.
type Flags struct {
	Approaching bool `json:"approaching"`
	Exceeded    bool `json:"exceeded"`
}

// Baseline maps a budget key to its last flags.
type Baseline map[string]Flags

// BaselineStore keeps the previous computation per user. Load reports found=false
// when the user has never been computed.
type BaselineStore interface {
	Load(ctx context.Context, userID string) (Baseline, bool, error)
	Save(ctx context.Context, userID string, b Baseline) error
}

// MemoryBaselineStore keeps baselines in process memory; they reset on restart.
type MemoryBaselineStore struct {
	mu   sync.RWMutex
	data map[string]Baseline
}

// NewMemoryBaselineStore creates an empty in-memory store
func NewMemoryBaselineStore() *MemoryBaselineStore {
	return &MemoryBaselineStore{data: make(map[string]Baseline)}
}

// Load returns a copy of the user's baseline
func (s *MemoryBaselineStore) Load(_ context.Context, userID string) (Baseline, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[userID]
	if !ok {
		return nil, false, nil
	}
	out := make(Baseline, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out, true, nil
}

// Save replaces the user's baseline
func (s *MemoryBaselineStore) Save(_ context.Context, userID string, b Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(Baseline, len(b))
	for k, v := range b {
		cp[k] = v
	}
	s.data[userID] = cp
	return nil
}

// BaselineUpdater is implemented by stores that can apply a load-compare-save
// cycle atomically across processes.
type BaselineUpdater interface {
	Update(ctx context.Context, userID string, fn func(prev Baseline, found bool) Baseline) error
}

// redisKV is the subset of the go-redis client the store uses.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// redisWatcher runs optimistic WATCH/MULTI transactions.
type redisWatcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

const maxBaselineRetries = 5

// RedisBaselineStore keeps baselines in Redis as JSON so they survive restarts
// and are shared between instances.
type RedisBaselineStore struct {
	client  redisKV
	watcher redisWatcher
	prefix  string
	ttl     time.Duration
}

// NewRedisBaselineStore creates a store backed by the Redis server at addr
func NewRedisBaselineStore(addr string) *RedisBaselineStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	s := newRedisBaselineStore(rdb)
	s.watcher = rdb
	return s
}

func newRedisBaselineStore(client redisKV) *RedisBaselineStore {
	return &RedisBaselineStore{
		client: client,
		prefix: "finmate:budget_baseline:",
		ttl:    90 * 24 * time.Hour,
	}
}

// Load reads the user's baseline
func (s *RedisBaselineStore) Load(ctx context.Context, userID string) (Baseline, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load budget baseline: %w", err)
	}

	b, err := decodeBaseline(val)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func decodeBaseline(val string) (Baseline, error) {
	var b Baseline
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return nil, fmt.Errorf("failed to decode budget baseline: %w", err)
	}
	if b == nil {
		b = Baseline{}
	}
	return b, nil
}

// Save writes the user's baseline
func (s *RedisBaselineStore) Save(ctx context.Context, userID string, b Baseline) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode budget baseline: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+userID, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save budget baseline: %w", err)
	}
	return nil
}

// Update applies fn to the stored baseline under WATCH, so two instances never
// both act on the same previous baseline. fn may run more than once when another
// writer wins the race. Without a watcher it degrades to Load then Save.
func (s *RedisBaselineStore) Update(ctx context.Context, userID string, fn func(prev Baseline, found bool) Baseline) error {
	if s.watcher == nil {
		prev, found, err := s.Load(ctx, userID)
		if err != nil {
			return err
		}
		return s.Save(ctx, userID, fn(prev, found))
	}

	key := s.prefix + userID
	txf := func(tx *redis.Tx) error {
		var (
			prev  Baseline
			found bool
		)
		val, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("failed to load budget baseline: %w", err)
		default:
			if prev, err = decodeBaseline(val); err != nil {
				return err
			}
			found = true
		}

		data, err := json.Marshal(fn(prev, found))
		if err != nil {
			return fmt.Errorf("failed to encode budget baseline: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxBaselineRetries; i++ {
		err := s.watcher.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to update budget baseline: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to update budget baseline: %w", redis.TxFailedErr)
}
