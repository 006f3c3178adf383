package worldstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/storylet/internal/ir"
)

const (
	defaultKeyPrefix  = "storylet:world:"
	defaultMaxRetries = 3
)

var (
	// ErrVersionConflict is returned when a world changed underneath a
	// write and the write could not be retried.
	ErrVersionConflict = errors.New("world version conflict")

	// ErrWorldNameEmpty is returned for an empty world name.
	ErrWorldNameEmpty = errors.New("world name cannot be empty")
)

// Config contains configuration for the Redis world store.
type Config struct {
	Client redis.UniversalClient

	// KeyPrefix namespaces world keys. Default: "storylet:world:"
	KeyPrefix string

	// MaxRetries bounds Update attempts after a conflicting write. Default: 3
	MaxRetries int
}

// Validate validates the Config.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("worldstate: config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.New("worldstate: client cannot be nil")
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("worldstate: max retries must be >= 0, got %d", cfg.MaxRetries)
	}
	return nil
}

// Snapshot is a world's values at one version. Version 0 means the world
// has never been written.
type Snapshot struct {
	World   ir.WorldState
	Version int64
}

// Store is a Redis-backed world overlay.
type Store struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
}

// NewRedis creates a new Redis-backed world store.
func NewRedis(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Store{client: cfg.Client, prefix: cfg.KeyPrefix, maxRetries: cfg.MaxRetries}
	if s.prefix == "" {
		s.prefix = defaultKeyPrefix
	}
	if s.maxRetries == 0 {
		s.maxRetries = defaultMaxRetries
	}
	return s, nil
}

func (s *Store) valuesKey(world string) string  { return s.prefix + world }
func (s *Store) versionKey(world string) string { return s.prefix + world + ":version" }

// Get returns the current world. A world that was never written is empty
// at version 0.
func (s *Store) Get(ctx context.Context, world string) (Snapshot, error) {
	if world == "" {
		return Snapshot{}, ErrWorldNameEmpty
	}
	snap, err := read(ctx, s.client, s.valuesKey(world), s.versionKey(world))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get world %s: %w", world, err)
	}
	return snap, nil
}

// Update applies fn to the current values and writes the result as the
// next version. If another writer commits first, fn is re-run on the new
// values, up to MaxRetries times; after that ErrVersionConflict is
// returned. An error from fn aborts the update unchanged.
func (s *Store) Update(ctx context.Context, world string, fn func(ir.WorldState) error) (Snapshot, error) {
	if world == "" {
		return Snapshot{}, ErrWorldNameEmpty
	}
	vals, ver := s.valuesKey(world), s.versionKey(world)

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		var out Snapshot
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			snap, err := read(ctx, tx, vals, ver)
			if err != nil {
				return err
			}
			if err := fn(snap.World); err != nil {
				return err
			}
			out, err = write(ctx, tx, vals, ver, snap)
			return err
		}, vals, ver)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to update world %s: %w", world, err)
		}
		return out, nil
	}
	return Snapshot{}, fmt.Errorf("update world %s: %w", world, ErrVersionConflict)
}

// Set replaces the world's values if its version still equals
// expectedVersion. Returns ErrVersionConflict otherwise.
func (s *Store) Set(ctx context.Context, world string, expectedVersion int64, values ir.WorldState) (Snapshot, error) {
	if world == "" {
		return Snapshot{}, ErrWorldNameEmpty
	}
	vals, ver := s.valuesKey(world), s.versionKey(world)

	var out Snapshot
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readVersion(ctx, tx, ver)
		if err != nil {
			return err
		}
		if cur != expectedVersion {
			return ErrVersionConflict
		}
		out, err = write(ctx, tx, vals, ver, Snapshot{World: values.Clone(), Version: cur})
		return err
	}, vals, ver)

	if errors.Is(err, redis.TxFailedErr) {
		err = ErrVersionConflict
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("set world %s: %w", world, err)
	}
	return out, nil
}

// cmdable is the read surface shared by the client and a WATCH transaction.
type cmdable interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

func read(ctx context.Context, c cmdable, valuesKey, versionKey string) (Snapshot, error) {
	values, err := c.HGetAll(ctx, valuesKey).Result()
	if err != nil {
		return Snapshot{}, err
	}
	version, err := readVersion(ctx, c, versionKey)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{World: ir.WorldState(values).Clone(), Version: version}, nil
}

func readVersion(ctx context.Context, c cmdable, key string) (int64, error) {
	v, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// write replaces the hash and bumps the version inside MULTI/EXEC.
func write(ctx context.Context, tx *redis.Tx, valuesKey, versionKey string, snap Snapshot) (Snapshot, error) {
	var incr *redis.IntCmd
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, valuesKey)
		if len(snap.World) > 0 {
			args := make([]any, 0, len(snap.World)*2)
			for k, v := range snap.World {
				args = append(args, k, v)
			}
			pipe.HSet(ctx, valuesKey, args...)
		}
		incr = pipe.Incr(ctx, versionKey)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{World: snap.World, Version: incr.Val()}, nil
}
