package savestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps slots as Redis strings under prefix + SlotName(slot).
// The set prefix + "slots" indexes the occupied slot numbers.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection.
//
// Precondition: addr is host:port; logger must be non-nil.
// Postcondition: Returns a connected store or a non-nil error.
func NewRedisStore(ctx context.Context, addr, prefix string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	logger.Info("connected to redis save store", zap.String("addr", addr), zap.String("prefix", prefix))
	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

// Close releases the connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) key(slot int) string { return s.prefix + SlotName(slot) }

func (s *RedisStore) indexKey() string { return s.prefix + "slots" }

// Write stores data and indexes the slot in one transaction.
func (s *RedisStore) Write(ctx context.Context, slot int, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(slot), data, 0)
		p.SAdd(ctx, s.indexKey(), slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write slot %d: %w", slot, err)
	}
	s.logger.Debug("save slot written", zap.Int("slot", slot), zap.Int("bytes", len(data)))
	return nil
}

// Read returns the stored data.
func (s *RedisStore) Read(ctx context.Context, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis read slot %d: %w", slot, err)
	}
	return data, nil
}

// Delete removes the slot and its index entry.
func (s *RedisStore) Delete(ctx context.Context, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.key(slot))
		p.SRem(ctx, s.indexKey(), slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete slot %d: %w", slot, err)
	}
	if del.Val() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Slots returns the indexed slot numbers in ascending order.
func (s *RedisStore) Slots(ctx context.Context) ([]int, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list slots: %w", err)
	}
	out := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			s.logger.Warn("ignoring malformed slot index entry", zap.String("entry", m))
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
