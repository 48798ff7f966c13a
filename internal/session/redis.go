package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
)

// RedisStore keeps sessions in Redis with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore builds a Redis backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("eyeclinic.internal.session")
	}
	return &RedisStore{redis: client, ttl: ttl, tracer: tracer}
}

func stateKey(id string) string {
	return fmt.Sprintf("booking:state:%s", id)
}

func confirmationKey(id string) string {
	return fmt.Sprintf("booking:confirmation:%s", id)
}

func (s *RedisStore) LoadState(ctx context.Context, id string) (*booking.State, error) {
	ctx, span := s.tracer.Start(ctx, "session.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load state: %w", err)
	}
	var state booking.State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode state: %w", err)
	}
	state.Normalize()
	return &state, nil
}

func (s *RedisStore) SaveState(ctx context.Context, id string, state *booking.State) error {
	ctx, span := s.tracer.Start(ctx, "session.save_state")
	defer span.End()

	key := stateKey(id)
	var next int64
	txf := func(tx *redis.Tx) error {
		current, err := storedRevision(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != state.Revision {
			return ErrConflict
		}
		next = current + 1
		out := state.Clone()
		out.Revision = next
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("session: failed to marshal state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	err := s.redis.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrConflict
	}
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			span.RecordError(err)
			return fmt.Errorf("session: failed to persist state: %w", err)
		}
		return err
	}
	state.Revision = next
	return nil
}

func storedRevision(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session: failed to read revision: %w", err)
	}
	var head struct {
		Revision int64 `json:"revision"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("session: failed to decode revision: %w", err)
	}
	return head.Revision, nil
}

func (s *RedisStore) PutConfirmation(ctx context.Context, id string, conf *booking.Confirmation) error {
	ctx, span := s.tracer.Start(ctx, "session.put_confirmation")
	defer span.End()

	data, err := json.Marshal(conf)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal confirmation: %w", err)
	}
	if err := s.redis.Set(ctx, confirmationKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist confirmation: %w", err)
	}
	return nil
}

func (s *RedisStore) GetConfirmation(ctx context.Context, id string) (*booking.Confirmation, error) {
	ctx, span := s.tracer.Start(ctx, "session.get_confirmation")
	defer span.End()

	data, err := s.redis.Get(ctx, confirmationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load confirmation: %w", err)
	}
	var conf booking.Confirmation
	if err := json.Unmarshal(data, &conf); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode confirmation: %w", err)
	}
	return &conf, nil
}
