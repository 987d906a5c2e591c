package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
)

const keyPrefix = "session:"

// Store keeps sessions in Redis as JSON, expiring with the session TTL.
type Store struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (s *Store) Save(ctx context.Context, session *auth.Session, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := s.client.Set(ctx, key(session.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*auth.Session, error) {
	b, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrSessionExpired
		}

		return nil, fmt.Errorf("loading session: %w", err)
	}

	var session auth.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	return &session, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	return nil
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}

	return client, nil
}
