package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/auth/redisstore"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redisstore.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, redisstore.New(client)
}

func TestStore_RoundTrip(t *testing.T) {
	mr, store := setup(t)
	ctx := context.Background()

	session := &auth.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		Role:      auth.RoleOperator,
		Email:     "ops@fleet.example",
		IssuedAt:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(ctx, session, 12*time.Hour))
	assert.True(t, mr.Exists("session:"+session.ID.String()))
	assert.Equal(t, 12*time.Hour, mr.TTL("session:"+session.ID.String()))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, store.Delete(ctx, session.ID))

	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestStore_Expiry(t *testing.T) {
	mr, store := setup(t)
	ctx := context.Background()

	session := &auth.Session{ID: uuid.New(), UserID: uuid.New()}
	require.NoError(t, store.Save(ctx, session, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}
