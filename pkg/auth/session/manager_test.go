package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/pkg/config"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memStore) GetDel(ctx context.Context, key string) (string, error) {
	v, err := m.Get(ctx, key)
	_ = m.Del(ctx, key)
	return v, err
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60 * 24 * 7})
	require.NoError(t, err)
	return m, store
}

func TestNewManagerRejectsShortRefreshTTL(t *testing.T) {
	_, err := NewManager(newMemStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)
	_, err = NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	token, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)
	stored := store.data["sess:jti-1"]
	assert.NotEqual(t, token, stored)
	assert.Equal(t, digest(token), stored)

	ok, err := m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	token, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)

	newID, newToken, err := m.Rotate(ctx, "jti-1", token)
	require.NoError(t, err)
	assert.NotEqual(t, "jti-1", newID)
	assert.Equal(t, digest(newToken), store.data["sess:"+newID])

	_, _, err = m.Rotate(ctx, "jti-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateWithWrongTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	token, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "jti-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, _, err = m.Rotate(ctx, "jti-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, "jti-1"))

	ok, err := m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, m.Revoke(ctx, " "))
}
