package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) AccessSessionKey(accessID string) string { return "session:" + accessID }

func newTestManager() (*Manager, *memoryStore) {
	store := newMemoryStore()
	return &Manager{store: store, keyer: prefixKeyer{}, ttl: time.Hour}, store
}

func TestGenerateStoresToken(t *testing.T) {
	m, store := newTestManager()

	token, err := m.Generate(context.Background(), "access-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, token, store.values["session:access-1"])
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	m, store := newTestManager()

	token, err := m.Generate(context.Background(), "access-1")
	require.NoError(t, err)

	newID, newToken, err := m.Rotate(context.Background(), "access-1", token)
	require.NoError(t, err)
	assert.NotEmpty(t, newID)
	assert.NotEqual(t, token, newToken)

	_, stale := store.values["session:access-1"]
	assert.False(t, stale, "old session must be deleted")

	ok, err := m.HasSession(context.Background(), newID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateRejectsWrongToken(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Generate(context.Background(), "access-1")
	require.NoError(t, err)

	_, _, err = m.Rotate(context.Background(), "access-1", "forged")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateRejectsUnknownSession(t *testing.T) {
	m, _ := newTestManager()
	_, _, err := m.Rotate(context.Background(), "missing", "anything")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeDropsSession(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Generate(context.Background(), "access-1")
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), "access-1"))

	ok, err := m.HasSession(context.Background(), "access-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
