package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edms/internal/shared/model"
)

var testUser = &model.PublicUser{
	UserID:    "alice",
	FirstName: "Alice",
	Email:     "alice@example.com",
	Role:      model.UserRoleContributor,
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// 未知会话返回 (nil, nil)
	user, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	id := NewID()
	require.NoError(t, store.Set(ctx, id, testUser))

	user, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.UserID)
	assert.Equal(t, model.UserRoleContributor, user.Role)

	require.NoError(t, store.Destroy(ctx, id))
	user, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, store.Close())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id := NewID()
	require.NoError(t, store.Set(ctx, id, testUser))

	// 手动回拨过期时间，模拟会话过期
	store.mu.Lock()
	entry := store.sessions[id]
	entry.expiresAt = entry.expiresAt.Add(-2 * TTL)
	store.sessions[id] = entry
	store.mu.Unlock()

	user, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	user, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	id := NewID()
	require.NoError(t, store.Set(ctx, id, testUser))

	// 键带前缀并设置了 TTL
	assert.True(t, mr.Exists(keyPrefix+id))
	assert.Equal(t, TTL, mr.TTL(keyPrefix+id))

	user, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, testUser.UserID, user.UserID)
	assert.Equal(t, testUser.Email, user.Email)

	require.NoError(t, store.Destroy(ctx, id))
	user, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	id := NewID()
	require.NoError(t, store.Set(ctx, id, testUser))

	mr.FastForward(TTL + 1)

	user, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user)
}
