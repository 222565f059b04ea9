package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malv/aichat/backend"
)

func newTestCache(t *testing.T) *Cache {
	cache, err := New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestReplaceChatsSwapsSnapshot(t *testing.T) {
	cache := newTestCache(t)
	older := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, cache.ReplaceChats([]backend.Chat{
		{ID: "c1", Title: "First", CreatedAt: older},
	}))
	require.NoError(t, cache.ReplaceChats([]backend.Chat{
		{ID: "c2", Title: "Second", CreatedAt: newer, Messages: []backend.MessagePreview{
			{Content: "hello", Role: backend.RoleAssistant},
		}},
		{ID: "c1", Title: "First", CreatedAt: older},
	}))

	chats, err := cache.ListChats()
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "c2", chats[0].ID)
	assert.Equal(t, newer, chats[0].CreatedAt)
	preview, ok := chats[0].Preview()
	require.True(t, ok)
	assert.Equal(t, "hello", preview.Content)
}

func TestReplaceMessagesIsScopedToChat(t *testing.T) {
	cache := newTestCache(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, cache.ReplaceMessages("c1", []backend.Message{
		{ID: "m1", Content: "hi", Role: backend.RoleUser, CreatedAt: at, UserID: "u1"},
		{ID: "m2", Content: "hello", Role: backend.RoleAssistant, CreatedAt: at.Add(time.Second), UserID: "u1"},
	}))
	require.NoError(t, cache.ReplaceMessages("c2", []backend.Message{
		{ID: "m3", Content: "other", Role: backend.RoleUser, CreatedAt: at, UserID: "u1"},
	}))

	// Replacing c1 leaves c2 untouched.
	require.NoError(t, cache.ReplaceMessages("c1", []backend.Message{
		{ID: "m2", Content: "hello", Role: backend.RoleAssistant, CreatedAt: at.Add(time.Second), UserID: "u1"},
	}))

	messages, err := cache.ListMessages("c1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "m2", messages[0].ID)

	other, err := cache.ListMessages("c2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "m3", other[0].ID)
}

func TestListMessagesChronological(t *testing.T) {
	cache := newTestCache(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, cache.ReplaceMessages("c1", []backend.Message{
		{ID: "m2", Content: "second", Role: backend.RoleAssistant, CreatedAt: at.Add(time.Minute), UserID: "u1"},
		{ID: "m1", Content: "first", Role: backend.RoleUser, CreatedAt: at, UserID: "u1"},
	}))

	messages, err := cache.ListMessages("c1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestEmptyCache(t *testing.T) {
	cache := newTestCache(t)
	chats, err := cache.ListChats()
	require.NoError(t, err)
	assert.Empty(t, chats)
	messages, err := cache.ListMessages("nope")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
