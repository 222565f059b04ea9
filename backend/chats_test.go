package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malv/aichat/graphql"
)

// fakeBackend serves GraphQL over HTTP, dispatching on operation name and
// recording the order of operations it saw.
type fakeBackend struct {
	server *httptest.Server

	mu         sync.Mutex
	operations []string
	handlers   map[string]func(variables map[string]any) (any, *graphql.Errors)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fake := &fakeBackend{handlers: map[string]func(map[string]any) (any, *graphql.Errors){}}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request := graphql.Request{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		fake.mu.Lock()
		fake.operations = append(fake.operations, request.OperationName)
		handler := fake.handlers[request.OperationName]
		fake.mu.Unlock()
		require.NotNil(t, handler, "no handler for operation %q", request.OperationName)

		data, gqlErrors := handler(request.Variables)
		response := map[string]any{"data": data}
		if gqlErrors != nil {
			response["errors"] = gqlErrors
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeBackend) handle(operation string, handler func(map[string]any) (any, *graphql.Errors)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[operation] = handler
}

func (f *fakeBackend) seenOperations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.operations...)
}

func (f *fakeBackend) client() *Client {
	gql := graphql.NewClient(graphql.Config{
		HTTPURL: f.server.URL,
		Timeout: 5 * time.Second,
	}, func() string { return "test-token" })
	return NewClient(gql)
}

func TestGetChatsDecodesNewestFirst(t *testing.T) {
	fake := newFakeBackend(t)
	fake.handle("GetChats", func(map[string]any) (any, *graphql.Errors) {
		return map[string]any{"chats": []map[string]any{
			{
				"id":         "c2",
				"title":      "Later",
				"created_at": "2024-05-02T10:00:00+00:00",
				"messages": []map[string]any{
					{"content": "latest reply", "role": "assistant"},
				},
			},
			{
				"id":         "c1",
				"title":      "Earlier",
				"created_at": "2024-05-01T10:00:00+00:00",
				"messages":   []map[string]any{},
			},
		}}, nil
	})

	chats, err := fake.client().GetChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "c2", chats[0].ID)
	assert.True(t, chats[0].CreatedAt.After(chats[1].CreatedAt))

	preview, ok := chats[0].Preview()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, preview.Role)
	assert.Equal(t, "latest reply", preview.Content)
	_, ok = chats[1].Preview()
	assert.False(t, ok)
}

func TestCreateChatRefetchesList(t *testing.T) {
	fake := newFakeBackend(t)
	fake.handle("CreateChat", func(variables map[string]any) (any, *graphql.Errors) {
		assert.Equal(t, "New chat", variables["title"])
		return map[string]any{"insert_chats_one": map[string]any{
			"id":         "c9",
			"title":      "New chat",
			"created_at": "2024-05-03T10:00:00+00:00",
		}}, nil
	})
	fake.handle("GetChats", func(map[string]any) (any, *graphql.Errors) {
		return map[string]any{"chats": []map[string]any{
			{"id": "c9", "title": "New chat", "created_at": "2024-05-03T10:00:00+00:00"},
		}}, nil
	})

	chat, chats, err := fake.client().CreateChat(context.Background(), "New chat")
	require.NoError(t, err)
	assert.Equal(t, "c9", chat.ID)
	require.Len(t, chats, 1)
	assert.Equal(t, []string{"CreateChat", "GetChats"}, fake.seenOperations())
}

func TestDeleteChatMissingRow(t *testing.T) {
	fake := newFakeBackend(t)
	fake.handle("DeleteChat", func(map[string]any) (any, *graphql.Errors) {
		return map[string]any{"delete_chats_by_pk": nil}, nil
	})

	_, err := fake.client().DeleteChat(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	// No refetch after a failed delete.
	assert.Equal(t, []string{"DeleteChat"}, fake.seenOperations())
}

func TestRenameChat(t *testing.T) {
	fake := newFakeBackend(t)
	fake.handle("RenameChat", func(variables map[string]any) (any, *graphql.Errors) {
		assert.Equal(t, "c1", variables["id"])
		assert.Equal(t, "Renamed", variables["title"])
		return map[string]any{"update_chats_by_pk": map[string]any{
			"id":         "c1",
			"title":      "Renamed",
			"created_at": "2024-05-01T10:00:00+00:00",
		}}, nil
	})

	chat, err := fake.client().RenameChat(context.Background(), "c1", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", chat.Title)
}

func TestGetChatsSurfacesPermissionError(t *testing.T) {
	fake := newFakeBackend(t)
	fake.handle("GetChats", func(map[string]any) (any, *graphql.Errors) {
		return nil, &graphql.Errors{{Message: "field 'chats' not found in type: 'query_root'"}}
	})

	_, err := fake.client().GetChats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in type")
}
