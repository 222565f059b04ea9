package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": {"chats": []}}`))
	}))
	defer server.Close()

	client := NewClient(Config{HTTPURL: server.URL}, func() string { return "token-123" })
	out := struct {
		Chats []json.RawMessage `json:"chats"`
	}{}
	err := client.Do(context.Background(), Request{Query: "query GetChats { chats { id } }"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuthorization)
}

func TestDoOmitsHeaderWithoutSession(t *testing.T) {
	var gotAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	client := NewClient(Config{HTTPURL: server.URL}, func() string { return "" })
	err := client.Do(context.Background(), Request{Query: "{ chats { id } }"}, nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuthorization)
}

func TestDoDecodesData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request := Request{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "GetChats", request.OperationName)
		w.Write([]byte(`{"data": {"chats": [{"id": "c1", "title": "New Chat"}]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{HTTPURL: server.URL}, func() string { return "" })
	out := struct {
		Chats []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"chats"`
	}{}
	err := client.Do(context.Background(), Request{
		Query:         "query GetChats { chats { id title } }",
		OperationName: "GetChats",
	}, &out)
	require.NoError(t, err)
	require.Len(t, out.Chats, 1)
	assert.Equal(t, "c1", out.Chats[0].ID)
}

func TestDoSurfacesGraphqlErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "field not found"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{HTTPURL: server.URL}, func() string { return "" })
	err := client.Do(context.Background(), Request{Query: "query Bad { nope }"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field not found")

	var gqlErrors Errors
	require.ErrorAs(t, err, &gqlErrors)
}

func TestDoRejectsSubscriptions(t *testing.T) {
	client := NewClient(Config{HTTPURL: "http://unused"}, func() string { return "" })
	err := client.Do(context.Background(), Request{Query: "subscription S { chats { id } }"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Subscribe")
}
