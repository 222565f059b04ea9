package backend

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/malv/aichat/graphql"
	"github.com/malv/aichat/internal/debug"
)

// GetChats fetches the user's chats, newest first, each with a one-message
// preview. Row-level permissions on the backend scope the result to the
// caller's own chats.
func (c *Client) GetChats(ctx context.Context) ([]Chat, error) {
	response := struct {
		Chats []Chat `json:"chats"`
	}{}
	request := graphql.Request{Query: getChatsQuery, OperationName: "GetChats"}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, errors.Wrap(err, "fetching chats")
	}
	return response.Chats, nil
}

// CreateChat inserts a new chat and refetches the list so the caller sees the
// insert even before the live feed catches up. The created chat carries no
// preview yet.
func (c *Client) CreateChat(ctx context.Context, title string) (*Chat, []Chat, error) {
	response := struct {
		Chat *Chat `json:"insert_chats_one"`
	}{}
	request := graphql.Request{
		Query:         createChatMutation,
		OperationName: "CreateChat",
		Variables:     map[string]any{"title": title},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, nil, errors.Wrap(err, "creating chat")
	}
	if response.Chat == nil {
		return nil, nil, errors.New("backend returned no chat")
	}
	chats, err := c.GetChats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return response.Chat, chats, nil
}

// DeleteChat removes a chat and its messages, then refetches the list.
func (c *Client) DeleteChat(ctx context.Context, id string) ([]Chat, error) {
	response := struct {
		Deleted *struct {
			ID string `json:"id"`
		} `json:"delete_chats_by_pk"`
	}{}
	request := graphql.Request{
		Query:         deleteChatMutation,
		OperationName: "DeleteChat",
		Variables:     map[string]any{"id": id},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, errors.Wrap(err, "deleting chat")
	}
	if response.Deleted == nil {
		return nil, errors.Errorf("chat %s not found", id)
	}
	return c.GetChats(ctx)
}

// RenameChat updates a chat's title.
func (c *Client) RenameChat(ctx context.Context, id, title string) (*Chat, error) {
	response := struct {
		Chat *Chat `json:"update_chats_by_pk"`
	}{}
	request := graphql.Request{
		Query:         renameChatMutation,
		OperationName: "RenameChat",
		Variables:     map[string]any{"id": id, "title": title},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, errors.Wrap(err, "renaming chat")
	}
	if response.Chat == nil {
		return nil, errors.Errorf("chat %s not found", id)
	}
	return response.Chat, nil
}

// ChatFeed is a live view of the chat list. Each update is a full snapshot in
// newest-first order, so a dropped intermediate update never leaves the
// consumer behind.
type ChatFeed struct {
	sub     *graphql.Subscription
	updates chan []Chat
	errs    chan error
}

// SubscribeChats opens a live chat list feed.
func (c *Client) SubscribeChats(ctx context.Context) (*ChatFeed, error) {
	request := graphql.Request{Query: chatsSubscription, OperationName: "ChatsSubscription"}
	sub, err := c.gql.Subscribe(ctx, request)
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to chats")
	}
	feed := &ChatFeed{
		sub:     sub,
		updates: make(chan []Chat, 4),
		errs:    make(chan error, 1),
	}
	go feed.run()
	return feed, nil
}

func (f *ChatFeed) run() {
	defer close(f.updates)
	for {
		select {
		case payload, ok := <-f.sub.Updates():
			if !ok {
				return
			}
			response := struct {
				Chats []Chat `json:"chats"`
			}{}
			if err := json.Unmarshal(payload, &response); err != nil {
				debug.GetLogger().Error("decoding chats update", "error", err)
				continue
			}
			f.updates <- response.Chats
		case err, ok := <-f.sub.Err():
			if !ok {
				return
			}
			select {
			case f.errs <- err:
			default:
			}
		}
	}
}

// Updates streams chat list snapshots. The channel closes when the feed ends.
func (f *ChatFeed) Updates() <-chan []Chat { return f.updates }

// Err surfaces terminal feed errors.
func (f *ChatFeed) Err() <-chan error { return f.errs }

// Close tears down the underlying subscription.
func (f *ChatFeed) Close() { f.sub.Close() }
