package backend

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/malv/aichat/graphql"
	"github.com/malv/aichat/internal/debug"
)

// GetMessages fetches a chat's messages in chronological order.
func (c *Client) GetMessages(ctx context.Context, chatID string) ([]Message, error) {
	if chatID == "" {
		return nil, errors.New("no chat selected")
	}
	response := struct {
		Messages []Message `json:"messages"`
	}{}
	request := graphql.Request{
		Query:         getMessagesQuery,
		OperationName: "GetMessages",
		Variables:     map[string]any{"chatId": chatID},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, errors.Wrap(err, "fetching messages")
	}
	return response.Messages, nil
}

// InsertMessage writes a message row directly. Sending a user turn goes
// through SendMessage, which also triggers the assistant.
func (c *Client) InsertMessage(ctx context.Context, chatID, content string, role Role) (*Message, error) {
	response := struct {
		Message *Message `json:"insert_messages_one"`
	}{}
	request := graphql.Request{
		Query:         insertMessageMutation,
		OperationName: "InsertMessage",
		Variables:     map[string]any{"chatId": chatID, "content": content, "role": string(role)},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, err
	}
	if response.Message == nil {
		return nil, errors.New("backend returned no message")
	}
	return response.Message, nil
}

// AssistantReply identifies the assistant message produced by a send.
type AssistantReply struct {
	MessageID string `json:"assistant_message_id"`
	Content   string `json:"assistant_content"`
}

// SendMessage records the user's turn and invokes the assistant action. The
// two steps are not atomic: when the insert fails the action never runs, and
// when the action fails the user message is already persisted. Both outcomes
// are distinguishable through the wrapped error.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*AssistantReply, error) {
	if chatID == "" {
		return nil, errors.New("no chat selected")
	}
	if _, err := c.InsertMessage(ctx, chatID, content, RoleUser); err != nil {
		return nil, errors.Wrap(err, "inserting user message")
	}

	response := struct {
		Reply *AssistantReply `json:"sendMessage"`
	}{}
	request := graphql.Request{
		Query:         sendMessageAction,
		OperationName: "SendMessage",
		Variables:     map[string]any{"chat_id": chatID, "content": content},
	}
	if err := c.gql.Do(ctx, request, &response); err != nil {
		return nil, errors.Wrap(err, "invoking assistant")
	}
	if response.Reply == nil {
		return nil, errors.New("assistant returned no reply")
	}
	return response.Reply, nil
}

// MessageFeed is a live view of one chat's messages. Each update is a full
// chronological snapshot.
type MessageFeed struct {
	chatID  string
	sub     *graphql.Subscription
	updates chan []Message
	errs    chan error
}

// SubscribeMessages opens a live message feed for one chat.
func (c *Client) SubscribeMessages(ctx context.Context, chatID string) (*MessageFeed, error) {
	if chatID == "" {
		return nil, errors.New("no chat selected")
	}
	request := graphql.Request{
		Query:         messagesSubscription,
		OperationName: "MessagesSubscription",
		Variables:     map[string]any{"chatId": chatID},
	}
	sub, err := c.gql.Subscribe(ctx, request)
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to messages")
	}
	feed := &MessageFeed{
		chatID:  chatID,
		sub:     sub,
		updates: make(chan []Message, 4),
		errs:    make(chan error, 1),
	}
	go feed.run()
	return feed, nil
}

func (f *MessageFeed) run() {
	defer close(f.updates)
	for {
		select {
		case payload, ok := <-f.sub.Updates():
			if !ok {
				return
			}
			response := struct {
				Messages []Message `json:"messages"`
			}{}
			if err := json.Unmarshal(payload, &response); err != nil {
				debug.GetLogger().Error("decoding messages update", "error", err, "chat_id", f.chatID)
				continue
			}
			f.updates <- response.Messages
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

// ChatID returns the chat this feed tracks.
func (f *MessageFeed) ChatID() string { return f.chatID }

// Updates streams message snapshots. The channel closes when the feed ends.
func (f *MessageFeed) Updates() <-chan []Message { return f.updates }

// Err surfaces terminal feed errors.
func (f *MessageFeed) Err() <-chan error { return f.errs }

// Close tears down the underlying subscription.
func (f *MessageFeed) Close() { f.sub.Close() }
