// Package backend binds the client to the hosted GraphQL chat API: typed
// records, queries and mutations over HTTP, live feeds over the subscription
// socket. The AI assistant runs behind the backend's sendMessage action; this
// package never writes assistant content itself.
package backend

import (
	"github.com/malv/aichat/graphql"
)

// The GraphQL documents consumed from the backend. The chats documents carry
// a one-message preview; messages are ordered ascending for display.
const (
	getChatsQuery = `
query GetChats {
  chats(order_by: { created_at: desc }) {
    id
    title
    created_at
    messages(limit: 1, order_by: { created_at: desc }) {
      content
      role
    }
  }
}`

	chatsSubscription = `
subscription ChatsSubscription {
  chats(order_by: { created_at: desc }) {
    id
    title
    created_at
    messages(limit: 1, order_by: { created_at: desc }) {
      content
      role
    }
  }
}`

	createChatMutation = `
mutation CreateChat($title: String!) {
  insert_chats_one(object: { title: $title }) {
    id
    title
    created_at
  }
}`

	deleteChatMutation = `
mutation DeleteChat($id: uuid!) {
  delete_chats_by_pk(id: $id) {
    id
  }
}`

	renameChatMutation = `
mutation RenameChat($id: uuid!, $title: String!) {
  update_chats_by_pk(pk_columns: { id: $id }, _set: { title: $title }) {
    id
    title
    created_at
  }
}`

	getMessagesQuery = `
query GetMessages($chatId: uuid!) {
  messages(where: { chat_id: { _eq: $chatId } }, order_by: { created_at: asc }) {
    id
    content
    role
    created_at
    user_id
  }
}`

	messagesSubscription = `
subscription MessagesSubscription($chatId: uuid!) {
  messages(where: { chat_id: { _eq: $chatId } }, order_by: { created_at: asc }) {
    id
    content
    role
    created_at
    user_id
  }
}`

	insertMessageMutation = `
mutation InsertMessage($chatId: uuid!, $content: String!, $role: String!) {
  insert_messages_one(object: { chat_id: $chatId, content: $content, role: $role }) {
    id
    content
    role
    created_at
  }
}`

	sendMessageAction = `
mutation SendMessage($chat_id: uuid!, $content: String!) {
  sendMessage(chat_id: $chat_id, content: $content) {
    assistant_message_id
    assistant_content
  }
}`
)

// Client executes chat operations against the backend.
type Client struct {
	gql *graphql.Client
}

// NewClient wraps a GraphQL client.
func NewClient(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

// Connected reports whether the live subscription socket is up.
func (c *Client) Connected() bool {
	return c.gql.Connected()
}
