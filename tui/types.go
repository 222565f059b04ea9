package tui

import (
	"github.com/malv/aichat/backend"
)

// chatFeedStartedMsg carries the opened chat list feed.
type chatFeedStartedMsg struct {
	feed *backend.ChatFeed
}

// chatsUpdatedMsg carries a fresh chat list snapshot, from the initial fetch,
// a mutation refetch, or the live feed.
type chatsUpdatedMsg struct {
	chats []backend.Chat
}

// chatOpenedMsg carries the initial messages and live feed of a chat the user
// just opened.
type chatOpenedMsg struct {
	chatID   string
	messages []backend.Message
	feed     *backend.MessageFeed
}

// messagesUpdatedMsg carries a message snapshot from the live feed.
type messagesUpdatedMsg struct {
	chatID   string
	messages []backend.Message
}

// chatCreatedMsg is sent after a chat is created and the list refetched.
type chatCreatedMsg struct {
	chat  *backend.Chat
	chats []backend.Chat
}

// chatDeletedMsg is sent after a chat is deleted and the list refetched.
type chatDeletedMsg struct {
	chatID string
	chats  []backend.Chat
}

// chatRenamedMsg is sent after a rename commits.
type chatRenamedMsg struct {
	chat *backend.Chat
}

// sendDoneMsg reports the outcome of a send. The draft is restored to the
// input on failure.
type sendDoneMsg struct {
	draft string
	err   error
}

// typingDoneMsg clears the typing indicator.
type typingDoneMsg struct{}

// signedOutMsg reports the outcome of a sign-out. Success quits the screen.
type signedOutMsg struct {
	err error
}

// feedErrorMsg carries an asynchronous backend or feed error for display.
type feedErrorMsg struct {
	err error
}
