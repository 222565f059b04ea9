package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/malv/aichat/backend"
)

const typingIndicatorDuration = 2 * time.Second

func (m *Model) loadChats() tea.Cmd {
	return func() tea.Msg {
		chats, err := m.backend.GetChats(m.ctx)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatsUpdatedMsg{chats: chats}
	}
}

func (m *Model) watchChats() tea.Cmd {
	return func() tea.Msg {
		feed, err := m.backend.SubscribeChats(m.ctx)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatFeedStartedMsg{feed: feed}
	}
}

// forwardChatFeed pumps chat list snapshots from the feed into the program.
// Runs on its own goroutine; exits when the feed closes.
func (m *Model) forwardChatFeed(feed *backend.ChatFeed) {
	for {
		select {
		case chats, ok := <-feed.Updates():
			if !ok {
				return
			}
			if p := m.getProgram(); p != nil {
				p.Send(chatsUpdatedMsg{chats: chats})
			}
		case err := <-feed.Err():
			if p := m.getProgram(); p != nil {
				p.Send(feedErrorMsg{err: err})
			}
		}
	}
}

// openChat fetches a chat's messages and opens its live feed.
func (m *Model) openChat(chatID string) tea.Cmd {
	return func() tea.Msg {
		messages, err := m.backend.GetMessages(m.ctx, chatID)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		feed, err := m.backend.SubscribeMessages(m.ctx, chatID)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatOpenedMsg{chatID: chatID, messages: messages, feed: feed}
	}
}

// forwardMessageFeed pumps message snapshots from the feed into the program.
func (m *Model) forwardMessageFeed(feed *backend.MessageFeed) {
	for {
		select {
		case messages, ok := <-feed.Updates():
			if !ok {
				return
			}
			if p := m.getProgram(); p != nil {
				p.Send(messagesUpdatedMsg{chatID: feed.ChatID(), messages: messages})
			}
		case err := <-feed.Err():
			if p := m.getProgram(); p != nil {
				p.Send(feedErrorMsg{err: err})
			}
		}
	}
}

func (m *Model) createChat() tea.Cmd {
	const title = "New Chat"
	return func() tea.Msg {
		chat, chats, err := m.backend.CreateChat(m.ctx, title)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatCreatedMsg{chat: chat, chats: chats}
	}
}

func (m *Model) deleteChat(chatID string) tea.Cmd {
	return func() tea.Msg {
		chats, err := m.backend.DeleteChat(m.ctx, chatID)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatDeletedMsg{chatID: chatID, chats: chats}
	}
}

func (m *Model) renameChat(chatID, title string) tea.Cmd {
	return func() tea.Msg {
		chat, err := m.backend.RenameChat(m.ctx, chatID, title)
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return chatRenamedMsg{chat: chat}
	}
}

// sendMessage clears the input immediately and sends the draft in the
// background. On failure the caller restores the draft from sendDoneMsg.
func (m *Model) sendMessage() tea.Cmd {
	draft := strings.TrimSpace(m.textarea.Value())
	if draft == "" || m.activeChatID == "" || m.sending {
		return nil
	}

	m.history.Add(draft)
	m.historyNavigating = false
	m.textarea.Reset()
	m.adjustTextareaHeight()
	m.sending = true
	m.typing = true

	chatID := m.activeChatID
	return tea.Batch(
		func() tea.Msg {
			_, err := m.backend.SendMessage(m.ctx, chatID, draft)
			return sendDoneMsg{draft: draft, err: err}
		},
		tea.Tick(typingIndicatorDuration, func(time.Time) tea.Msg {
			return typingDoneMsg{}
		}),
		m.spinner.Tick,
	)
}

// signOut terminates the session in the background.
func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{err: m.auth.SignOut(m.ctx)}
	}
}

// cacheChats writes the chat snapshot through to the local cache.
func (m *Model) cacheChats(chats []backend.Chat) {
	if m.cache == nil {
		return
	}
	if err := m.cache.ReplaceChats(chats); err != nil {
		log.Error("caching chats", "error", err)
	}
}

// cacheMessages writes a chat's message snapshot through to the local cache.
func (m *Model) cacheMessages(chatID string, messages []backend.Message) {
	if m.cache == nil {
		return
	}
	if err := m.cache.ReplaceMessages(chatID, messages); err != nil {
		log.Error("caching messages", "error", err, "chat_id", chatID)
	}
}
