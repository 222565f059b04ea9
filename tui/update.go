package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/malv/aichat/backend"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	// Log for non-tick messages only
	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
		default:
			log.Info("update completed", "msg_type", fmt.Sprintf("%T", msg), "active_chat", m.activeChatID)
		}
	}()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg, cmds)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case chatFeedStartedMsg:
		m.chatFeed = msg.feed
		go m.forwardChatFeed(msg.feed)
		return m, tea.Batch(cmds...)

	case chatsUpdatedMsg:
		m.applyChats(msg.chats)
		m.cacheChats(msg.chats)
		return m, tea.Batch(cmds...)

	case chatOpenedMsg:
		// The user may have moved on while the open was in flight.
		if msg.chatID != m.activeChatID {
			msg.feed.Close()
			return m, tea.Batch(cmds...)
		}
		if m.messageFeed != nil {
			m.messageFeed.Close()
		}
		m.messageFeed = msg.feed
		go m.forwardMessageFeed(msg.feed)
		m.messages = msg.messages
		m.cacheMessages(msg.chatID, msg.messages)
		m.refreshViewport(true)
		return m, tea.Batch(cmds...)

	case messagesUpdatedMsg:
		if msg.chatID != m.activeChatID {
			return m, tea.Batch(cmds...)
		}
		wasAtBottom := m.viewport.AtBottom()
		m.messages = msg.messages
		m.cacheMessages(msg.chatID, msg.messages)
		m.refreshViewport(wasAtBottom)
		return m, tea.Batch(cmds...)

	case chatCreatedMsg:
		m.applyChats(msg.chats)
		m.cacheChats(msg.chats)
		m.selectChatByID(msg.chat.ID)
		m.focus = focusInput
		m.textarea.Focus()
		cmds = append(cmds, m.activateSelectedChat(), textarea.Blink)
		return m, tea.Batch(cmds...)

	case chatDeletedMsg:
		m.applyChats(msg.chats)
		m.cacheChats(msg.chats)
		if m.activeChatID == msg.chatID {
			m.activeChatID = ""
			m.messages = nil
			if m.messageFeed != nil {
				m.messageFeed.Close()
				m.messageFeed = nil
			}
			m.refreshViewport(false)
		}
		cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, "Chat deleted"))
		return m, tea.Batch(cmds...)

	case chatRenamedMsg:
		for i := range m.chats {
			if m.chats[i].ID == msg.chat.ID {
				m.chats[i].Title = msg.chat.Title
			}
		}
		m.cacheChats(m.chats)
		cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, "Chat renamed"))
		return m, tea.Batch(cmds...)

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil {
			m.err = msg.err
			// Give the user their words back.
			if strings.TrimSpace(m.textarea.Value()) == "" {
				m.textarea.SetValue(msg.draft)
				m.adjustTextareaHeight()
			}
			cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.ErrorKey, "Send failed"))
		} else {
			m.err = nil
		}
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case signedOutMsg:
		if msg.err != nil {
			m.err = msg.err
			cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.ErrorKey, "Sign-out failed"))
			return m, tea.Batch(cmds...)
		}
		m.quitting = true
		m.closeFeeds()
		return m, tea.Quit

	case typingDoneMsg:
		m.typing = false
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case feedErrorMsg:
		m.err = msg.err
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focus == focusInput && !m.renaming {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	if m.renaming {
		return m.updateRenameKey(msg, cmds)
	}

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.closeFeeds()
		return m, tea.Quit

	case "tab":
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.textarea.Focus()
			cmds = append(cmds, textarea.Blink)
		} else {
			m.focus = focusSidebar
			m.textarea.Blur()
		}
		return m, tea.Batch(cmds...)

	case "ctrl+n":
		return m, tea.Batch(append(cmds, m.createChat())...)

	case "alt+q":
		return m, tea.Batch(append(cmds, m.signOut())...)

	case "alt+w":
		message := m.lastAssistantMessage()
		if message == nil {
			return m, tea.Batch(cmds...)
		}
		if !m.clipboardEnabled {
			cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.ErrorKey, "Clipboard unavailable"))
			return m, tea.Batch(cmds...)
		}
		clipboard.Write(clipboard.FmtText, []byte(message.Content))
		cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!"))
		return m, tea.Batch(cmds...)
	}

	if m.focus == focusSidebar {
		return m.updateSidebarKey(msg, cmds)
	}
	return m.updateInputKey(msg, cmds)
}

func (m *Model) updateRenameKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.renaming = false
		m.renameInput.Blur()
		return m, tea.Batch(cmds...)

	case "enter":
		title := strings.TrimSpace(m.renameInput.Value())
		m.renaming = false
		m.renameInput.Blur()
		chat := m.selectedChat()
		if chat == nil || title == "" || title == chat.Title {
			return m, tea.Batch(cmds...)
		}
		return m, tea.Batch(append(cmds, m.renameChat(chat.ID, title))...)
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

func (m *Model) updateSidebarKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, tea.Batch(cmds...)

	case "down", "j":
		if m.selected < len(m.chats)-1 {
			m.selected++
		}
		return m, tea.Batch(cmds...)

	case "enter":
		return m, tea.Batch(append(cmds, m.activateSelectedChat())...)

	case "ctrl+d":
		if chat := m.selectedChat(); chat != nil {
			return m, tea.Batch(append(cmds, m.deleteChat(chat.ID))...)
		}
		return m, tea.Batch(cmds...)

	case "ctrl+r":
		if chat := m.selectedChat(); chat != nil {
			m.renaming = true
			m.renameInput.SetValue(chat.Title)
			m.renameInput.CursorEnd()
			m.renameInput.Focus()
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

func (m *Model) updateInputKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if cmd := m.sendMessage(); cmd != nil {
			m.recalculateLayout()
			return m, tea.Batch(append(cmds, cmd)...)
		}
		return m, tea.Batch(cmds...)

	case "ctrl+j":
		m.textarea.InsertString("\n")
		m.adjustTextareaHeight()
		return m, tea.Batch(cmds...)

	case "alt+p":
		if entry, ok := m.history.Previous(m.textarea.Value()); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return m, tea.Batch(cmds...)

	case "alt+n":
		if entry, ok := m.history.Next(); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return m, tea.Batch(cmds...)
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
			m.history.Reset()
			m.historyNavigating = false
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.adjustTextareaHeight()
	return m, tea.Batch(append(cmds, cmd)...)
}

// applyChats installs a chat list snapshot, preserving the selection by ID.
func (m *Model) applyChats(chats []backend.Chat) {
	selectedID := ""
	if chat := m.selectedChat(); chat != nil {
		selectedID = chat.ID
	}
	m.chats = chats
	m.selected = -1
	for i := range chats {
		if chats[i].ID == selectedID {
			m.selected = i
			break
		}
	}
	if m.selected == -1 && len(chats) > 0 {
		m.selected = 0
	}
}

// selectChatByID moves the sidebar selection to the given chat.
func (m *Model) selectChatByID(chatID string) {
	for i := range m.chats {
		if m.chats[i].ID == chatID {
			m.selected = i
			return
		}
	}
}

// activateSelectedChat opens the highlighted chat, seeding messages from the
// cache while the network fetch is in flight.
func (m *Model) activateSelectedChat() tea.Cmd {
	chat := m.selectedChat()
	if chat == nil {
		return nil
	}
	if chat.ID == m.activeChatID {
		return nil
	}
	if m.messageFeed != nil {
		m.messageFeed.Close()
		m.messageFeed = nil
	}
	m.activeChatID = chat.ID
	m.messages = nil
	if m.cache != nil {
		if messages, err := m.cache.ListMessages(chat.ID); err == nil {
			m.messages = messages
		}
	}
	m.refreshViewport(true)
	return m.openChat(chat.ID)
}
