package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malv/aichat/auth"
	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/graphql"
	"github.com/malv/aichat/internal/configuration"
)

func newTestModel(t *testing.T) *Model {
	gql := graphql.NewClient(graphql.Config{
		HTTPURL: "http://127.0.0.1:0",
		Timeout: time.Second,
	}, func() string { return "" })
	model, err := New(
		context.Background(),
		&configuration.Config{},
		auth.NewClient("http://127.0.0.1:0", ""),
		backend.NewClient(gql),
		nil,
		auth.User{ID: "u1", Email: "a@b.co"},
		false,
	)
	require.NoError(t, err)
	return model
}

func testChats() []backend.Chat {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []backend.Chat{
		{ID: "c3", Title: "Third", CreatedAt: at.Add(2 * time.Hour)},
		{ID: "c2", Title: "Second", CreatedAt: at.Add(time.Hour)},
		{ID: "c1", Title: "First", CreatedAt: at},
	}
}

func TestSendFailureRestoresDraft(t *testing.T) {
	m := newTestModel(t)
	m.sending = true

	_, _ = m.Update(sendDoneMsg{draft: "hello there", err: errors.New("boom")})

	assert.False(t, m.sending)
	assert.Equal(t, "hello there", m.textarea.Value())
	assert.Error(t, m.err)
}

func TestSendSuccessLeavesInputClear(t *testing.T) {
	m := newTestModel(t)
	m.sending = true

	_, _ = m.Update(sendDoneMsg{draft: "hello there", err: nil})

	assert.False(t, m.sending)
	assert.Empty(t, m.textarea.Value())
	assert.NoError(t, m.err)
}

func TestSendFailureKeepsNewerDraft(t *testing.T) {
	m := newTestModel(t)
	m.sending = true
	// The user started typing again before the failure came back.
	m.textarea.SetValue("a fresh thought")

	_, _ = m.Update(sendDoneMsg{draft: "hello there", err: errors.New("boom")})

	assert.Equal(t, "a fresh thought", m.textarea.Value())
}

func TestDeleteClearsActiveChat(t *testing.T) {
	m := newTestModel(t)
	m.chats = testChats()
	m.selected = 0
	m.activeChatID = "c3"
	m.messages = []backend.Message{{ID: "m1", Content: "hi", Role: backend.RoleUser}}

	_, _ = m.Update(chatDeletedMsg{chatID: "c3", chats: testChats()[1:]})

	assert.Empty(t, m.activeChatID)
	assert.Empty(t, m.messages)
	require.Len(t, m.chats, 2)
}

func TestDeleteOtherChatKeepsConversation(t *testing.T) {
	m := newTestModel(t)
	m.chats = testChats()
	m.selected = 0
	m.activeChatID = "c3"
	m.messages = []backend.Message{{ID: "m1", Content: "hi", Role: backend.RoleUser}}

	_, _ = m.Update(chatDeletedMsg{chatID: "c1", chats: testChats()[:2]})

	assert.Equal(t, "c3", m.activeChatID)
	assert.Len(t, m.messages, 1)
}

func TestApplyChatsPreservesSelectionByID(t *testing.T) {
	m := newTestModel(t)
	m.chats = testChats()
	m.selected = 2 // c1

	reordered := []backend.Chat{
		{ID: "c1", Title: "First"},
		{ID: "c3", Title: "Third"},
		{ID: "c2", Title: "Second"},
	}
	m.applyChats(reordered)

	require.NotNil(t, m.selectedChat())
	assert.Equal(t, "c1", m.selectedChat().ID)
}

func TestApplyChatsFallsBackToFirst(t *testing.T) {
	m := newTestModel(t)
	m.chats = testChats()
	m.selected = 2 // c1

	m.applyChats(testChats()[:2])

	require.NotNil(t, m.selectedChat())
	assert.Equal(t, "c3", m.selectedChat().ID)
}

func TestStaleMessageSnapshotIgnored(t *testing.T) {
	m := newTestModel(t)
	m.activeChatID = "c1"
	m.messages = []backend.Message{{ID: "m1", Content: "hi", Role: backend.RoleUser}}

	_, _ = m.Update(messagesUpdatedMsg{
		chatID:   "c2",
		messages: []backend.Message{{ID: "m9", Content: "other chat", Role: backend.RoleUser}},
	})

	require.Len(t, m.messages, 1)
	assert.Equal(t, "m1", m.messages[0].ID)
}

func TestTypingIndicatorClears(t *testing.T) {
	m := newTestModel(t)
	m.typing = true

	_, _ = m.Update(typingDoneMsg{})

	assert.False(t, m.typing)
}

func TestQuitClosesDown(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
}

func TestLastAssistantMessage(t *testing.T) {
	m := newTestModel(t)
	m.messages = []backend.Message{
		{ID: "m1", Role: backend.RoleUser, Content: "question"},
		{ID: "m2", Role: backend.RoleAssistant, Content: "first answer"},
		{ID: "m3", Role: backend.RoleUser, Content: "followup"},
		{ID: "m4", Role: backend.RoleAssistant, Content: "second answer"},
	}

	message := m.lastAssistantMessage()
	require.NotNil(t, message)
	assert.Equal(t, "m4", message.ID)
}
