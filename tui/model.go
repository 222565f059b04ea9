package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"github.com/malv/aichat/auth"
	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/cache"
	"github.com/malv/aichat/internal/configuration"
	"github.com/malv/aichat/internal/debug"
	"github.com/malv/aichat/internal/history"
	"github.com/malv/aichat/internal/markdown"
	"github.com/malv/aichat/tui/styles"
)

const (
	// Soft input limit; the counter warns past it but sending stays allowed.
	maxMessageLength = 1000

	defaultContentWidth = 80
)

var log = debug.GetLogger()

type focusArea int

const (
	focusSidebar focusArea = iota
	focusInput
)

// Model represents the Bubble Tea model for the chat screen.
type Model struct {
	// Core dependencies
	ctx     context.Context
	config  *configuration.Config
	auth    *auth.Client
	backend *backend.Client
	cache   *cache.Cache
	user    auth.User

	// Chat state
	chats        []backend.Chat
	selected     int
	activeChatID string
	messages     []backend.Message

	// Live feeds
	chatFeed    *backend.ChatFeed
	messageFeed *backend.MessageFeed

	// UI components
	textarea    textarea.Model
	viewport    viewport.Model
	spinner     spinner.Model
	renameInput textinput.Model
	renderer    *markdown.Renderer

	// UI state
	focus            focusArea
	width            int
	height           int
	ready            bool
	sending          bool
	typing           bool
	renaming         bool
	clipboardEnabled bool
	err              error
	quitting         bool

	// Alert notifications.
	alert bubbleup.AlertModel

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates a new chat screen model.
func New(
	ctx context.Context,
	config *configuration.Config,
	authClient *auth.Client,
	backendClient *backend.Client,
	queryCache *cache.Cache,
	user auth.User,
	clipboardEnabled bool,
) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Enter to send, Ctrl+J for newline, Tab to switch panes)"
	ta.CharLimit = 0
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ri := textinput.New()
	ri.CharLimit = 120
	ri.Prompt = "> "

	alert := bubbleup.NewAlertModel(25, true, 1)

	renderer, err := markdown.NewRenderer(defaultContentWidth)
	if err != nil {
		return nil, err
	}

	model := &Model{
		ctx:              ctx,
		config:           config,
		auth:             authClient,
		backend:          backendClient,
		cache:            queryCache,
		user:             user,
		selected:         -1,
		textarea:         ta,
		spinner:          sp,
		renameInput:      ri,
		renderer:         renderer,
		history:          history.NewHistory(),
		clipboardEnabled: clipboardEnabled,
		alert:            *alert,
	}

	// Seed from the local cache so the list renders before the network answers.
	if queryCache != nil {
		if chats, err := queryCache.ListChats(); err == nil && len(chats) > 0 {
			model.chats = chats
			model.selected = 0
		}
	}
	return model, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
		m.loadChats(),
		m.watchChats(),
	)
}

// selectedChat returns the highlighted sidebar chat, nil when the list is
// empty.
func (m *Model) selectedChat() *backend.Chat {
	if m.selected < 0 || m.selected >= len(m.chats) {
		return nil
	}
	return &m.chats[m.selected]
}

// lastAssistantMessage returns the most recent assistant turn of the open
// chat.
func (m *Model) lastAssistantMessage() *backend.Message {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == backend.RoleAssistant {
			return &m.messages[i]
		}
	}
	return nil
}

// closeFeeds tears down any live feeds. Called on quit.
func (m *Model) closeFeeds() {
	if m.chatFeed != nil {
		m.chatFeed.Close()
		m.chatFeed = nil
	}
	if m.messageFeed != nil {
		m.messageFeed.Close()
		m.messageFeed = nil
	}
}
