package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/tui/styles"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderMain()))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return m.alert.Render(b.String())
}

func (m *Model) renderTitle() string {
	connection := "offline"
	if m.backend.Connected() {
		connection = "live"
	}
	title := fmt.Sprintf(" 💬 aichat │ 👤 %s │ %s ", m.user.Email, connection)
	return styles.TitleStyle.Width(m.width).Render(title)
}

func (m *Model) renderSidebar() string {
	height := m.height - styles.HeaderHeight - styles.FooterHeight
	style := styles.SidebarStyle
	if m.focus == focusSidebar {
		style = styles.SidebarFocusedStyle
	}

	var b strings.Builder
	if len(m.chats) == 0 {
		b.WriteString(styles.EmptyStyle.Render("No chats yet."))
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Ctrl+N creates one."))
	}
	for i, chat := range m.chats {
		if i > 0 {
			b.WriteString("\n")
		}
		if m.renaming && i == m.selected {
			b.WriteString(m.renameInput.View())
			b.WriteString("\n")
			continue
		}

		title := styles.Truncate(chat.Title, styles.SidebarWidth-4)
		switch {
		case i == m.selected:
			b.WriteString(styles.ChatSelectedStyle.Render("> " + title))
		case chat.ID == m.activeChatID:
			b.WriteString(styles.ChatTitleStyle.Render("* " + title))
		default:
			b.WriteString(styles.ChatTitleStyle.Render("  " + title))
		}
		b.WriteString("\n")
		b.WriteString(styles.ChatPreviewStyle.Render("  " + m.renderPreview(chat)))
	}

	return style.Width(styles.SidebarWidth).Height(height).Render(b.String())
}

func (m *Model) renderPreview(chat backend.Chat) string {
	preview, ok := chat.Preview()
	if !ok {
		return styles.Truncate("no messages", styles.SidebarWidth-4)
	}
	prefix := ""
	if preview.Role == backend.RoleUser {
		prefix = "you: "
	}
	content := strings.ReplaceAll(preview.Content, "\n", " ")
	return styles.Truncate(prefix+content, styles.SidebarWidth-4)
}

func (m *Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.sending || m.typing {
		b.WriteString(styles.TypingStyle.Render(fmt.Sprintf("%s Assistant is typing...", m.spinner.View())))
		b.WriteString("\n")
	}

	inputStyle := styles.TextAreaStyle
	if m.focus == focusInput {
		inputStyle = styles.TextAreaFocusedStyle
	}
	b.WriteString(inputStyle.Width(m.mainWidth() - 2).Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(m.renderCounter())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Width(m.mainWidth()).Render(b.String())
}

func (m *Model) renderCounter() string {
	length := len([]rune(m.textarea.Value()))
	counter := fmt.Sprintf("%d/%d", length, maxMessageLength)
	if length > maxMessageLength {
		return styles.CounterOverStyle.Render(counter)
	}
	return styles.CounterStyle.Render(counter)
}

func (m *Model) renderFooter() string {
	help := "Tab panes │ Enter send/open │ Ctrl+J newline │ Ctrl+N new │ Ctrl+R rename │ Ctrl+D delete │ Alt+W copy │ Alt+Q sign out │ Ctrl+C quit"
	return styles.HelpStyle.Width(m.width).Render(help)
}

func (m *Model) renderMessages() string {
	if m.activeChatID == "" {
		return styles.EmptyStyle.Render("Select a chat on the left, or press Ctrl+N to start one.")
	}
	if len(m.messages) == 0 {
		return styles.EmptyStyle.Render("No messages yet. Say hello!")
	}

	var b strings.Builder
	for i, message := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch message.Role {
		case backend.RoleUser:
			b.WriteString(styles.UserLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(styles.UserMessageStyle.Render(message.Content))
		case backend.RoleAssistant:
			b.WriteString(styles.AssistantLabelStyle.Render("Assistant"))
			b.WriteString("\n")
			rendered := m.renderer.ToMarkdown(message.Content)
			b.WriteString(styles.AssistantMessageStyle.Render(rendered))
		default:
			b.WriteString(styles.ChatPreviewStyle.Render(message.Content))
		}
	}
	return b.String()
}
