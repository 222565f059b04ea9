package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	// Sidebar
	SidebarWidth = 32

	// Textarea
	MinTextareaHeight = 3
	MaxTextareaHeight = 8

	// Viewport
	MinViewportHeight = 1

	// Layout
	HeaderHeight      = 2
	InputBorderHeight = 2
	FooterHeight      = 1

	// Truncation
	TruncateLength = 40
	TruncateSuffix = "…"
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#06B6D4") // Cyan
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	SuccessColor   = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	TextColor      = lipgloss.Color("#F9FAFB") // Light gray
	DimTextColor   = lipgloss.Color("#9CA3AF") // Dim gray
	BorderColor    = lipgloss.Color("#4B5563")
)

// Title bar
var (
	TitleStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(TextColor).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)
)

// Sidebar
var (
	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(BorderColor).
			PaddingLeft(1).
			PaddingRight(1)

	SidebarFocusedStyle = SidebarStyle.
				BorderForeground(PrimaryColor)

	ChatTitleStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	ChatSelectedStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ChatPreviewStyle = lipgloss.NewStyle().
				Foreground(DimTextColor)
)

// Messages.
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(PrimaryColor).
				MarginLeft(8)

	AssistantMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(SecondaryColor).
				MarginRight(8)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			PaddingLeft(1)

	TextAreaFocusedStyle = TextAreaStyle.
				BorderForeground(PrimaryColor)

	CounterStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	CounterOverStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true)

	TypingStyle = lipgloss.NewStyle().
			Foreground(DimTextColor).
			Italic(true)
)

// Misc
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(DimTextColor).
			Italic(true)
)

// Truncate shortens s to maxLength runes, appending the suffix when cut.
func Truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength-1]) + TruncateSuffix
}
