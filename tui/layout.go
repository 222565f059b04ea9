package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/malv/aichat/tui/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	if m.textarea.Height() != newHeight {
		m.textarea.SetHeight(newHeight)
		m.recalculateLayout()
	}
}

// mainWidth returns the width of the message pane.
func (m *Model) mainWidth() int {
	width := m.width - styles.SidebarWidth - styles.SidebarStyle.GetHorizontalFrameSize()
	if width < 1 {
		width = 1
	}
	return width
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportWidth := m.mainWidth()
	viewportHeight := m.height - styles.HeaderHeight - styles.FooterHeight
	viewportHeight -= m.textarea.Height() + styles.InputBorderHeight
	if m.err != nil {
		viewportHeight--
	}
	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}

	contentWidth := viewportWidth - styles.AssistantMessageStyle.GetHorizontalFrameSize()
	if contentWidth > 0 {
		m.renderer.SetWidth(contentWidth)
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalFrameSize())
	m.renameInput.Width = styles.SidebarWidth - 4
}

// refreshViewport re-renders the message pane, optionally pinning to the
// bottom.
func (m *Model) refreshViewport(gotoBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}
