// Package ui provides ephemeral notifications rendered beneath the main view.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// notificationTTL is how long a notification stays on screen.
const notificationTTL = 3 * time.Second

// Model holds the notification currently on screen.
type Model struct {
	notification string
	seq          int
}

// NotificationMsg asks the model to show Text.
type NotificationMsg struct {
	Text string
}

// clearNotificationMsg expires the notification with the matching sequence number.
type clearNotificationMsg struct {
	seq int
}

// Notify returns a tea.Cmd that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotificationMsg{Text: text}
	}
}

// Update processes notification messages. Other messages are ignored.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotificationMsg:
		m.notification = msg.Text
		m.seq++
		seq := m.seq
		return tea.Tick(notificationTTL, func(time.Time) tea.Msg {
			return clearNotificationMsg{seq: seq}
		})
	case clearNotificationMsg:
		// a newer notification replaced this one
		if msg.seq == m.seq {
			m.notification = ""
		}
	}
	return nil
}

// Current returns the visible notification, or "".
func (m *Model) Current() string {
	return m.notification
}

// View appends the notification to the last line of mainContent.
func (m *Model) View(mainContent string) string {
	if m.notification == "" {
		return mainContent
	}

	lines := strings.Split(mainContent, "\n")
	notifier := "\033[90m" + m.notification + "\033[0m"
	lines[len(lines)-1] = lines[len(lines)-1] + "  " + notifier
	return strings.Join(lines, "\n")
}
