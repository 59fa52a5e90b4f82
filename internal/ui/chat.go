package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docentlabs/docent/internal/api"
)

// ChatModel renders the knowledge-base chat: a transcript viewport over a
// text input, with citation sources under each assistant answer.
type ChatModel struct {
	sessionID string
	messages  []api.ChatMessage
	sources   map[string][]api.ChatSource // keyed by assistant message id
	waiting   bool

	input textinput.Model
	vp    viewport.Model
	ready bool

	width  int
	height int
}

// NewChatModel creates an empty chat view.
func NewChatModel() ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 2000
	ti.Focus()

	return ChatModel{
		sources: make(map[string][]api.ChatSource),
		input:   ti,
	}
}

// SetSize updates the view dimensions and resizes the viewport.
func (m *ChatModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - 4
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.vp = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.vp.Width = width
		m.vp.Height = vpHeight
	}
	m.input.Width = width - 4
	m.refresh()
}

// SessionID returns the active session id, empty before one exists.
func (m ChatModel) SessionID() string {
	return m.sessionID
}

// SetSession switches the view to a session and resets the transcript.
func (m *ChatModel) SetSession(sessionID string) {
	m.sessionID = sessionID
	m.messages = nil
	m.sources = make(map[string][]api.ChatSource)
	m.refresh()
}

// SetMessages replaces the transcript, for a freshly loaded session.
func (m *ChatModel) SetMessages(messages []api.ChatMessage) {
	m.messages = messages
	m.refresh()
}

// ApplyExchange merges a server answer into the transcript. Sources are
// attached to the last assistant message of the exchange.
func (m *ChatModel) ApplyExchange(exchange api.ChatExchange) {
	m.waiting = false
	m.messages = exchange.Messages
	for i := len(exchange.Messages) - 1; i >= 0; i-- {
		if exchange.Messages[i].Role == "assistant" {
			m.sources[exchange.Messages[i].ID] = exchange.Sources
			break
		}
	}
	m.refresh()
}

// Waiting reports whether an answer is in flight.
func (m ChatModel) Waiting() bool {
	return m.waiting
}

// SetWaiting marks an answer as in flight (or clears it after an error).
func (m *ChatModel) SetWaiting(waiting bool) {
	m.waiting = waiting
	m.refresh()
}

// TakeInput returns the trimmed input text and clears the field. Empty input
// returns ok=false.
func (m *ChatModel) TakeInput() (string, bool) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return "", false
	}
	m.input.SetValue("")
	return text, true
}

// Update forwards input to the text field and the viewport.
func (m *ChatModel) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// refresh rebuilds the viewport content and scrolls to the bottom.
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.transcript())
	m.vp.GotoBottom()
}

// transcript renders the message list with citation tags.
func (m ChatModel) transcript() string {
	var b strings.Builder
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			b.WriteString(ChatUser.Render("You: "))
			b.WriteString(msg.Content)
		case "assistant":
			b.WriteString(ChatAssistant.Render(msg.Content))
			if tags := renderSources(m.sources[msg.ID]); tags != "" {
				b.WriteString("\n")
				b.WriteString(tags)
			}
		default:
			continue
		}
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(HelpStyle.Render("Thinking..."))
	}
	return b.String()
}

// renderSources renders citation tags, one per distinct document name. A
// multi-chunk answer from the same document collapses to a single tag.
func renderSources(sources []api.ChatSource) string {
	if len(sources) == 0 {
		return ""
	}
	seen := make(map[string]bool)
	var tags []string
	for _, src := range sources {
		if seen[src.DocumentName] {
			continue
		}
		seen[src.DocumentName] = true
		tags = append(tags, SourceTag.Render(src.DocumentName))
	}
	return strings.Join(tags, "")
}

// View renders the chat panel.
func (m ChatModel) View() string {
	if m.sessionID == "" {
		return HelpStyle.Render("Press enter to start a chat session.")
	}
	var b strings.Builder
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("[enter] send  [esc] back to documents"))
	return b.String()
}
