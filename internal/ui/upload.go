package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// UploadModel renders the two-field upload form: file path and optional
// title. The title defaults server-side to the file name when left blank.
type UploadModel struct {
	path    textinput.Model
	title   textinput.Model
	focus   int
	busy    bool
	errText string
}

// NewUploadModel creates the upload form.
func NewUploadModel() UploadModel {
	path := textinput.New()
	path.Placeholder = "/path/to/document.pdf"
	path.CharLimit = 512
	path.Focus()

	title := textinput.New()
	title.Placeholder = "Title (optional)"
	title.CharLimit = 256

	return UploadModel{path: path, title: title}
}

// Reset clears the form for the next upload.
func (m *UploadModel) Reset() {
	m.path.SetValue("")
	m.title.SetValue("")
	m.errText = ""
	m.busy = false
	m.focus = 0
	m.path.Focus()
	m.title.Blur()
}

// SetBusy marks the upload as in flight.
func (m *UploadModel) SetBusy(busy bool) {
	m.busy = busy
}

// Busy reports whether an upload is in flight.
func (m UploadModel) Busy() bool {
	return m.busy
}

// SetError shows a failure message under the form.
func (m *UploadModel) SetError(msg string) {
	m.errText = msg
	m.busy = false
}

// Values returns the trimmed path and title. ok is false when the path is
// empty.
func (m UploadModel) Values() (path, title string, ok bool) {
	path = strings.TrimSpace(m.path.Value())
	title = strings.TrimSpace(m.title.Value())
	return path, title, path != ""
}

// CycleFocus moves focus between the two fields.
func (m *UploadModel) CycleFocus() {
	m.focus = (m.focus + 1) % 2
	if m.focus == 0 {
		m.path.Focus()
		m.title.Blur()
	} else {
		m.path.Blur()
		m.title.Focus()
	}
}

// Update forwards input to the focused field.
func (m *UploadModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == 0 {
		m.path, cmd = m.path.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return cmd
}

// View renders the form.
func (m UploadModel) View() string {
	var b strings.Builder
	b.WriteString("Upload a document\n\n")
	b.WriteString("File:  " + m.path.View() + "\n")
	b.WriteString("Title: " + m.title.View() + "\n")
	if m.busy {
		b.WriteString("\n" + StatusProcessing.Render("Uploading..."))
	}
	if m.errText != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.errText))
	}
	b.WriteString(HelpStyle.Render("[enter] upload  [tab] next field  [esc] cancel"))
	return b.String()
}
