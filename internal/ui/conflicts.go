package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docentlabs/docent/internal/api"
)

// ConflictsModel renders the open-conflicts review queue.
type ConflictsModel struct {
	conflicts []api.Conflict
	resolving map[string]bool
	cursor    int
	loading   bool

	note        textinput.Model
	noteFocused bool

	width  int
	height int
}

// NewConflictsModel creates an empty conflicts view.
func NewConflictsModel() ConflictsModel {
	note := textinput.New()
	note.Placeholder = "Resolution note (optional)"
	note.CharLimit = 256

	return ConflictsModel{
		resolving: make(map[string]bool),
		loading:   true,
		note:      note,
	}
}

// SetSize updates the view dimensions.
func (m *ConflictsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetConflicts replaces the conflict list, clamping the cursor.
func (m *ConflictsModel) SetConflicts(conflicts []api.Conflict) {
	m.conflicts = conflicts
	m.loading = false
	if m.cursor >= len(conflicts) && len(conflicts) > 0 {
		m.cursor = len(conflicts) - 1
	}
}

// SetResolving toggles the resolve-pending flag for a conflict.
func (m *ConflictsModel) SetResolving(conflictID string, pending bool) {
	if pending {
		m.resolving[conflictID] = true
	} else {
		delete(m.resolving, conflictID)
	}
}

// Selected returns the conflict under the cursor, if any.
func (m ConflictsModel) Selected() (api.Conflict, bool) {
	if len(m.conflicts) == 0 || m.cursor >= len(m.conflicts) {
		return api.Conflict{}, false
	}
	return m.conflicts[m.cursor], true
}

// Count returns the number of open conflicts, for the tab badge.
func (m ConflictsModel) Count() int {
	return len(m.conflicts)
}

// NoteFocused reports whether the note input is capturing keys.
func (m ConflictsModel) NoteFocused() bool {
	return m.noteFocused
}

// FocusNote moves key input into the note field.
func (m *ConflictsModel) FocusNote() {
	m.noteFocused = true
	m.note.Focus()
}

// BlurNote returns key input to the queue.
func (m *ConflictsModel) BlurNote() {
	m.noteFocused = false
	m.note.Blur()
}

// TakeNote returns the trimmed note text and clears the field.
func (m *ConflictsModel) TakeNote() string {
	text := strings.TrimSpace(m.note.Value())
	m.note.SetValue("")
	return text
}

// UpdateNote forwards input to the note field.
func (m *ConflictsModel) UpdateNote(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return cmd
}

// MoveUp moves the cursor up.
func (m *ConflictsModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// MoveDown moves the cursor down.
func (m *ConflictsModel) MoveDown() {
	if m.cursor < len(m.conflicts)-1 {
		m.cursor++
	}
}

// View renders the conflict queue with both chunk texts for the selected
// entry.
func (m ConflictsModel) View() string {
	if m.loading {
		return HelpStyle.Render("Loading conflicts...")
	}
	if len(m.conflicts) == 0 {
		return HelpStyle.Render("No open conflicts.")
	}

	var b strings.Builder
	for i, c := range m.conflicts {
		label := c.Label
		if label == "" {
			label = "conflict"
		}
		line := fmt.Sprintf("%-14s score %.2f  judged by %s", label, c.Score, c.JudgedBy)
		if m.resolving[c.ID] {
			line += "  " + StatusProcessing.Render("resolving...")
		}

		if i == m.cursor {
			b.WriteString(SelectedRow.Width(m.width).Render(line))
			b.WriteString("\n")
			b.WriteString(renderChunkPair(c, m.width))
		} else {
			b.WriteString(NormalRow.Render(line))
			b.WriteString("\n")
		}
	}

	if m.noteFocused {
		b.WriteString("\nNote: " + m.note.View() + "\n")
	}
	b.WriteString(HelpStyle.Render("[i] ignore  [s] supersede  [n] note  [A] supersede all  [r] refresh"))
	return b.String()
}

func renderChunkPair(c api.Conflict, width int) string {
	limit := width - 8
	if limit < 20 {
		limit = 20
	}
	var b strings.Builder
	b.WriteString(ProgressDetail.Render("new:      " + truncate(c.NewChunkText, limit)))
	b.WriteString("\n")
	b.WriteString(ProgressDetail.Render("existing: " + truncate(c.ExistingChunkText, limit)))
	b.WriteString("\n")
	return b.String()
}
