package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docentlabs/docent/internal/api"
	"github.com/docentlabs/docent/internal/publish"
)

// DocumentsModel renders the document table with live publish status lines.
// It observes controller output only: statuses arrive as publish.StatusUpdated
// messages, never by reading the transport.
type DocumentsModel struct {
	docs     []api.Document
	statuses map[string]publish.Status
	deleting map[string]bool
	cursor   int
	docling  bool
	loading  bool

	// showDetail toggles the counter summary line under live progress.
	showDetail bool

	spin spinner.Model
	bar  progress.Model

	width  int
	height int
}

// NewDocumentsModel creates an empty documents view.
func NewDocumentsModel(docling, showDetail bool) DocumentsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20

	return DocumentsModel{
		statuses:   make(map[string]publish.Status),
		deleting:   make(map[string]bool),
		docling:    docling,
		loading:    true,
		showDetail: showDetail,
		spin:       sp,
		bar:        bar,
	}
}

// SetSize updates the view dimensions.
func (m *DocumentsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetDocuments replaces the document list, clamping the cursor.
func (m *DocumentsModel) SetDocuments(docs []api.Document) {
	m.docs = docs
	m.loading = false
	if m.cursor >= len(docs) && len(docs) > 0 {
		m.cursor = len(docs) - 1
	}
}

// SetStatus records a publish status update for a document.
func (m *DocumentsModel) SetStatus(status publish.Status) {
	m.statuses[status.DocumentID] = status
}

// ClearStatus removes the publish status line for a document.
func (m *DocumentsModel) ClearStatus(documentID string) {
	delete(m.statuses, documentID)
}

// SetDeleting toggles the delete-pending flag for a document.
func (m *DocumentsModel) SetDeleting(documentID string, pending bool) {
	if pending {
		m.deleting[documentID] = true
	} else {
		delete(m.deleting, documentID)
	}
}

// ToggleDocling flips the alternate-parser option for subsequent publishes.
func (m *DocumentsModel) ToggleDocling() {
	m.docling = !m.docling
}

// Docling returns the current alternate-parser setting.
func (m DocumentsModel) Docling() bool {
	return m.docling
}

// Selected returns the document under the cursor, if any.
func (m DocumentsModel) Selected() (api.Document, bool) {
	if len(m.docs) == 0 || m.cursor >= len(m.docs) {
		return api.Document{}, false
	}
	return m.docs[m.cursor], true
}

// Busy reports whether a publish or delete is pending for the document, in
// which case action keys are ignored for it.
func (m DocumentsModel) Busy(documentID string) bool {
	if m.deleting[documentID] {
		return true
	}
	_, publishing := m.statuses[documentID]
	return publishing
}

// MoveUp moves the cursor up.
func (m *DocumentsModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// MoveDown moves the cursor down.
func (m *DocumentsModel) MoveDown() {
	if m.cursor < len(m.docs)-1 {
		m.cursor++
	}
}

// TickSpinner advances the spinner animation.
func (m *DocumentsModel) TickSpinner(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return cmd
}

// displayStatus returns the status badge text for a document. A live publish
// operation overlays "processing" without touching the persisted status.
func (m DocumentsModel) displayStatus(doc api.Document) string {
	if status, ok := m.statuses[doc.ID]; ok && status.Stage != publish.StageError {
		return api.StatusProcessing
	}
	return doc.Status
}

func statusBadge(status string) string {
	label := strings.ReplaceAll(status, "_", " ")
	switch status {
	case api.StatusPublished:
		return StatusPublished.Render("✓ " + label)
	case api.StatusProcessing:
		return StatusProcessing.Render("⏳ " + label)
	case api.StatusPendingReview:
		return StatusPending.Render("⚠ " + label)
	case api.StatusError:
		return StatusErr.Render("✗ " + label)
	default:
		return label
	}
}

// View renders the document table.
func (m DocumentsModel) View() string {
	if m.loading {
		return HelpStyle.Render(m.spin.View() + " Loading documents...")
	}
	if len(m.docs) == 0 {
		return HelpStyle.Render("No documents yet. Press 'u' to upload one.")
	}

	var b strings.Builder
	for i, doc := range m.docs {
		line := fmt.Sprintf("%-40s %s", truncate(doc.Name, 40), statusBadge(m.displayStatus(doc)))
		if m.deleting[doc.ID] {
			line += "  " + StatusErr.Render("deleting...")
		}

		if i == m.cursor {
			b.WriteString(SelectedRow.Width(m.width).Render(line))
		} else {
			b.WriteString(NormalRow.Render(line))
		}
		b.WriteString("\n")

		if status, ok := m.statuses[doc.ID]; ok {
			b.WriteString(m.renderStatusLine(status))
		}
	}

	parser := "default parser"
	if m.docling {
		parser = "docling parser"
	}
	b.WriteString(HelpStyle.Render(fmt.Sprintf(
		"[p] publish (%s)  [P] background publish  [d] toggle parser  [x] delete  [u] upload  [r] refresh", parser)))

	return b.String()
}

// renderStatusLine shows the live pipeline state under a document row:
// spinner, stage message, progress bar and the counter detail.
func (m DocumentsModel) renderStatusLine(status publish.Status) string {
	var b strings.Builder

	line := "  " + m.spin.View() + " " + status.Message
	if status.Stage == publish.StageError {
		line = "  " + ErrorStyle.Render(status.Message)
	}
	if status.Progress != nil {
		line += " " + m.bar.ViewAs(*status.Progress/100) + fmt.Sprintf(" %.0f%%", *status.Progress)
	}
	b.WriteString(line)
	b.WriteString("\n")

	if m.showDetail && status.Detail != "" {
		b.WriteString(ProgressDetail.Render(status.Detail))
		b.WriteString("\n")
	}

	return b.String()
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
