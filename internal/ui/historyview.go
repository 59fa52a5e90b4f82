package ui

import (
	"fmt"
	"strings"

	"github.com/docentlabs/docent/internal/history"
)

// HistoryModel renders the local publish log, newest first.
type HistoryModel struct {
	records []history.PublishRecord
	loading bool
	width   int
}

// NewHistoryModel creates an empty history view.
func NewHistoryModel() HistoryModel {
	return HistoryModel{loading: true}
}

// SetSize updates the view width.
func (m *HistoryModel) SetSize(width, _ int) {
	m.width = width
}

// SetRecords replaces the record list.
func (m *HistoryModel) SetRecords(records []history.PublishRecord) {
	m.records = records
	m.loading = false
}

// View renders the publish log.
func (m HistoryModel) View() string {
	if m.loading {
		return HelpStyle.Render("Loading history...")
	}
	if len(m.records) == 0 {
		return HelpStyle.Render("No publishes recorded yet.")
	}

	var b strings.Builder
	for _, rec := range m.records {
		outcome := StatusErr.Render("✗ " + rec.FinalStage)
		switch {
		case rec.Published:
			outcome = StatusPublished.Render("✓ published")
		case rec.RequiresReview:
			outcome = StatusPending.Render("⚠ pending review")
		}

		line := fmt.Sprintf("%s  %-36s %s",
			rec.FinishedAt.Local().Format("2006-01-02 15:04"),
			truncate(rec.DocumentID, 36),
			outcome)
		b.WriteString(NormalRow.Render(line))
		b.WriteString("\n")
		if rec.Error != "" {
			b.WriteString(ProgressDetail.Render(truncate(rec.Error, m.width-8)))
			b.WriteString("\n")
		}
	}
	b.WriteString(HelpStyle.Render("[r] refresh"))
	return b.String()
}
