// Package ui provides the Bubble Tea TUI for Docent.
package ui

import (
	"github.com/docentlabs/docent/internal/api"
	"github.com/docentlabs/docent/internal/history"
)

// DocumentsLoaded is sent when the documents list has been fetched.
type DocumentsLoaded struct {
	Documents []api.Document
	Err       error
}

// ConflictsLoaded is sent when the conflicts list has been fetched.
type ConflictsLoaded struct {
	Conflicts []api.Conflict
	Err       error
}

// OverviewLoaded carries both lists, fetched in parallel after a terminal
// publish transition invalidates them.
type OverviewLoaded struct {
	Documents []api.Document
	Conflicts []api.Conflict
	Err       error
}

// DocumentUploaded is sent when an upload finishes.
type DocumentUploaded struct {
	Document api.Document
	Err      error
}

// DocumentDeleted is sent when a delete finishes. ID is always set so the
// pending flag can be cleared on every exit path.
type DocumentDeleted struct {
	ID  string
	Err error
}

// PublishVerified is sent when a background publish finishes its polling
// verification. Status is the document's persisted status, or empty when the
// poll timed out without reaching a terminal one.
type PublishVerified struct {
	ID     string
	Status string
	Err    error
}

// ConflictResolved is sent when a single conflict resolve finishes.
type ConflictResolved struct {
	ID  string
	Err error
}

// AllConflictsResolved is sent when a bulk resolve finishes.
type AllConflictsResolved struct {
	Err error
}

// ChatSessionsLoaded is sent when the session list has been fetched.
type ChatSessionsLoaded struct {
	Sessions []api.ChatSession
	Err      error
}

// ChatSessionCreated is sent when a new session is ready.
type ChatSessionCreated struct {
	SessionID string
	Err       error
}

// ChatExchangeReceived is sent when the server answers a chat message.
type ChatExchangeReceived struct {
	SessionID string
	Exchange  api.ChatExchange
	Err       error
}

// ChatMessagesLoaded is sent when a session's history has been fetched.
type ChatMessagesLoaded struct {
	SessionID string
	Messages  []api.ChatMessage
	Err       error
}

// HistoryLoaded is sent when the local publish history has been read.
type HistoryLoaded struct {
	Records []history.PublishRecord
	Err     error
}

// ViewStale is sent when a cached view was invalidated and needs a refetch.
type ViewStale struct {
	Key string
}
