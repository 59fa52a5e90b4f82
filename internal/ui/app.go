package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docentlabs/docent/internal/api"
	"github.com/docentlabs/docent/internal/cache"
	"github.com/docentlabs/docent/internal/publish"
)

// viewMode selects the active panel.
type viewMode int

const (
	viewDocuments viewMode = iota
	viewConflicts
	viewChat
	viewUpload
	viewHistory
)

// Publisher starts and stops publish operations. Satisfied by
// *publish.Controller.
type Publisher interface {
	Publish(documentID string, docling bool)
	Stop(documentID string)
}

// Commands holds the injected command factories. main wires them to the API
// client and the history store; tests substitute fakes.
type Commands struct {
	LoadDocuments    func() tea.Cmd
	LoadConflicts    func() tea.Cmd
	LoadOverview     func() tea.Cmd
	UploadDocument   func(path, title string) tea.Cmd
	DeleteDocument   func(documentID string) tea.Cmd
	BackgroundPub    func(documentID string, docling bool) tea.Cmd
	ResolveConflict  func(conflictID, action, note string) tea.Cmd
	ResolveAll       func() tea.Cmd
	LoadSessions     func() tea.Cmd
	CreateSession    func() tea.Cmd
	SendMessage      func(sessionID, content string) tea.Cmd
	LoadChatMessages func(sessionID string) tea.Cmd
	LoadHistory      func() tea.Cmd
}

// App is the root model. It routes key input to the active view and applies
// push messages from the publish controller and the cache layer.
type App struct {
	cmds      Commands
	publisher Publisher

	mode      viewMode
	documents DocumentsModel
	conflicts ConflictsModel
	chat      ChatModel
	upload    UploadModel
	history   HistoryModel

	statusText string
	width      int
	height     int
}

// NewApp creates the root model.
func NewApp(cmds Commands, publisher Publisher, docling, showDetail bool) App {
	return App{
		cmds:      cmds,
		publisher: publisher,
		documents: NewDocumentsModel(docling, showDetail),
		conflicts: NewConflictsModel(),
		chat:      NewChatModel(),
		upload:    NewUploadModel(),
		history:   NewHistoryModel(),
	}
}

// Init loads the overview and starts the spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.cmds.LoadOverview(), a.documents.spin.Tick)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		body := msg.Height - 3
		a.documents.SetSize(msg.Width, body)
		a.conflicts.SetSize(msg.Width, body)
		a.chat.SetSize(msg.Width, body)
		a.history.SetSize(msg.Width, body)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case publish.StatusUpdated:
		a.documents.SetStatus(msg.Status)
		return a, nil

	case publish.StatusCleared:
		a.documents.ClearStatus(msg.DocumentID)
		return a, nil

	case ViewStale:
		return a, a.refetchStale(msg.Key)

	case DocumentsLoaded:
		if msg.Err != nil {
			a.statusText = "load documents: " + msg.Err.Error()
			return a, nil
		}
		a.documents.SetDocuments(msg.Documents)
		return a, nil

	case ConflictsLoaded:
		if msg.Err != nil {
			a.statusText = "load conflicts: " + msg.Err.Error()
			return a, nil
		}
		a.conflicts.SetConflicts(msg.Conflicts)
		return a, nil

	case OverviewLoaded:
		if msg.Err != nil {
			a.statusText = "load overview: " + msg.Err.Error()
			return a, nil
		}
		a.documents.SetDocuments(msg.Documents)
		a.conflicts.SetConflicts(msg.Conflicts)
		a.statusText = ""
		return a, nil

	case DocumentUploaded:
		if msg.Err != nil {
			a.upload.SetError(msg.Err.Error())
			return a, nil
		}
		a.upload.Reset()
		a.mode = viewDocuments
		a.statusText = "Uploaded " + msg.Document.Name
		return a, a.cmds.LoadDocuments()

	case PublishVerified:
		switch {
		case msg.Err != nil:
			a.statusText = "background publish: " + msg.Err.Error()
		case msg.Status == "":
			a.statusText = "Still processing; refresh later"
		default:
			a.statusText = "Background publish finished: " + msg.Status
		}
		// Refetching is driven by the cache invalidation, not repeated here.
		return a, nil

	case DocumentDeleted:
		a.documents.SetDeleting(msg.ID, false)
		if msg.Err != nil {
			a.statusText = "delete: " + msg.Err.Error()
			return a, nil
		}
		return a, a.cmds.LoadDocuments()

	case ConflictResolved:
		a.conflicts.SetResolving(msg.ID, false)
		if msg.Err != nil {
			a.statusText = "resolve: " + msg.Err.Error()
			return a, nil
		}
		return a, a.cmds.LoadConflicts()

	case AllConflictsResolved:
		if msg.Err != nil {
			a.statusText = "resolve all: " + msg.Err.Error()
			return a, nil
		}
		return a, a.cmds.LoadOverview()

	case ChatSessionsLoaded:
		if msg.Err != nil {
			a.statusText = "chat sessions: " + msg.Err.Error()
			return a, nil
		}
		if len(msg.Sessions) == 0 || a.chat.SessionID() != "" {
			return a, nil
		}
		latest := msg.Sessions[len(msg.Sessions)-1]
		a.chat.SetSession(latest.ID)
		return a, a.cmds.LoadChatMessages(latest.ID)

	case ChatSessionCreated:
		if msg.Err != nil {
			a.statusText = "chat session: " + msg.Err.Error()
			return a, nil
		}
		a.chat.SetSession(msg.SessionID)
		return a, a.cmds.LoadChatMessages(msg.SessionID)

	case ChatMessagesLoaded:
		if msg.Err != nil {
			a.statusText = "chat history: " + msg.Err.Error()
			return a, nil
		}
		if msg.SessionID == a.chat.SessionID() {
			a.chat.SetMessages(msg.Messages)
		}
		return a, nil

	case ChatExchangeReceived:
		if msg.Err != nil {
			a.chat.SetWaiting(false)
			a.statusText = "chat: " + msg.Err.Error()
			return a, nil
		}
		if msg.SessionID == a.chat.SessionID() {
			a.chat.ApplyExchange(msg.Exchange)
		}
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			a.statusText = "history: " + msg.Err.Error()
			return a, nil
		}
		a.history.SetRecords(msg.Records)
		return a, nil
	}

	// Everything else feeds the animated components.
	cmd := a.documents.TickSpinner(msg)
	return a, cmd
}

// refetchStale maps an invalidated cache key to the reload command for the
// affected view.
func (a App) refetchStale(key string) tea.Cmd {
	switch key {
	case cache.Documents:
		return a.cmds.LoadDocuments()
	case cache.Conflicts:
		return a.cmds.LoadConflicts()
	case cache.ChatSessions:
		return nil
	default:
		if session, ok := strings.CutPrefix(key, "chat-messages/"); ok && session == a.chat.SessionID() {
			return a.cmds.LoadChatMessages(session)
		}
		return nil
	}
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text-entry views swallow most keys.
	switch a.mode {
	case viewChat:
		return a.handleChatKey(msg)
	case viewUpload:
		return a.handleUploadKey(msg)
	case viewConflicts:
		if a.conflicts.NoteFocused() {
			return a.handleConflictsKey(msg)
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "1":
		a.mode = viewDocuments
		return a, nil
	case "2":
		a.mode = viewConflicts
		return a, nil
	case "3":
		a.mode = viewChat
		if a.chat.SessionID() == "" {
			// Resume the most recent session when one exists.
			return a, a.cmds.LoadSessions()
		}
		return a, nil
	case "4":
		a.mode = viewUpload
		a.upload.Reset()
		return a, nil
	case "5":
		a.mode = viewHistory
		return a, a.cmds.LoadHistory()
	}

	switch a.mode {
	case viewDocuments:
		return a.handleDocumentsKey(msg)
	case viewConflicts:
		return a.handleConflictsKey(msg)
	case viewHistory:
		if msg.String() == "r" {
			return a, a.cmds.LoadHistory()
		}
	}
	return a, nil
}

func (a App) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		a.documents.MoveUp()
	case "down", "j":
		a.documents.MoveDown()
	case "d":
		a.documents.ToggleDocling()
	case "u":
		a.mode = viewUpload
		a.upload.Reset()
	case "r":
		return a, a.cmds.LoadDocuments()
	case "p":
		doc, ok := a.documents.Selected()
		if !ok || a.documents.Busy(doc.ID) {
			return a, nil
		}
		a.publisher.Publish(doc.ID, a.documents.Docling())
	case "P":
		// Fire-and-forget publish without a live stream; completion is
		// verified by polling the status endpoint.
		doc, ok := a.documents.Selected()
		if !ok || a.documents.Busy(doc.ID) {
			return a, nil
		}
		a.statusText = "Publishing " + doc.Name + " in the background..."
		return a, a.cmds.BackgroundPub(doc.ID, a.documents.Docling())
	case "x":
		doc, ok := a.documents.Selected()
		if !ok || a.documents.Busy(doc.ID) {
			return a, nil
		}
		a.documents.SetDeleting(doc.ID, true)
		return a, a.cmds.DeleteDocument(doc.ID)
	case "esc":
		if doc, ok := a.documents.Selected(); ok {
			a.publisher.Stop(doc.ID)
		}
	}
	return a, nil
}

func (a App) handleConflictsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.conflicts.NoteFocused() {
		switch msg.String() {
		case "enter", "esc":
			a.conflicts.BlurNote()
			return a, nil
		}
		return a, a.conflicts.UpdateNote(msg)
	}

	switch msg.String() {
	case "up", "k":
		a.conflicts.MoveUp()
	case "down", "j":
		a.conflicts.MoveDown()
	case "r":
		return a, a.cmds.LoadConflicts()
	case "n":
		a.conflicts.FocusNote()
	case "i", "s":
		c, ok := a.conflicts.Selected()
		if !ok || a.conflicts.resolving[c.ID] {
			return a, nil
		}
		action := api.ResolveIgnore
		if msg.String() == "s" {
			action = api.ResolveSupersede
		}
		a.conflicts.SetResolving(c.ID, true)
		return a, a.cmds.ResolveConflict(c.ID, action, a.conflicts.TakeNote())
	case "A":
		if a.conflicts.Count() == 0 {
			return a, nil
		}
		return a, a.cmds.ResolveAll()
	}
	return a, nil
}

func (a App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.mode = viewDocuments
		return a, nil
	case "enter":
		if a.chat.SessionID() == "" {
			return a, a.cmds.CreateSession()
		}
		if a.chat.Waiting() {
			return a, nil
		}
		text, ok := a.chat.TakeInput()
		if !ok {
			return a, nil
		}
		a.chat.SetWaiting(true)
		return a, a.cmds.SendMessage(a.chat.SessionID(), text)
	}
	return a, a.chat.Update(msg)
}

func (a App) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.mode = viewDocuments
		return a, nil
	case "tab":
		a.upload.CycleFocus()
		return a, nil
	case "enter":
		if a.upload.Busy() {
			return a, nil
		}
		path, title, ok := a.upload.Values()
		if !ok {
			a.upload.SetError("file path is required")
			return a, nil
		}
		a.upload.SetBusy(true)
		return a, a.cmds.UploadDocument(path, title)
	}
	return a, a.upload.Update(msg)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return "starting..."
	}

	var body string
	switch a.mode {
	case viewDocuments:
		body = a.documents.View()
	case viewConflicts:
		body = a.conflicts.View()
	case viewChat:
		body = a.chat.View()
	case viewUpload:
		body = a.upload.View()
	case viewHistory:
		body = a.history.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(), body, a.renderStatusBar())
}

func (a App) renderTabs() string {
	labels := []string{"1:Documents", "2:Conflicts", "3:Chat", "4:Upload", "5:History"}
	if n := a.conflicts.Count(); n > 0 {
		labels[1] = fmt.Sprintf("2:Conflicts (%d)", n)
	}

	var tabs []string
	for i, label := range labels {
		if viewMode(i) == a.mode {
			tabs = append(tabs, TabActive.Render(label))
		} else {
			tabs = append(tabs, TabInactive.Render(label))
		}
	}
	return Header.Render("Docent") + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a App) renderStatusBar() string {
	text := a.statusText
	if text == "" {
		text = "q: quit"
	}
	return StatusBar.Width(a.width).Render(text)
}
