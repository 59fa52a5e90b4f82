package publish

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docentlabs/docent/internal/api"
	"github.com/docentlabs/docent/internal/logging"
)

// Cache keys invalidated by terminal transitions.
const (
	CacheDocuments = "documents"
	CacheConflicts = "conflicts"
)

// TransportOpener opens a publish stream for a document. *api.Client
// satisfies it; tests inject fakes.
type TransportOpener interface {
	OpenPublishStream(documentID string, docling bool, obs api.StreamObserver) func()
}

// Invalidator marks cached views stale. Satisfied by *cache.Cache.
type Invalidator interface {
	Invalidate(key string)
}

// Recorder persists terminal publish outcomes. Satisfied by *history.Store;
// may be nil to disable recording.
type Recorder interface {
	RecordPublish(documentID, operationID string, startedAt, finishedAt time.Time, finalStage string, published, requiresReview bool, errText string) error
}

// Delays holds the display delays around terminal transitions. Zero fields
// fall back to the defaults; tests shrink them to keep runs fast.
type Delays struct {
	// CompleteSettle is how long the final "Complete!" state stays on
	// screen before the documents view refreshes.
	CompleteSettle time.Duration
	// ConflictsSettle is the same for the conflicts_detected outcome.
	ConflictsSettle time.Duration
	// ErrorClear is how long an error banner stays visible.
	ErrorClear time.Duration
}

func (d Delays) withDefaults() Delays {
	if d.CompleteSettle == 0 {
		d.CompleteSettle = time.Second
	}
	if d.ConflictsSettle == 0 {
		d.ConflictsSettle = 1500 * time.Millisecond
	}
	if d.ErrorClear == 0 {
		d.ErrorClear = 3 * time.Second
	}
	return d
}

// StatusUpdated is pushed through the notify function whenever an
// operation's display state changes.
type StatusUpdated struct {
	Status Status
}

// StatusCleared is pushed when an operation's visible status is removed
// (after the settle delay on success, or the error-clear delay).
type StatusCleared struct {
	DocumentID string
}

// operation is one live publish attempt. The id distinguishes this
// operation's callbacks from those of a superseded operation for the same
// document.
type operation struct {
	id         string
	documentID string
	status     Status
	startedAt  time.Time
	teardown   func()
	clearTimer *time.Timer
}

// Controller owns the per-document operation registry and applies stream
// events to each operation's state machine. All mutable state is behind mu;
// transport callbacks arrive on stream goroutines and are serialized here.
//
// The registry map is mutated only inside Start/Stop/finish. Ownership of an
// operation's teardown handle never leaves the controller.
type Controller struct {
	transport TransportOpener
	caches    Invalidator
	recorder  Recorder
	notify    func(any)
	delays    Delays

	mu  sync.Mutex
	ops map[string]*operation
}

// NewController creates a Controller. notify receives StatusUpdated and
// StatusCleared values and must be safe to call from any goroutine
// (tea.Program.Send qualifies). recorder may be nil.
func NewController(transport TransportOpener, caches Invalidator, recorder Recorder, notify func(any), delays Delays) *Controller {
	if notify == nil {
		notify = func(any) {}
	}
	return &Controller{
		transport: transport,
		caches:    caches,
		recorder:  recorder,
		notify:    notify,
		delays:    delays.withDefaults(),
		ops:       make(map[string]*operation),
	}
}

// Publish starts a publish operation for a document, tearing down any
// previous operation for the same id first. The most recent start wins.
func (c *Controller) Publish(documentID string, docling bool) {
	c.Stop(documentID)

	op := &operation{
		id:         uuid.NewString(),
		documentID: documentID,
		status:     connectingStatus(documentID),
		startedAt:  time.Now(),
	}

	c.mu.Lock()
	c.ops[documentID] = op
	c.mu.Unlock()

	logging.Info("publish started", "document", documentID, "operation", op.id, "docling", docling)
	c.notify(StatusUpdated{Status: op.status})

	opID := op.id
	teardown := c.transport.OpenPublishStream(documentID, docling, api.StreamObserver{
		OnEvent: func(event api.PublishEvent) {
			c.handleEvent(documentID, opID, event)
		},
		OnError: func(msg string) {
			c.handleError(documentID, opID, msg)
		},
		OnComplete: func() {
			c.finish(documentID, opID)
		},
	})

	c.mu.Lock()
	// The transport may have completed synchronously, or a competing
	// Publish may have replaced us already; only record the teardown if we
	// are still the live operation.
	if current, ok := c.ops[documentID]; ok && current.id == opID {
		current.teardown = teardown
	} else {
		teardown()
	}
	c.mu.Unlock()
}

// Stop tears down the live operation for a document, if any. Safe to call
// when none is running. Late callbacks from the torn-down transport are
// dropped because their operation id no longer matches the registry.
func (c *Controller) Stop(documentID string) {
	c.mu.Lock()
	op, ok := c.ops[documentID]
	if ok {
		delete(c.ops, documentID)
		if op.clearTimer != nil {
			op.clearTimer.Stop()
		}
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	if op.teardown != nil {
		op.teardown() // idempotent
	}
	logging.Debug("publish stopped", "document", documentID, "operation", op.id)
	c.notify(StatusCleared{DocumentID: documentID})
}

// Close tears down every live operation. Called when the console exits.
func (c *Controller) Close() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.ops))
	for id := range c.ops {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.Stop(id)
	}
}

// Status returns the display status for a document and whether an operation
// is visible for it.
func (c *Controller) Status(documentID string) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[documentID]
	if !ok {
		return Status{}, false
	}
	return op.status, true
}

// Publishing reports whether a live, non-failed operation exists for the
// document. The documents view overlays "processing" on the persisted
// status while this is true.
func (c *Controller) Publishing(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[documentID]
	return ok && op.status.Stage != StageError
}

// handleEvent applies one stream event to the operation's state machine.
// Events for a superseded or finished operation are discarded with no state
// mutation.
func (c *Controller) handleEvent(documentID, opID string, event api.PublishEvent) {
	c.mu.Lock()
	op, ok := c.ops[documentID]
	if !ok || op.id != opID || op.status.Terminal {
		c.mu.Unlock()
		return
	}

	op.status = op.status.apply(event)
	status := op.status
	c.mu.Unlock()

	c.notify(StatusUpdated{Status: status})

	if status.Terminal {
		c.settleTerminal(documentID, opID, event, status)
	}
}

// settleTerminal runs the conflict gate for a terminal event: it decides
// which cached views to invalidate and schedules the status removal after a
// short delay so the final state renders before the UI refreshes.
// Invalidation fires exactly once per terminal transition — the terminal
// latch in handleEvent guarantees we get here once per operation.
func (c *Controller) settleTerminal(documentID, opID string, event api.PublishEvent, status Status) {
	c.record(documentID, opID, event, status)

	switch {
	case status.Stage == StageComplete && event.Published:
		c.scheduleSettle(documentID, opID, c.delays.CompleteSettle, CacheDocuments)
	case status.Stage == StageConflicts && event.RequiresReview:
		c.scheduleSettle(documentID, opID, c.delays.ConflictsSettle, CacheDocuments, CacheConflicts)
	case status.Stage == StageError:
		c.scheduleClear(documentID, opID, c.delays.ErrorClear)
	default:
		// Terminal without the published / requires-review flag: keep the
		// stage on screen, invalidate nothing. The transport has already
		// closed; finish removes the registry entry.
		logging.Debug("terminal event without gate flag", "document", documentID, "stage", status.Stage)
	}
}

// scheduleSettle clears the operation's visible status and invalidates the
// given cached views after the delay. The invalidation is committed the
// moment the gated terminal event arrives: the server already changed state,
// so a Stop or competing Publish inside the settle window cancels only the
// visible-status removal, never the refresh.
func (c *Controller) scheduleSettle(documentID, opID string, delay time.Duration, keys ...string) {
	time.AfterFunc(delay, func() {
		for _, key := range keys {
			c.caches.Invalidate(key)
		}
	})
	c.scheduleClear(documentID, opID, delay)
}

// scheduleClear removes the operation's visible status after the delay. The
// error path lands here directly: nothing changed server-side, so there is
// nothing to invalidate.
func (c *Controller) scheduleClear(documentID, opID string, delay time.Duration) {
	timer := time.AfterFunc(delay, func() {
		c.clearStatus(documentID, opID)
	})
	c.trackTimer(documentID, opID, timer)
}

// trackTimer attaches the pending status-removal timer to the operation so a
// competing Publish (via Stop) cancels it. If the operation is already gone
// the timer is harmless: clearStatus no-ops on identity mismatch.
func (c *Controller) trackTimer(documentID, opID string, timer *time.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if op, ok := c.ops[documentID]; ok && op.id == opID {
		op.clearTimer = timer
	}
}

// clearStatus removes the visible status if the operation is still the
// registered one. A newer operation's status is never stomped.
func (c *Controller) clearStatus(documentID, opID string) {
	c.mu.Lock()
	op, ok := c.ops[documentID]
	if !ok || op.id != opID {
		c.mu.Unlock()
		return
	}
	delete(c.ops, documentID)
	c.mu.Unlock()

	if op.teardown != nil {
		op.teardown()
	}
	c.notify(StatusCleared{DocumentID: documentID})
}

// handleError marks the operation failed and schedules the banner removal.
// Transport and parse errors land here; both are local to one operation.
func (c *Controller) handleError(documentID, opID, msg string) {
	c.mu.Lock()
	op, ok := c.ops[documentID]
	if !ok || op.id != opID || op.status.Terminal {
		c.mu.Unlock()
		return
	}
	op.status = op.status.fail(msg)
	status := op.status
	startedAt := op.startedAt
	c.mu.Unlock()

	logging.Error("publish failed", "document", documentID, "operation", opID, "err", msg)
	c.notify(StatusUpdated{Status: status})

	if c.recorder != nil {
		if err := c.recorder.RecordPublish(documentID, opID, startedAt, time.Now(), string(StageError), false, false, msg); err != nil {
			logging.Warn("record publish failure", "document", documentID, "err", err)
		}
	}

	c.scheduleClear(documentID, opID, c.delays.ErrorClear)
}

// finish runs when the transport closes, naturally or otherwise. It releases
// the teardown handle; the registry entry itself stays until its settle or
// clear timer fires so the final state remains visible. For superseded
// operations the id no longer matches and nothing happens.
func (c *Controller) finish(documentID, opID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[documentID]
	if !ok || op.id != opID {
		return
	}
	if op.teardown != nil {
		op.teardown()
		op.teardown = nil
	}
}

// record persists a terminal outcome to the local history log.
func (c *Controller) record(documentID, opID string, event api.PublishEvent, status Status) {
	if c.recorder == nil {
		return
	}
	c.mu.Lock()
	var startedAt time.Time
	if op, ok := c.ops[documentID]; ok && op.id == opID {
		startedAt = op.startedAt
	}
	c.mu.Unlock()

	err := c.recorder.RecordPublish(documentID, opID, startedAt, time.Now(),
		string(status.Stage), event.Published, event.RequiresReview, event.Error)
	if err != nil {
		logging.Warn("record publish outcome", "document", documentID, "err", err)
	}
}
