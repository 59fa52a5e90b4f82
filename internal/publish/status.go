package publish

import (
	"fmt"
	"strings"

	"github.com/docentlabs/docent/internal/api"
)

// Status is the displayable state of one publish operation. It is a value
// type: the controller hands out copies, never shared pointers.
type Status struct {
	DocumentID string
	Stage      Stage
	Message    string
	Progress   *float64 // percent in [0,100]; nil when the server sent none
	Detail     string   // counter summary, empty when no counters arrived
	Terminal   bool
}

// connectingStatus is the initial display state for a fresh operation.
func connectingStatus(documentID string) Status {
	zero := 0.0
	return Status{
		DocumentID: documentID,
		Stage:      StageConnecting,
		Message:    MessageFor(StageConnecting),
		Progress:   &zero,
	}
}

// apply merges a stream event into the status, returning the new value.
// Defaults derive from the stage table; explicit event fields win. Progress
// never regresses: a duplicate or out-of-order event carrying a lower value
// than the one on screen is ignored for the progress field.
func (s Status) apply(event api.PublishEvent) Status {
	next := s
	next.Stage = Stage(event.Stage)
	next.Terminal = next.Stage.IsTerminal()

	next.Message = event.Message
	if next.Message == "" {
		next.Message = MessageFor(next.Stage)
	}

	switch {
	case event.Progress == nil:
		next.Progress = nil
	case s.Progress != nil && *event.Progress < *s.Progress:
		// keep the higher value already displayed
	default:
		p := *event.Progress
		next.Progress = &p
	}

	next.Detail = eventDetail(event)
	return next
}

// fail converts the status into the error display state.
func (s Status) fail(msg string) Status {
	next := s
	next.Stage = StageError
	next.Message = "Error: " + msg
	next.Progress = nil
	next.Detail = ""
	next.Terminal = true
	return next
}

// eventDetail renders the counters present in an event, in a fixed order,
// joined with " • ". Absent counters are omitted entirely — never shown as
// zero. The duplicates/contradictions pair is joined with ", " first.
func eventDetail(event api.PublishEvent) string {
	var details []string

	if event.ChunksCreated > 0 {
		details = append(details, fmt.Sprintf("%d chunks", event.ChunksCreated))
	}
	if event.ChunksEmbedded > 0 {
		details = append(details, fmt.Sprintf("%d embedded", event.ChunksEmbedded))
	}
	if event.ChunksProcessed > 0 && event.TotalChunks > 0 {
		details = append(details, fmt.Sprintf("%d/%d analyzed", event.ChunksProcessed, event.TotalChunks))
	}
	if event.EstimatedTime != "" {
		details = append(details, event.EstimatedTime)
	}
	if event.DuplicatesCount > 0 || event.ContradictionsCount > 0 {
		var conflicts []string
		if event.DuplicatesCount > 0 {
			conflicts = append(conflicts, fmt.Sprintf("%d duplicates", event.DuplicatesCount))
		}
		if event.ContradictionsCount > 0 {
			conflicts = append(conflicts, fmt.Sprintf("%d contradictions", event.ContradictionsCount))
		}
		details = append(details, strings.Join(conflicts, ", "))
	}

	return strings.Join(details, " • ")
}
