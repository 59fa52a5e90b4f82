package publish

import (
	"context"
	"errors"
	"time"

	"github.com/docentlabs/docent/internal/api"
)

// Polling defaults: 60 attempts every 2 seconds gives roughly a two-minute
// ceiling, matching the blocking publish timeout.
const (
	DefaultPollAttempts = 60
	DefaultPollInterval = 2 * time.Second
)

// ErrPollingTimeout is returned when a document never reaches a terminal
// status within the attempt budget. It is distinct from transport errors so
// callers can treat "no terminal status yet" as a non-fatal pending state.
var ErrPollingTimeout = errors.New("polling timeout: document processing took too long")

// StatusFetcher fetches a document's processing status. *api.Client
// satisfies it; tests inject fakes.
type StatusFetcher interface {
	GetDocumentStatus(ctx context.Context, documentID string) (api.DocumentStatus, error)
}

// PollStatus fetches the document status up to maxAttempts times, sleeping
// interval between attempts, and returns as soon as the persisted status is
// terminal (published, pending_review, or error). Used when streaming is
// unavailable, or to verify completion after a fire-and-forget publish.
//
// Fetch errors abort the poll immediately; exhausting the budget returns
// ErrPollingTimeout. The sleep is context-aware.
func PollStatus(ctx context.Context, fetcher StatusFetcher, documentID string, maxAttempts int, interval time.Duration) (api.DocumentStatus, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return api.DocumentStatus{}, ctx.Err()
			case <-timer.C:
			}
		}

		status, err := fetcher.GetDocumentStatus(ctx, documentID)
		if err != nil {
			return api.DocumentStatus{}, err
		}

		switch status.Document.Status {
		case api.StatusPublished, api.StatusPendingReview, api.StatusError:
			return status, nil
		}
	}

	return api.DocumentStatus{}, ErrPollingTimeout
}

// VerifyAsyncResult resolves the real outcome of a fire-and-forget publish.
// A result still processing is polled until the persisted status turns
// terminal. A result that finished inside the request window is fetched once
// anyway: the quick response does not say whether conflicts were detected,
// so the outcome comes from the status aggregate, not the publish reply.
func VerifyAsyncResult(ctx context.Context, fetcher StatusFetcher, documentID string, processing bool, maxAttempts int, interval time.Duration) (api.DocumentStatus, error) {
	if processing {
		return PollStatus(ctx, fetcher, documentID, maxAttempts, interval)
	}
	return fetcher.GetDocumentStatus(ctx, documentID)
}
