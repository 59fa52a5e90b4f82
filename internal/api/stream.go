package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Fixed messages surfaced through onError. The transport never exposes raw
// wire errors to the display layer; details go to the log.
const (
	errMsgConnectionLost = "connection to server lost"
	errMsgParseFailure   = "failed to parse server response"
)

// StreamObserver receives publish-stream lifecycle callbacks. Callbacks are
// invoked sequentially from a single goroutine: zero or more OnEvent/OnError
// calls followed by exactly one OnComplete.
type StreamObserver struct {
	OnEvent    func(PublishEvent)
	OnError    func(string)
	OnComplete func()
}

// IsTerminalStage reports whether a stream stage ends the operation.
func IsTerminalStage(stage string) bool {
	switch stage {
	case "complete", "conflicts_detected", "error":
		return true
	}
	return false
}

// OpenPublishStream opens the server-push publish channel for a document and
// returns a teardown function. The channel closes itself on a terminal stage
// or transport failure, invoking OnComplete either way. Teardown is
// idempotent and is a no-op after natural closure.
func (c *Client) OpenPublishStream(documentID string, docling bool, obs StreamObserver) func() {
	ctx, cancel := context.WithCancel(context.Background())

	var once sync.Once
	teardown := func() {
		once.Do(cancel)
	}

	go c.runPublishStream(ctx, documentID, docling, obs)

	return teardown
}

// runPublishStream owns the connection for one operation. It exits on the
// first terminal frame, a transport failure, or context cancellation.
func (c *Client) runPublishStream(ctx context.Context, documentID string, docling bool, obs StreamObserver) {
	defer func() {
		if obs.OnComplete != nil {
			obs.OnComplete()
		}
	}()

	path := "/documents/" + documentID + "/publish-stream?docling=" + strconv.FormatBool(docling)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.log.Error("publish stream request", "document", documentID, "err", err)
		c.reportStreamError(obs, errMsgConnectionLost)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open for the whole pipeline.
	// Cancellation comes through the request context.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Torn down by the caller; not an error.
			return
		}
		c.log.Error("publish stream connect", "document", documentID, "err", err)
		c.reportStreamError(obs, errMsgConnectionLost)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("publish stream handshake", "document", documentID, "status", resp.StatusCode)
		c.reportStreamError(obs, errMsgConnectionLost)
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		data, ok := parseSSEData(scanner.Text())
		if !ok || data == "" {
			continue
		}

		var event PublishEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			c.log.Warn("malformed stream frame", "document", documentID, "err", err)
			if obs.OnError != nil {
				obs.OnError(errMsgParseFailure)
			}
			continue // one bad frame does not kill the channel
		}

		if obs.OnEvent != nil {
			obs.OnEvent(event)
		}

		if IsTerminalStage(event.Stage) {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	// The server hung up without a terminal frame.
	if err := scanner.Err(); err != nil {
		c.log.Error("publish stream read", "document", documentID, "err", err)
	}
	c.reportStreamError(obs, errMsgConnectionLost)
}

func (c *Client) reportStreamError(obs StreamObserver, msg string) {
	if obs.OnError != nil {
		obs.OnError(msg)
	}
}

// parseSSEData extracts the payload from an SSE data line.
func parseSSEData(line string) (string, bool) {
	if strings.HasPrefix(line, "data: ") {
		return strings.TrimPrefix(line, "data: "), true
	}
	return "", false
}
