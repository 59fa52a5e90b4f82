// Package api provides the HTTP client for the knowledge-base server.
//
// All document, conflict and chat state lives server-side; this package
// handles requests, response decoding and the publish event stream. It does
// not hold any client state beyond the HTTP connection pool.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/docentlabs/docent/internal/logging"
)

const (
	// publishTimeout covers the blocking publish call, which holds the
	// connection open for the whole server-side pipeline.
	publishTimeout = 120 * time.Second

	// asyncPublishTimeout is deliberately short: the request is fire and
	// forget, and a connection timeout means the pipeline started.
	asyncPublishTimeout = 5 * time.Second
)

// Client talks to the knowledge-base server.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// New creates a Client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		log:     logging.WithPrefix("api"),
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a request and decodes the JSON response into out (if non-nil).
// The rate limiter smooths bursts from list refreshes; it never blocks for
// long with the default settings.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("request failed", "method", method, "path", path, "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListDocuments returns all documents.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.do(ctx, http.MethodGet, "/documents", nil, "", &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument uploads the file at path as a multipart form. Title is
// optional; the server falls back to the file name.
func (c *Client) UploadDocument(ctx context.Context, path, title string) (Document, error) {
	var doc Document

	f, err := os.Open(path)
	if err != nil {
		return doc, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return doc, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return doc, fmt.Errorf("copy file: %w", err)
	}
	if title != "" {
		if err := w.WriteField("title", title); err != nil {
			return doc, fmt.Errorf("write title field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return doc, fmt.Errorf("close multipart writer: %w", err)
	}

	err = c.do(ctx, http.MethodPost, "/documents", &buf, w.FormDataContentType(), &doc)
	return doc, err
}

// DeleteDocument removes a document and its derived chunks server-side.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+documentID, nil, "", nil)
}

// PublishDocument runs the publish pipeline, blocking until the server
// finishes. Uses a dedicated long-timeout client since the pipeline can take
// minutes for large documents.
func (c *Client) PublishDocument(ctx context.Context, documentID string, docling bool) (PublishResult, error) {
	var result PublishResult
	path := "/documents/" + documentID + "/publish?docling=" + strconv.FormatBool(docling)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.do(ctx, http.MethodPost, path, nil, "", &result)
	return result, err
}

// PublishDocumentAsync kicks off the publish pipeline with a short timeout.
// A connection-level timeout is expected for long pipelines and is reported
// as "processing started" rather than a failure; the caller then verifies
// completion via polling or the stream.
func (c *Client) PublishDocumentAsync(ctx context.Context, documentID string, docling bool) (PublishResult, error) {
	var result PublishResult
	path := "/documents/" + documentID + "/publish?docling=" + strconv.FormatBool(docling)

	ctx, cancel := context.WithTimeout(ctx, asyncPublishTimeout)
	defer cancel()

	err := c.do(ctx, http.MethodPost, path, nil, "", &result)
	if err != nil {
		if startedDespiteTimeout(err) {
			c.log.Debug("publish request timed out, treating as started", "document", documentID)
			return PublishResult{OK: true, Processing: true, Message: "Document processing started"}, nil
		}
		return result, err
	}
	return result, nil
}

// startedDespiteTimeout reports whether err is a connection-level timeout,
// which for the fire-and-forget publish path means the server accepted the
// request and is still working. Any other failure (refused connection,
// non-2xx status, decode error) stays an error.
func startedDespiteTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// GetDocumentStatus fetches the current processing status aggregate.
func (c *Client) GetDocumentStatus(ctx context.Context, documentID string) (DocumentStatus, error) {
	var status DocumentStatus
	err := c.do(ctx, http.MethodGet, "/documents/"+documentID+"/status", nil, "", &status)
	return status, err
}

// ListConflicts returns all unresolved conflicts.
func (c *Client) ListConflicts(ctx context.Context) ([]Conflict, error) {
	var conflicts []Conflict
	if err := c.do(ctx, http.MethodGet, "/conflicts", nil, "", &conflicts); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// ResolveConflict resolves a single conflict with the given action
// (ResolveIgnore or ResolveSupersede) and an optional note.
func (c *Client) ResolveConflict(ctx context.Context, conflictID, action, note string) error {
	q := url.Values{}
	q.Set("action", action)
	if note != "" {
		q.Set("note", note)
	}
	return c.do(ctx, http.MethodPost, "/conflicts/"+conflictID+"/resolve?"+q.Encode(), nil, "", nil)
}

// ResolveAllConflicts resolves every open conflict with one action.
func (c *Client) ResolveAllConflicts(ctx context.Context, action, note string) error {
	if action == "" {
		action = ResolveSupersede
	}
	q := url.Values{}
	q.Set("action", action)
	if note != "" {
		q.Set("note", note)
	}
	return c.do(ctx, http.MethodPost, "/conflicts/resolve-all?"+q.Encode(), nil, "", nil)
}

// CreateChatSession creates a chat session, optionally named.
func (c *Client) CreateChatSession(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	path := "/chat/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, "", &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// ListChatSessions returns all chat sessions.
func (c *Client) ListChatSessions(ctx context.Context) ([]ChatSession, error) {
	var sessions []ChatSession
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, "", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SendMessage sends a user message and returns the updated exchange,
// including retrieval sources for the assistant reply.
func (c *Client) SendMessage(ctx context.Context, sessionID, content, provider string) (ChatExchange, error) {
	q := url.Values{}
	q.Set("content", content)
	if provider != "" {
		q.Set("provider", provider)
	}
	var exchange ChatExchange
	err := c.do(ctx, http.MethodPost, "/chat/sessions/"+sessionID+"/messages?"+q.Encode(), nil, "", &exchange)
	return exchange, err
}

// GetChatMessages returns the message history for a session.
func (c *Client) GetChatMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	var messages []ChatMessage
	if err := c.do(ctx, http.MethodGet, "/chat/sessions/"+sessionID+"/messages", nil, "", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
