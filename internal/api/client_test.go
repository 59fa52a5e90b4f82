package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// recordingHandler captures the last request and serves a fixed JSON body.
type recordingHandler struct {
	method string
	path   string
	query  url.Values
	body   string
	status int
	reply  string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.Query()
	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	fmt.Fprint(w, h.reply)
}

func TestListDocuments(t *testing.T) {
	handler := &recordingHandler{reply: `[
		{"id":"d1","name":"Handbook.pdf","status":"published","created_at":"2026-08-01T10:00:00Z"},
		{"id":"d2","name":"Policy.docx","status":"draft","created_at":"2026-08-02T10:00:00Z"}
	]`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	docs, err := client.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if handler.method != http.MethodGet || handler.path != "/documents" {
		t.Errorf("request = %s %s", handler.method, handler.path)
	}
	if len(docs) != 2 || docs[0].Name != "Handbook.pdf" || docs[1].Status != StatusDraft {
		t.Errorf("docs = %+v", docs)
	}
}

func TestServerErrorIncludesBody(t *testing.T) {
	handler := &recordingHandler{status: http.StatusConflict, reply: `{"detail":"document already publishing"}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.ListDocuments(context.Background())
	if err == nil {
		t.Fatal("want error for 409")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "already publishing") {
		t.Errorf("error = %v, want status and body", err)
	}
}

func TestUploadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("filename = %q", header.Filename)
		}
		if got := r.FormValue("title"); got != "Meeting Notes" {
			t.Errorf("title = %q", got)
		}
		json.NewEncoder(w).Encode(Document{ID: "d9", Name: "Meeting Notes", Status: StatusDraft})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	doc, err := client.UploadDocument(context.Background(), path, "Meeting Notes")
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if doc.ID != "d9" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestUploadDocumentMissingFile(t *testing.T) {
	client := New("http://localhost:0", time.Second)
	_, err := client.UploadDocument(context.Background(), "/no/such/file.pdf", "")
	if err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestPublishDocumentQuery(t *testing.T) {
	handler := &recordingHandler{reply: `{"ok":true,"published":true}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	result, err := client.PublishDocument(context.Background(), "d1", true)
	if err != nil {
		t.Fatalf("PublishDocument() error = %v", err)
	}
	if handler.path != "/documents/d1/publish" || handler.query.Get("docling") != "true" {
		t.Errorf("request = %s?%s", handler.path, handler.query.Encode())
	}
	if !result.OK || !result.Published {
		t.Errorf("result = %+v", result)
	}
}

func TestPublishDocumentAsyncPassthrough(t *testing.T) {
	handler := &recordingHandler{reply: `{"ok":true,"processing":true,"message":"started"}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	result, err := client.PublishDocumentAsync(context.Background(), "d1", false)
	if err != nil {
		t.Fatalf("PublishDocumentAsync() error = %v", err)
	}
	if !result.Processing {
		t.Errorf("result = %+v", result)
	}
}

func TestPublishDocumentAsyncHardFailure(t *testing.T) {
	handler := &recordingHandler{status: http.StatusInternalServerError, reply: "boom"}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.PublishDocumentAsync(context.Background(), "d1", false)
	if err == nil {
		t.Fatal("non-timeout failures must stay errors")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStartedDespiteTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("POST /publish: %w", context.DeadlineExceeded), true},
		{"url timeout", &url.Error{Op: "Post", URL: "/publish", Err: timeoutErr{}}, true},
		{"net timeout", timeoutErr{}, true},
		{"refused connection", errors.New("connection refused"), false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startedDespiteTimeout(tt.err); got != tt.want {
				t.Errorf("startedDespiteTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestResolveConflictQuery(t *testing.T) {
	handler := &recordingHandler{reply: `{}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if err := client.ResolveConflict(context.Background(), "c1", ResolveIgnore, "duplicate of earlier doc"); err != nil {
		t.Fatalf("ResolveConflict() error = %v", err)
	}
	if handler.path != "/conflicts/c1/resolve" {
		t.Errorf("path = %q", handler.path)
	}
	if handler.query.Get("action") != "ignore" || handler.query.Get("note") != "duplicate of earlier doc" {
		t.Errorf("query = %v", handler.query)
	}
}

func TestResolveAllConflictsDefaultsToSupersede(t *testing.T) {
	handler := &recordingHandler{reply: `{}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if err := client.ResolveAllConflicts(context.Background(), "", ""); err != nil {
		t.Fatalf("ResolveAllConflicts() error = %v", err)
	}
	if handler.path != "/conflicts/resolve-all" || handler.query.Get("action") != ResolveSupersede {
		t.Errorf("request = %s?%s", handler.path, handler.query.Encode())
	}
}

func TestCreateChatSession(t *testing.T) {
	handler := &recordingHandler{reply: `{"session_id":"s42"}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	id, err := client.CreateChatSession(context.Background(), "research")
	if err != nil {
		t.Fatalf("CreateChatSession() error = %v", err)
	}
	if id != "s42" {
		t.Errorf("id = %q", id)
	}
	if handler.query.Get("name") != "research" {
		t.Errorf("query = %v", handler.query)
	}
}

func TestSendMessage(t *testing.T) {
	handler := &recordingHandler{reply: `{
		"messages":[
			{"id":"m1","role":"user","content":"What is the refund policy?"},
			{"id":"m2","role":"assistant","content":"Refunds within 30 days."}
		],
		"sources":[{"document_name":"Policy.docx","chunk_id":"ch7"}]
	}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	exchange, err := client.SendMessage(context.Background(), "s42", "What is the refund policy?", "openai")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if handler.path != "/chat/sessions/s42/messages" {
		t.Errorf("path = %q", handler.path)
	}
	if handler.query.Get("provider") != "openai" {
		t.Errorf("query = %v", handler.query)
	}
	if len(exchange.Messages) != 2 || len(exchange.Sources) != 1 {
		t.Errorf("exchange = %+v", exchange)
	}
	if exchange.Sources[0].DocumentName != "Policy.docx" {
		t.Errorf("source = %+v", exchange.Sources[0])
	}
}

func TestGetDocumentStatus(t *testing.T) {
	handler := &recordingHandler{reply: `{
		"document":{"id":"d1","name":"Handbook.pdf","status":"published","created_at":"2026-08-01T10:00:00Z"},
		"total_chunks":14,"total_conflicts":0,"total_dedup_groups":2
	}`}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := New(srv.URL, time.Second)
	status, err := client.GetDocumentStatus(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDocumentStatus() error = %v", err)
	}
	if status.Document.Status != StatusPublished || status.TotalChunks != 14 {
		t.Errorf("status = %+v", status)
	}
}
