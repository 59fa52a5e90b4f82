package history

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListPublishes(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	err := s.RecordPublish("doc-1", "op-1", base, base.Add(30*time.Second), "complete", true, false, "")
	if err != nil {
		t.Fatalf("RecordPublish() error = %v", err)
	}
	err = s.RecordPublish("doc-2", "op-2", base.Add(time.Minute), base.Add(2*time.Minute), "conflicts_detected", false, true, "")
	if err != nil {
		t.Fatalf("RecordPublish() error = %v", err)
	}

	records, err := s.RecentPublishes(10)
	if err != nil {
		t.Fatalf("RecentPublishes() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	// Newest first.
	if records[0].DocumentID != "doc-2" {
		t.Errorf("first record = %q, want doc-2", records[0].DocumentID)
	}
	if !records[0].RequiresReview || records[0].Published {
		t.Errorf("doc-2 flags = %+v", records[0])
	}
	if !records[1].Published {
		t.Errorf("doc-1 should be published: %+v", records[1])
	}
}

func TestRecordPublishDuplicateOperationIgnored(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	if err := s.RecordPublish("doc-1", "op-1", now, now, "complete", true, false, ""); err != nil {
		t.Fatal(err)
	}
	// Retried write for the same operation is a no-op, not an error.
	if err := s.RecordPublish("doc-1", "op-1", now, now, "error", false, false, "late retry"); err != nil {
		t.Fatalf("duplicate RecordPublish() error = %v", err)
	}

	records, err := s.RecentPublishes(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].FinalStage != "complete" {
		t.Errorf("final stage = %q, original row must win", records[0].FinalStage)
	}
}

func TestRecentPublishesLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		opID := string(rune('a' + i))
		if err := s.RecordPublish("doc-1", opID, base, base.Add(time.Duration(i)*time.Second), "complete", true, false, ""); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.RecentPublishes(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}
}

func TestChatLogRoundTrip(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	entries := []ChatEntry{
		{SessionID: "s1", Role: "user", Content: "what changed in v2?", CreatedAt: now},
		{SessionID: "s1", Role: "assistant", Content: "Chapter 3 was rewritten.", CreatedAt: now},
		{SessionID: "s2", Role: "user", Content: "unrelated", CreatedAt: now},
	}
	if err := s.LogChat(entries); err != nil {
		t.Fatalf("LogChat() error = %v", err)
	}

	transcript, err := s.ChatTranscript("s1")
	if err != nil {
		t.Fatalf("ChatTranscript() error = %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("transcript = %d entries, want 2", len(transcript))
	}
	if transcript[0].Role != "user" || transcript[1].Role != "assistant" {
		t.Errorf("roles out of order: %+v", transcript)
	}
}

func TestLogChatEmpty(t *testing.T) {
	s := openTestStore(t)
	if err := s.LogChat(nil); err != nil {
		t.Errorf("LogChat(nil) error = %v", err)
	}
}
