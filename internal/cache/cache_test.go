package cache

import "testing"

func TestInvalidateMarksStale(t *testing.T) {
	c := New()

	if c.Stale(Documents) {
		t.Error("fresh cache should not be stale")
	}

	c.Invalidate(Documents)
	if !c.Stale(Documents) {
		t.Error("invalidated key should be stale")
	}
	if c.Stale(Conflicts) {
		t.Error("other keys should be unaffected")
	}

	c.MarkFresh(Documents)
	if c.Stale(Documents) {
		t.Error("MarkFresh should clear staleness")
	}
}

func TestSubscribeReceivesInvalidations(t *testing.T) {
	c := New()

	var got []string
	c.Subscribe(func(key string) {
		got = append(got, key)
	})

	c.Invalidate(Documents)
	c.Invalidate(Conflicts)
	c.MarkFresh(Documents) // no notification

	want := []string{Documents, Conflicts}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMultipleListeners(t *testing.T) {
	c := New()

	count := 0
	c.Subscribe(func(string) { count++ })
	c.Subscribe(func(string) { count++ })

	c.Invalidate(ChatSessions)
	if count != 2 {
		t.Errorf("listener calls = %d, want 2", count)
	}
}

func TestMessagesKey(t *testing.T) {
	if got := MessagesKey("s42"); got != "chat-messages/s42" {
		t.Errorf("MessagesKey = %q", got)
	}
}
