// Package cache tracks staleness of server-backed views. The server owns
// all durable state; this is only a signal layer telling the console which
// lists need a refetch after a mutation or a terminal publish transition.
package cache

import "sync"

// Well-known view keys. Per-session chat history uses MessagesKey.
const (
	Documents    = "documents"
	Conflicts    = "conflicts"
	ChatSessions = "chat-sessions"
)

// MessagesKey returns the view key for one chat session's messages.
func MessagesKey(sessionID string) string {
	return "chat-messages/" + sessionID
}

// Cache is a keyed staleness tracker with invalidation listeners.
// Thread-safe; listeners are invoked synchronously on the invalidating
// goroutine and must not call back into the cache.
type Cache struct {
	mu        sync.Mutex
	stale     map[string]bool
	listeners []func(key string)
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{stale: make(map[string]bool)}
}

// Subscribe registers a listener invoked with the key of every
// invalidation. Registration is permanent for the cache's lifetime.
func (c *Cache) Subscribe(fn func(key string)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Invalidate marks a view stale and notifies listeners.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.stale[key] = true
	listeners := make([]func(string), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(key)
	}
}

// MarkFresh records that a view has been reloaded.
func (c *Cache) MarkFresh(key string) {
	c.mu.Lock()
	delete(c.stale, key)
	c.mu.Unlock()
}

// Stale reports whether a view needs a refetch.
func (c *Cache) Stale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[key]
}
