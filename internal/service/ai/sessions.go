package ai

import (
	"context"
	"sync"
)

// Session owns one live model conversation for a (user, tutor) pair.
// It carries no locking of its own: the cache hands it out with the
// per-key mutex already held.
type Session struct {
	conv Conversation
}

// Ready reports whether a conversation handle has been bound yet.
func (s *Session) Ready() bool {
	return s.conv != nil
}

// Bind attaches the conversation handle on first use.
func (s *Session) Bind(conv Conversation) {
	s.conv = conv
}

// Send forwards a turn to the underlying conversation.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	return s.conv.Send(ctx, text)
}

type sessionEntry struct {
	mu      sync.Mutex
	session Session
}

// SessionCache holds live conversations keyed by (userID, tutorID).
// Entries are created lazily and live until evicted; there is no TTL.
// Access per key is serialized: two concurrent messages for the same
// pair queue behind each other, different pairs proceed independently.
type SessionCache struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// NewSessionCache constructs an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{entries: make(map[string]*sessionEntry)}
}

func sessionKey(userID, tutorID string) string {
	return userID + "-" + tutorID
}

// With runs fn with exclusive access to the pair's session, creating
// the entry if needed. The per-key lock is held for the whole call, so
// model turns within one session never interleave.
func (c *SessionCache) With(userID, tutorID string, fn func(*Session) error) error {
	key := sessionKey(userID, tutorID)

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &sessionEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(&entry.session)
}

// Evict drops the session for one pair. An in-flight turn on the
// evicted entry completes against the orphaned handle; the next
// message starts a fresh conversation.
func (c *SessionCache) Evict(userID, tutorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionKey(userID, tutorID))
}

// Clear drops every cached session.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*sessionEntry)
}

// Len returns the number of live sessions.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
