// Package conversation keeps per-session chat history in memory so the
// assistant can resolve follow-up questions against earlier turns.
//
// Retention is bounded three ways: each session keeps at most MaxMessages
// messages, the store keeps at most MaxSessions sessions (least recently
// touched sessions are evicted first), and sessions idle past SessionTTL
// are removed by a background sweep.
package conversation

import (
	"sync"
	"time"

	"github.com/eapache/queue/v2"
	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/config"
)

// Message is a single turn of a conversation. At is stamped by the store
// when the message is appended.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"timestamp"`
}

// session holds the retained history of one conversation. seq is the
// sequence number of the session's newest recency entry; older entries for
// the same session are stale and skipped during eviction.
type session struct {
	messages []Message
	touched  time.Time
	seq      uint64
}

// recencyEntry marks one touch of a session in the eviction queue.
type recencyEntry struct {
	id  string
	seq uint64
}

// Store is a thread-safe in-memory conversation store.
//
// Eviction uses a lazy LRU: every touch appends an entry to a FIFO recency
// queue, and when the session cap is exceeded the store pops entries from
// the front, discarding stale ones, until it finds the true least recently
// used session to drop.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	recency  *queue.Queue[recencyEntry]
	nextSeq  uint64

	cfg    config.ConversationConfig
	logger *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a conversation store. Call Start to enable the TTL
// sweep; a store without the sweep still enforces the message and session
// caps.
func NewStore(cfg config.ConversationConfig, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*session),
		recency:  queue.New[recencyEntry](),
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Append adds a message to a session's history, creating the session if it
// does not exist. When the session exceeds its message cap the oldest
// messages are dropped.
func (s *Store) Append(sessionID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	sess.messages = append(sess.messages, msg)
	if over := len(sess.messages) - s.cfg.MaxMessages; over > 0 {
		sess.messages = append(sess.messages[:0], sess.messages[over:]...)
	}

	s.touch(sessionID, sess)
	s.evictOver()
}

// History returns a copy of a session's retained messages, oldest first.
// An unknown session yields an empty history; reading does not create the
// session, but it does refresh its recency.
func (s *Store) History(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	s.touch(sessionID, sess)

	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Clear removes a session's history. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	s.compact()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touch records a fresh recency entry for the session. Caller holds the
// lock.
func (s *Store) touch(sessionID string, sess *session) {
	s.nextSeq++
	sess.seq = s.nextSeq
	sess.touched = time.Now()
	s.recency.Add(recencyEntry{id: sessionID, seq: s.nextSeq})
	s.compact()
}

// compact rebuilds the recency queue once stale entries outnumber live
// sessions, keeping only each session's newest entry in order. Without this
// the queue would grow by one entry per touch for the life of the process.
// Amortized O(1) per touch. Caller holds the lock.
func (s *Store) compact() {
	if s.recency.Length() <= 2*len(s.sessions) {
		return
	}
	fresh := queue.New[recencyEntry]()
	for s.recency.Length() > 0 {
		entry := s.recency.Remove()
		if sess, ok := s.sessions[entry.id]; ok && sess.seq == entry.seq {
			fresh.Add(entry)
		}
	}
	s.recency = fresh
}

// evictOver drops least recently used sessions until the session cap is
// respected. Caller holds the lock.
func (s *Store) evictOver() {
	for len(s.sessions) > s.cfg.MaxSessions && s.recency.Length() > 0 {
		entry := s.recency.Remove()
		sess, ok := s.sessions[entry.id]
		if !ok || sess.seq != entry.seq {
			// Stale entry: the session was cleared or touched again since.
			continue
		}
		delete(s.sessions, entry.id)
		s.logger.Debug("evicted conversation session",
			zap.String("session_id", entry.id),
			zap.Int("sessions", len(s.sessions)))
	}
}

// Start launches the background TTL sweep. Sessions idle longer than
// SessionTTL are removed. Start is a no-op when SessionTTL is zero.
func (s *Store) Start() {
	if s.cfg.SessionTTL <= 0 {
		return
	}

	interval := s.cfg.SessionTTL / 4
	if interval > time.Minute {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop halts the TTL sweep. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// sweep removes sessions whose last touch is older than the TTL.
func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.compact()
		s.logger.Debug("swept expired conversation sessions",
			zap.Int("removed", removed),
			zap.Int("sessions", len(s.sessions)))
	}
}
