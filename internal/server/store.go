package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
)

// session is one uploaded document. mu serializes every operation on doc,
// so a request either sees the state before or after another request.
type session struct {
	mu        sync.Mutex
	id        string
	fileName  string
	createdAt time.Time
	doc       *document.Document
}

type sessionStore struct {
	mu    sync.RWMutex
	items map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{items: make(map[string]*session)}
}

func (s *sessionStore) put(fileName string, doc *document.Document) *session {
	sess := &session{
		id:        uuid.New().String(),
		fileName:  fileName,
		createdAt: time.Now(),
		doc:       doc,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.id] = sess
	return sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[id]
	return sess, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *sessionStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
