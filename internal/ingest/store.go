package ingest

import "sync"

// Store is the session-scoped document collection. Batches are published
// atomically so readers never observe a half-applied upload.
type Store struct {
	mu   sync.Mutex
	docs []Document
}

func NewStore() *Store {
	return &Store{}
}

// Add appends a whole batch at once.
func (s *Store) Add(docs []Document) {
	if len(docs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
}

// Remove deletes the document with the given id. Removing an unknown id is
// a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.docs {
		if d.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return
		}
	}
}

// List returns a snapshot in upload order.
func (s *Store) List() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Clear drops every document. Used by session reset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
}
