package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and dry-run tooling.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]*Record // user -> task -> record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]*Record)}
}

func (s *MemoryStore) Accepted(ctx context.Context, userID, task string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID][task]
	return ok && rec.Accepted, nil
}

func (s *MemoryStore) AcceptedTasks(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []string
	for task, rec := range s.records[userID] {
		if rec.Accepted {
			tasks = append(tasks, task)
		}
	}
	sort.Strings(tasks)
	return tasks, nil
}

func (s *MemoryStore) Append(ctx context.Context, rec *Record) error {
	stamp(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	byTask, ok := s.records[rec.UserID]
	if !ok {
		byTask = make(map[string]*Record)
		s.records[rec.UserID] = byTask
	}
	if _, exists := byTask[rec.Task]; exists {
		return nil
	}
	copied := *rec
	byTask[rec.Task] = &copied
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len returns the total number of records held. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, byTask := range s.records {
		n += len(byTask)
	}
	return n
}
