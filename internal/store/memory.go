package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"remindsync/internal/model"
	"remindsync/internal/tag"
)

// MemDocs is an in-memory DocumentStore for tests.
type MemDocs struct {
	mu    sync.Mutex
	order []DocumentID
	texts map[DocumentID]string
}

func NewMemDocs() *MemDocs {
	return &MemDocs{texts: map[DocumentID]string{}}
}

// Put creates or replaces a document without going through the contract.
func (s *MemDocs) Put(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := DocumentID(name)
	if _, ok := s.texts[id]; !ok {
		s.order = append(s.order, id)
	}
	s.texts[id] = text
}

// Remove deletes a document (simulates the user deleting a note).
func (s *MemDocs) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := DocumentID(name)
	delete(s.texts, id)
	for i, d := range s.order {
		if d == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemDocs) ListDocuments(ctx context.Context) ([]DocumentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentID, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *MemDocs) ReadText(ctx context.Context, id DocumentID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[id]
	if !ok {
		return "", ErrDocumentNotFound
	}
	return text, nil
}

func (s *MemDocs) WriteText(ctx context.Context, id DocumentID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[id]; !ok {
		return ErrDocumentNotFound
	}
	s.texts[id] = text
	return nil
}

func (s *MemDocs) CreateDocument(ctx context.Context, name, initial string) (DocumentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := DocumentID(name)
	if _, ok := s.texts[id]; ok {
		return "", ErrDocumentExists
	}
	s.order = append(s.order, id)
	s.texts[id] = initial
	return id, nil
}

// MemTasks is an in-memory TaskStore for tests.
type MemTasks struct {
	mu    sync.Mutex
	tasks []model.Task
}

func NewMemTasks() *MemTasks {
	return &MemTasks{}
}

func (s *MemTasks) ListTasks(ctx context.Context, list string) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Task{}
	for _, t := range s.tasks {
		if t.List == list {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemTasks) CreateTask(ctx context.Context, list, name string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tag.Key(name)
	for _, t := range s.tasks {
		if t.List == list && tag.Key(t.Name) == key {
			return model.Task{}, fmt.Errorf("create task %q: duplicate key", name)
		}
	}
	t := model.Task{
		ID:        uuid.NewString(),
		List:      list,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Complete marks a task done (simulates the external user).
func (s *MemTasks) Complete(list, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tag.Key(name)
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.List == list && tag.Key(t.Name) == key && !t.Completed {
			now := time.Now().UTC()
			t.Completed = true
			t.CompletedAt = &now
			return true
		}
	}
	return false
}

// Delete removes a task (simulates the external user clearing it).
func (s *MemTasks) Delete(list, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tag.Key(name)
	for i := range s.tasks {
		if s.tasks[i].List == list && tag.Key(s.tasks[i].Name) == key {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}
