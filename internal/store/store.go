// Package store holds the two storage contracts the reconciler depends on
// (documents and tasks) plus the local adapters: filesystem documents,
// SQLite tasks, in-memory doubles for tests, workspace config, and the
// append-only pass log.
package store

import (
	"context"
	"errors"

	"remindsync/internal/model"
)

type DocumentID string

var ErrDocumentNotFound = errors.New("document not found")
var ErrDocumentExists = errors.New("document already exists")

// DocumentStore is the note-side contract. Documents are whole-text units
// identified by name; the engine rewrites individual lines by reading and
// writing the full text.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]DocumentID, error)
	ReadText(ctx context.Context, id DocumentID) (string, error)
	WriteText(ctx context.Context, id DocumentID, text string) error
	CreateDocument(ctx context.Context, name, initial string) (DocumentID, error)
}

// TaskStore is the reminder-side contract. The engine only lists and
// creates; completion is the external user's move.
type TaskStore interface {
	ListTasks(ctx context.Context, list string) ([]model.Task, error)
	CreateTask(ctx context.Context, list, name string) (model.Task, error)
}
