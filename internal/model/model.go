package model

import "time"

type ItemState string

const (
	StateOpen      ItemState = "open"
	StateCompleted ItemState = "completed"
)

// ActionItem is one tagged line extracted from a document.
//
// Text is the display body (it may carry a trailing provenance annotation).
// Identity for dedup and cross-store matching is NOT Text itself; it is the
// normalized key computed by tag.Key (annotation stripped, trimmed,
// case-folded).
type ActionItem struct {
	Text   string    `json:"text"`
	State  ItemState `json:"state"`
	Source string    `json:"source,omitempty"`
}

// Task is one entry in the target reminder list.
//
// Tasks are created by the reconciler and completed exclusively by the
// external user; the engine treats the completed flag as read-only input.
type Task struct {
	ID          string     `json:"id"`
	List        string     `json:"list"`
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// PassRecord is one line in the append-only pass log.
type PassRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`

	Skipped bool   `json:"skipped,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty"`
	Error   string `json:"error,omitempty"`

	DocumentsScanned int `json:"documentsScanned"`
	ItemsParsed      int `json:"itemsParsed"`
	NewEntries       int `json:"newEntries"`
	TasksCreated     int `json:"tasksCreated"`
	Completions      int `json:"completions"`
	SourceRewrites   int `json:"sourceRewrites"`
	RewritesSkipped  int `json:"rewritesSkipped"`
}
