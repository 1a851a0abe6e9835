// Package engine runs the reconciliation pass: parse sources, merge into
// the canonical document, annotate provenance, project open items onto the
// reminder list, and back-propagate completions from the list to the
// canonical document and the originating sources.
//
// A pass is idempotent: re-running with no external changes observes no
// diffs and writes nothing. There is no rollback; every write is safe to
// repeat, so a later pass converges the state wherever a prior one stopped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"remindsync/internal/canon"
	"remindsync/internal/model"
	"remindsync/internal/store"
	"remindsync/internal/tag"
)

type Config struct {
	Docs   store.DocumentStore
	Tasks  store.TaskStore
	Logger *slog.Logger

	CanonicalName string
	ListName      string
	OpenMarker    string
	DoneMarker    string
	Separator     string

	// LockDir enables the cross-process lock file; empty disables it
	// (in-process exclusion still applies).
	LockDir   string
	LockStale time.Duration

	// PassLogDir enables the append-only pass history; empty disables it.
	PassLogDir  string
	LogMaxLines int
}

// RunOpts holds per-pass options.
type RunOpts struct {
	DryRun bool
}

// Report summarizes one pass. Counts are plan counts: in dry-run they show
// what a real pass would have done.
type Report struct {
	PassID     string `json:"passId"`
	Skipped    bool   `json:"skipped,omitempty"`
	DryRun     bool   `json:"dryRun,omitempty"`
	DurationMS int64  `json:"durationMs"`

	DocumentsScanned int `json:"documentsScanned"`
	ItemsParsed      int `json:"itemsParsed"`
	NewEntries       int `json:"newEntries"`
	Annotated        int `json:"annotated"`
	TasksCreated     int `json:"tasksCreated"`
	Completions      int `json:"completions"`
	SourceRewrites   int `json:"sourceRewrites"`
	RewritesSkipped  int `json:"rewritesSkipped"`
}

type Engine struct {
	docs   store.DocumentStore
	tasks  store.TaskStore
	parser tag.Parser
	logger *slog.Logger

	canonical string
	list      string
	separator string

	lockDir   string
	lockStale time.Duration

	passLogDir  string
	logMaxLines int

	mu sync.Mutex
}

func New(cfg Config) (*Engine, error) {
	if cfg.Docs == nil {
		return nil, errors.New("engine: document store is required")
	}
	if cfg.Tasks == nil {
		return nil, errors.New("engine: task store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	open := cfg.OpenMarker
	if open == "" {
		open = store.DefaultOpenMarker
	}
	done := cfg.DoneMarker
	if done == "" {
		done = store.DefaultDoneMarker
	}
	sep := cfg.Separator
	if sep == "" {
		sep = store.DefaultSeparator
	}
	canonical := strings.TrimSpace(cfg.CanonicalName)
	if canonical == "" {
		canonical = store.DefaultCanonicalName
	}
	list := strings.TrimSpace(cfg.ListName)
	if list == "" {
		list = store.DefaultListName
	}
	stale := cfg.LockStale
	if stale <= 0 {
		stale = store.DefaultLockStaleSeconds * time.Second
	}
	return &Engine{
		docs:        cfg.Docs,
		tasks:       cfg.Tasks,
		parser:      tag.NewParser(open, done),
		logger:      logger,
		canonical:   canonical,
		list:        list,
		separator:   sep,
		lockDir:     cfg.LockDir,
		lockStale:   stale,
		passLogDir:  cfg.PassLogDir,
		logMaxLines: cfg.LogMaxLines,
	}, nil
}

// RunOnce executes a single reconciliation pass. Lock contention is not an
// error: the pass is skipped entirely (Report.Skipped) and the next trigger
// tries again.
func (e *Engine) RunOnce(ctx context.Context, opts RunOpts) (Report, error) {
	start := time.Now()
	report := Report{PassID: uuid.NewString(), DryRun: opts.DryRun}

	if !e.mu.TryLock() {
		e.logger.Info("pass already running, skipping")
		report.Skipped = true
		return report, nil
	}
	defer e.mu.Unlock()

	if e.lockDir != "" {
		release, ok, err := acquireLock(e.lockDir, e.lockStale, e.logger)
		if err != nil {
			return report, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			e.logger.Info("lock held by another pass, skipping")
			report.Skipped = true
			return report, nil
		}
		defer release()
	}

	err := e.pass(ctx, opts, &report)
	report.DurationMS = time.Since(start).Milliseconds()

	if e.passLogDir != "" {
		rec := model.PassRecord{
			ID:               report.PassID,
			StartedAt:        start.UTC(),
			DurationMS:       report.DurationMS,
			DryRun:           report.DryRun,
			DocumentsScanned: report.DocumentsScanned,
			ItemsParsed:      report.ItemsParsed,
			NewEntries:       report.NewEntries,
			TasksCreated:     report.TasksCreated,
			Completions:      report.Completions,
			SourceRewrites:   report.SourceRewrites,
			RewritesSkipped:  report.RewritesSkipped,
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if logErr := store.AppendPass(e.passLogDir, rec, e.logMaxLines); logErr != nil {
			e.logger.Warn("append pass log", slog.String("error", logErr.Error()))
		}
	}

	if err != nil {
		e.logger.Error("pass failed", slog.String("pass_id", report.PassID), slog.String("error", err.Error()))
		return report, err
	}
	e.logger.Info("pass complete",
		slog.String("pass_id", report.PassID),
		slog.Int("items_parsed", report.ItemsParsed),
		slog.Int("new_entries", report.NewEntries),
		slog.Int("tasks_created", report.TasksCreated),
		slog.Int("completions", report.Completions),
		slog.Bool("dry_run", report.DryRun),
	)
	return report, nil
}

func (e *Engine) pass(ctx context.Context, opts RunOpts, report *Report) error {
	// Parse all sources. The text->source lookup table is rebuilt fresh
	// every pass and lives only for this invocation.
	ids, err := e.docs.ListDocuments(ctx)
	if err != nil {
		return &StoreError{Op: "list documents", Err: err}
	}

	var openTexts []string
	var entries []canon.SourceEntry
	for _, id := range ids {
		if string(id) == e.canonical {
			continue
		}
		text, err := e.docs.ReadText(ctx, id)
		if err != nil {
			return &StoreError{Op: fmt.Sprintf("read document %s", id), Err: err}
		}
		report.DocumentsScanned++
		for _, it := range e.parser.Parse(text) {
			report.ItemsParsed++
			entries = append(entries, canon.SourceEntry{Text: it.Text, Source: string(id)})
			if it.State == model.StateOpen {
				openTexts = append(openTexts, it.Text)
			}
		}
	}

	// Load (or create) the canonical document.
	canonicalID := store.DocumentID(e.canonical)
	before, err := e.docs.ReadText(ctx, canonicalID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDocumentNotFound):
		before = e.canonical + "\n\n"
		if !opts.DryRun {
			if _, cerr := e.docs.CreateDocument(ctx, e.canonical, before); cerr != nil {
				return &StoreError{Op: "create canonical document", Err: cerr}
			}
		}
	default:
		return &StoreError{Op: "read canonical document", Err: err}
	}

	doc := canon.Parse(e.parser, e.separator, before)
	report.NewEntries = doc.Build(openTexts)
	report.Annotated = doc.Annotate(entries)
	doc.Organize()

	// Forward projection: create a task for every open entry whose key is
	// absent from the target list, open or completed. A completed task that
	// the user deleted stays gone; its canonical entry is completed too, so
	// it never reaches this loop.
	tasks, err := e.tasks.ListTasks(ctx, e.list)
	if err != nil {
		return &StoreError{Op: "list tasks", Err: err}
	}
	taskKeys := map[string]bool{}
	for _, t := range tasks {
		taskKeys[tag.Key(t.Name)] = true
	}
	for _, text := range doc.OpenTexts() {
		key := tag.Key(text)
		if taskKeys[key] {
			continue
		}
		if !opts.DryRun {
			if _, err := e.tasks.CreateTask(ctx, e.list, text); err != nil {
				return &StoreError{Op: fmt.Sprintf("create task %q", text), Err: err}
			}
		}
		taskKeys[key] = true
		report.TasksCreated++
	}

	// Completion detection: tasks the user checked off flip the matching
	// canonical entry and the originating source line.
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		body, ok := doc.MarkCompleted(tag.Key(t.Name))
		if !ok {
			continue
		}
		report.Completions++

		source, has := tag.AnnotationSource(body)
		if !has {
			e.logger.Info("completed entry has no provenance, source untouched", slog.String("item", tag.StripAnnotation(body)))
			report.RewritesSkipped++
			continue
		}
		rewrote, err := e.rewriteSourceLine(ctx, opts, source, body)
		if err != nil {
			return err
		}
		if rewrote {
			report.SourceRewrites++
		} else {
			report.RewritesSkipped++
		}
	}

	doc.Organize()

	after := doc.Render()
	if after != before && !opts.DryRun {
		if err := e.docs.WriteText(ctx, canonicalID, after); err != nil {
			return &StoreError{Op: "write canonical document", Err: err}
		}
	}
	return nil
}

// rewriteSourceLine flips the first open-tagged line in the named source
// document that matches the completed canonical body. A missing document or
// missing line is logged and skipped, never fatal; a failed write aborts
// the pass.
func (e *Engine) rewriteSourceLine(ctx context.Context, opts RunOpts, source, body string) (bool, error) {
	id := store.DocumentID(source)
	text, err := e.docs.ReadText(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			e.logger.Warn("source document gone, skipping rewrite", slog.String("source", source))
			return false, nil
		}
		return false, &StoreError{Op: fmt.Sprintf("read source %s", source), Err: err}
	}

	// The canonical body may carry the source name as a trailing word (the
	// annotator's suffix rule), so match with and without it.
	stripped := tag.StripAnnotation(body)
	keys := map[string]bool{tag.Key(stripped): true}
	if suffix := " " + source; strings.HasSuffix(stripped, suffix) {
		keys[tag.Key(strings.TrimSuffix(stripped, suffix))] = true
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		it, ok := e.parser.ParseLine(line)
		if !ok || it.State != model.StateOpen {
			continue
		}
		if !keys[tag.Key(it.Text)] {
			continue
		}
		lines[i] = e.parser.FormatLine(model.StateCompleted, it.Text)
		if opts.DryRun {
			return true, nil
		}
		if err := e.docs.WriteText(ctx, id, strings.Join(lines, "\n")); err != nil {
			return false, &StoreError{Op: fmt.Sprintf("write source %s", source), Err: err}
		}
		return true, nil
	}

	e.logger.Warn("no open line matches completed item, skipping rewrite",
		slog.String("source", source),
		slog.String("item", stripped),
	)
	return false, nil
}
