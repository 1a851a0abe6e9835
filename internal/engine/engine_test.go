package engine

import (
	"context"
	"strings"
	"testing"

	"remindsync/internal/logs"
	"remindsync/internal/store"
)

func newTestEngine(t *testing.T, docs store.DocumentStore, tasks store.TaskStore) *Engine {
	t.Helper()
	eng, err := New(Config{
		Docs:   docs,
		Tasks:  tasks,
		Logger: logs.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func mustRun(t *testing.T, eng *Engine, opts RunOpts) Report {
	t.Helper()
	report, err := eng.RunOnce(context.Background(), opts)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Skipped {
		t.Fatalf("pass unexpectedly skipped")
	}
	return report
}

func readDoc(t *testing.T, docs *store.MemDocs, name string) string {
	t.Helper()
	text, err := docs.ReadText(context.Background(), store.DocumentID(name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return text
}

func TestForwardProjection(t *testing.T) {
	// Scenario: a tagged note line becomes a canonical entry with provenance
	// and an open task.
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Buy groceries\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.ItemsParsed != 1 || report.NewEntries != 1 || report.TasksCreated != 1 {
		t.Fatalf("report = %+v", report)
	}

	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if !strings.Contains(canonical, "TODO: Buy groceries [SourceDoc]") {
		t.Fatalf("canonical missing annotated entry:\n%q", canonical)
	}

	ts, _ := tasks.ListTasks(context.Background(), store.DefaultListName)
	if len(ts) != 1 || ts[0].Name != "Buy groceries" || ts[0].Completed {
		t.Fatalf("tasks = %#v", ts)
	}
}

func TestBackPropagation(t *testing.T) {
	// Scenario: the user completes the reminder; the completion flows back
	// into the canonical document and the originating note.
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Buy groceries\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	mustRun(t, eng, RunOpts{})
	if !tasks.Complete(store.DefaultListName, "Buy groceries") {
		t.Fatalf("complete failed")
	}

	report := mustRun(t, eng, RunOpts{})
	if report.Completions != 1 || report.SourceRewrites != 1 {
		t.Fatalf("report = %+v", report)
	}

	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if !strings.Contains(canonical, "DONE: Buy groceries [SourceDoc]") {
		t.Fatalf("canonical entry not completed:\n%q", canonical)
	}
	if !strings.Contains(canonical, store.DefaultSeparator) {
		t.Fatalf("separator missing:\n%q", canonical)
	}
	if source := readDoc(t, docs, "SourceDoc"); !strings.Contains(source, "DONE: Buy groceries") {
		t.Fatalf("source line not rewritten:\n%q", source)
	}
}

func TestIdempotence(t *testing.T) {
	docs := store.NewMemDocs()
	docs.Put("Groceries", "TODO: Buy milk\nTODO: Buy eggs\n")
	docs.Put("Health", "TODO: Call dentist\nDONE: Book checkup\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	mustRun(t, eng, RunOpts{})
	canonicalAfterFirst := readDoc(t, docs, store.DefaultCanonicalName)
	tasksAfterFirst, _ := tasks.ListTasks(context.Background(), store.DefaultListName)

	report := mustRun(t, eng, RunOpts{})
	if report.NewEntries != 0 || report.TasksCreated != 0 || report.Completions != 0 {
		t.Fatalf("second pass changed state: %+v", report)
	}
	if got := readDoc(t, docs, store.DefaultCanonicalName); got != canonicalAfterFirst {
		t.Fatalf("canonical changed on re-run:\n%q\nvs\n%q", canonicalAfterFirst, got)
	}
	tasksAfterSecond, _ := tasks.ListTasks(context.Background(), store.DefaultListName)
	if len(tasksAfterSecond) != len(tasksAfterFirst) {
		t.Fatalf("task count changed: %d -> %d", len(tasksAfterFirst), len(tasksAfterSecond))
	}
}

func TestDedupAcrossSources(t *testing.T) {
	// Scenario: the same item in two notes yields one canonical entry and
	// one task.
	docs := store.NewMemDocs()
	docs.Put("NoteA", "TODO: Call dentist\n")
	docs.Put("NoteB", "TODO: call dentist\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.NewEntries != 1 || report.TasksCreated != 1 {
		t.Fatalf("report = %+v", report)
	}
	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if n := strings.Count(strings.ToLower(canonical), "call dentist"); n != 1 {
		t.Fatalf("expected 1 canonical occurrence; got %d:\n%q", n, canonical)
	}
}

func TestNoOrphanRecreation(t *testing.T) {
	// A completed-then-deleted task must not come back as a new open task.
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Buy groceries\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	mustRun(t, eng, RunOpts{})
	tasks.Complete(store.DefaultListName, "Buy groceries")
	mustRun(t, eng, RunOpts{})
	if !tasks.Delete(store.DefaultListName, "Buy groceries") {
		t.Fatalf("delete failed")
	}

	report := mustRun(t, eng, RunOpts{})
	if report.TasksCreated != 0 {
		t.Fatalf("orphan task recreated: %+v", report)
	}
	ts, _ := tasks.ListTasks(context.Background(), store.DefaultListName)
	if len(ts) != 0 {
		t.Fatalf("tasks = %#v", ts)
	}
}

func TestMonotonicCompletion(t *testing.T) {
	// A source re-adding an already-completed item never reopens it.
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Renew license\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	mustRun(t, eng, RunOpts{})
	tasks.Complete(store.DefaultListName, "Renew license")
	mustRun(t, eng, RunOpts{})

	docs.Put("OtherNote", "TODO: Renew license\n")
	report := mustRun(t, eng, RunOpts{})
	if report.NewEntries != 0 || report.TasksCreated != 0 {
		t.Fatalf("completed item reopened: %+v", report)
	}
	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if strings.Contains(canonical, "TODO: Renew license") {
		t.Fatalf("canonical has an open entry for a completed item:\n%q", canonical)
	}
}

func TestCompletionWithoutProvenance(t *testing.T) {
	docs := store.NewMemDocs()
	docs.Put(store.DefaultCanonicalName, "Tasks\nTODO: Orphan item\n")
	tasks := store.NewMemTasks()
	if _, err := tasks.CreateTask(context.Background(), store.DefaultListName, "Orphan item"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tasks.Complete(store.DefaultListName, "Orphan item")
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.Completions != 1 || report.RewritesSkipped != 1 || report.SourceRewrites != 0 {
		t.Fatalf("report = %+v", report)
	}
	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if !strings.Contains(canonical, "DONE: Orphan item") {
		t.Fatalf("canonical entry not completed:\n%q", canonical)
	}
}

func TestSourceGoneIsNonFatal(t *testing.T) {
	docs := store.NewMemDocs()
	docs.Put(store.DefaultCanonicalName, "Tasks\nTODO: Lost item [Ghost]\n")
	tasks := store.NewMemTasks()
	if _, err := tasks.CreateTask(context.Background(), store.DefaultListName, "Lost item"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tasks.Complete(store.DefaultListName, "Lost item")
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.Completions != 1 || report.RewritesSkipped != 1 {
		t.Fatalf("report = %+v", report)
	}
	canonical := readDoc(t, docs, store.DefaultCanonicalName)
	if !strings.Contains(canonical, "DONE: Lost item [Ghost]") {
		t.Fatalf("canonical update must proceed without the source:\n%q", canonical)
	}
}

func TestNoMatchingSourceLineIsNonFatal(t *testing.T) {
	docs := store.NewMemDocs()
	docs.Put(store.DefaultCanonicalName, "Tasks\nTODO: Edited item [SourceDoc]\n")
	docs.Put("SourceDoc", "the user rewrote this note entirely\n")
	tasks := store.NewMemTasks()
	if _, err := tasks.CreateTask(context.Background(), store.DefaultListName, "Edited item"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tasks.Complete(store.DefaultListName, "Edited item")
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.Completions != 1 || report.SourceRewrites != 0 || report.RewritesSkipped != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Buy groceries\n")
	tasks := store.NewMemTasks()
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{DryRun: true})
	if !report.DryRun {
		t.Fatalf("report not flagged dry-run: %+v", report)
	}
	if report.NewEntries != 1 || report.TasksCreated != 1 {
		t.Fatalf("dry-run plan counts wrong: %+v", report)
	}

	if _, err := docs.ReadText(context.Background(), store.DocumentID(store.DefaultCanonicalName)); err != store.ErrDocumentNotFound {
		t.Fatalf("canonical document was created during dry-run (err=%v)", err)
	}
	ts, _ := tasks.ListTasks(context.Background(), store.DefaultListName)
	if len(ts) != 0 {
		t.Fatalf("tasks created during dry-run: %#v", ts)
	}
}

func TestTrailingSourceWordRewrite(t *testing.T) {
	// The canonical body may carry the note title as a trailing word; the
	// source line lacks it and must still be found.
	docs := store.NewMemDocs()
	docs.Put(store.DefaultCanonicalName, "Tasks\nTODO: Buy milk Groceries [Groceries]\n")
	docs.Put("Groceries", "TODO: Buy milk\n")
	tasks := store.NewMemTasks()
	if _, err := tasks.CreateTask(context.Background(), store.DefaultListName, "Buy milk Groceries"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tasks.Complete(store.DefaultListName, "Buy milk Groceries")
	eng := newTestEngine(t, docs, tasks)

	report := mustRun(t, eng, RunOpts{})
	if report.SourceRewrites != 1 {
		t.Fatalf("report = %+v", report)
	}
	if source := readDoc(t, docs, "Groceries"); !strings.Contains(source, "DONE: Buy milk") {
		t.Fatalf("source not rewritten:\n%q", source)
	}
}

func TestPassRecordAppended(t *testing.T) {
	dir := t.TempDir()
	docs := store.NewMemDocs()
	docs.Put("SourceDoc", "TODO: Buy groceries\n")
	tasks := store.NewMemTasks()
	eng, err := New(Config{
		Docs:        docs,
		Tasks:       tasks,
		Logger:      logs.Discard(),
		PassLogDir:  dir,
		LogMaxLines: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mustRun(t, eng, RunOpts{})
	recs, err := store.ReadPassTail(dir, 0)
	if err != nil {
		t.Fatalf("ReadPassTail: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recs = %#v", recs)
	}
	if recs[0].TasksCreated != 1 || recs[0].Error != "" {
		t.Fatalf("rec = %+v", recs[0])
	}
}
