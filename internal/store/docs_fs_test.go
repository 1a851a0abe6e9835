package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFSDocsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFSDocs(t.TempDir())

	id, err := s.CreateDocument(ctx, "Groceries", "TODO: Buy milk\n")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	text, err := s.ReadText(ctx, id)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if text != "TODO: Buy milk\n" {
		t.Fatalf("text = %q", text)
	}

	if err := s.WriteText(ctx, id, "DONE: Buy milk\n"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	text, err = s.ReadText(ctx, id)
	if err != nil {
		t.Fatalf("ReadText after write: %v", err)
	}
	if text != "DONE: Buy milk\n" {
		t.Fatalf("text = %q", text)
	}
}

func TestFSDocsCreateRefusesDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewFSDocs(t.TempDir())

	if _, err := s.CreateDocument(ctx, "Note", "a\n"); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if _, err := s.CreateDocument(ctx, "Note", "b\n"); !errors.Is(err, ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists; got %v", err)
	}
	text, _ := s.ReadText(ctx, DocumentID("Note"))
	if text != "a\n" {
		t.Fatalf("original content clobbered: %q", text)
	}
}

func TestFSDocsReadMissing(t *testing.T) {
	s := NewFSDocs(t.TempDir())
	if _, err := s.ReadText(context.Background(), DocumentID("nope")); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound; got %v", err)
	}
}

func TestFSDocsListSortedAndFiltered(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFSDocs(dir)

	for _, name := range []string{"Zebra", "Alpha", "Tasks"} {
		if _, err := s.CreateDocument(ctx, name, ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	// Non-document files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "stray.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir.txt"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ids, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	want := []DocumentID{"Alpha", "Tasks", "Zebra"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestFSDocsListMissingDirIsEmpty(t *testing.T) {
	s := NewFSDocs(filepath.Join(t.TempDir(), "does-not-exist"))
	ids, err := s.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("ids = %v", ids)
	}
}
