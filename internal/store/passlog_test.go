package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"remindsync/internal/model"
)

func TestPassLogAppendAndTail(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 5; i++ {
		rec := model.PassRecord{
			ID:        fmt.Sprintf("pass-%d", i),
			StartedAt: time.Now().UTC(),
		}
		if err := AppendPass(dir, rec, 0); err != nil {
			t.Fatalf("AppendPass: %v", err)
		}
	}

	all, err := ReadPassTail(dir, 0)
	if err != nil {
		t.Fatalf("ReadPassTail: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d", len(all))
	}

	tail, err := ReadPassTail(dir, 2)
	if err != nil {
		t.Fatalf("ReadPassTail: %v", err)
	}
	if len(tail) != 2 || tail[0].ID != "pass-3" || tail[1].ID != "pass-4" {
		t.Fatalf("tail = %#v", tail)
	}
}

func TestPassLogRetentionTrim(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 10; i++ {
		rec := model.PassRecord{ID: fmt.Sprintf("pass-%d", i)}
		if err := AppendPass(dir, rec, 3); err != nil {
			t.Fatalf("AppendPass: %v", err)
		}
	}

	b, err := os.ReadFile(filepath.Join(dir, passLogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want 3:\n%s", len(lines), b)
	}

	recs, err := ReadPassTail(dir, 0)
	if err != nil {
		t.Fatalf("ReadPassTail: %v", err)
	}
	if recs[0].ID != "pass-7" || recs[2].ID != "pass-9" {
		t.Fatalf("recs = %#v", recs)
	}
}

func TestPassLogMissingFileIsEmpty(t *testing.T) {
	recs, err := ReadPassTail(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("ReadPassTail: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("recs = %#v", recs)
	}
}
