package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const docExt = ".txt"

// FSDocs stores documents as <name>.txt files under a single folder.
// Document ids are the bare names.
type FSDocs struct {
	Dir string
}

func NewFSDocs(dir string) FSDocs {
	return FSDocs{Dir: dir}
}

func (s FSDocs) path(id DocumentID) string {
	return filepath.Join(s.Dir, string(id)+docExt)
}

func (s FSDocs) ListDocuments(ctx context.Context) ([]DocumentID, error) {
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []DocumentID{}, nil
		}
		return nil, err
	}
	var out []DocumentID
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, docExt) {
			continue
		}
		out = append(out, DocumentID(strings.TrimSuffix(name, docExt)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if out == nil {
		out = []DocumentID{}
	}
	return out, nil
}

func (s FSDocs) ReadText(ctx context.Context, id DocumentID) (string, error) {
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrDocumentNotFound
		}
		return "", err
	}
	return string(b), nil
}

func (s FSDocs) WriteText(ctx context.Context, id DocumentID, text string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, string(id)+".*.tmp", s.path(id), []byte(text), 0o644)
}

func (s FSDocs) CreateDocument(ctx context.Context, name, initial string) (DocumentID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("document name is empty")
	}
	id := DocumentID(name)
	if _, err := os.Stat(s.path(id)); err == nil {
		return "", ErrDocumentExists
	}
	if err := s.WriteText(ctx, id, initial); err != nil {
		return "", err
	}
	return id, nil
}
