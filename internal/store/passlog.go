package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"remindsync/internal/model"
)

const passLogFileName = "passes.jsonl"

func passLogPath(dir string) string {
	return filepath.Join(dir, passLogFileName)
}

// AppendPass appends one pass summary to the workspace pass log, then trims
// the log to at most maxLines lines (0 disables trimming).
func AppendPass(dir string, rec model.PassRecord, maxLines int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := passLogPath(dir)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if maxLines > 0 {
		return trimPassLog(dir, maxLines)
	}
	return nil
}

// trimPassLog rewrites the log keeping only the newest maxLines lines.
// The rewrite is atomic so a reader never sees a half-trimmed log.
func trimPassLog(dir string, maxLines int) error {
	path := passLogPath(dir)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	lines := bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n"))
	if len(lines) <= maxLines {
		return nil
	}
	keep := lines[len(lines)-maxLines:]
	out := append(bytes.Join(keep, []byte("\n")), '\n')
	return atomicWriteFile(dir, passLogFileName+".*.tmp", path, out, 0o644)
}

// ReadPassTail returns the last `limit` pass records in chronological order.
// limit <= 0 returns everything.
func ReadPassTail(dir string, limit int) ([]model.PassRecord, error) {
	f, err := os.Open(passLogPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.PassRecord{}, nil
		}
		return nil, err
	}
	defer f.Close()

	if limit <= 0 {
		var out []model.PassRecord
		sc := bufio.NewScanner(f)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			var rec model.PassRecord
			if err := json.Unmarshal(b, &rec); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", passLogFileName, lineNo, err)
			}
			out = append(out, rec)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		if out == nil {
			out = []model.PassRecord{}
		}
		return out, nil
	}

	// Ring buffer for the last `limit` records.
	ring := make([]model.PassRecord, limit)
	start := 0
	size := 0

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec model.PassRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, err
		}
		if size < limit {
			ring[size] = rec
			size++
		} else {
			ring[start] = rec
			start = (start + 1) % limit
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if size == 0 {
		return []model.PassRecord{}, nil
	}
	if size < limit {
		return ring[:size], nil
	}

	out := make([]model.PassRecord, 0, limit)
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, nil
}
