package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const lockFileName = "run.lock"

// lockInfo is the advisory lock token. A token younger than the staleness
// threshold means another pass is in flight; an older one means the prior
// holder crashed and the lock can be reclaimed.
type lockInfo struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// acquireLock takes the workspace pass lock. ok=false means a live lock is
// held elsewhere and the caller should skip the pass (not queue it).
// The returned release func must run on every exit path.
func acquireLock(dir string, stale time.Duration, logger *slog.Logger) (release func(), ok bool, err error) {
	path := filepath.Join(dir, lockFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, false, err
	}

	host, _ := os.Hostname()
	info := lockInfo{
		Owner:      fmt.Sprintf("%s/%d", host, os.Getpid()),
		AcquiredAt: time.Now().UTC(),
	}
	b, err := json.Marshal(info)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.Write(b)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				if werr != nil {
					return nil, false, werr
				}
				return nil, false, cerr
			}
			return func() { _ = os.Remove(path) }, true, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, false, err
		}

		held, readErr := readLock(path)
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				// Holder released between our open and read; retry.
				continue
			}
			// Unreadable token: treat as abandoned and reclaim.
			logger.Warn("reclaiming unreadable lock token", slog.String("path", path), slog.String("error", readErr.Error()))
			_ = os.Remove(path)
			continue
		}
		age := time.Since(held.AcquiredAt)
		if age < stale {
			return nil, false, nil
		}
		logger.Warn("reclaiming stale lock",
			slog.String("owner", held.Owner),
			slog.Duration("age", age.Round(time.Second)),
		)
		_ = os.Remove(path)
	}
	// Lost the race twice; treat as contention.
	return nil, false, nil
}

func readLock(path string) (lockInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return lockInfo{}, err
	}
	var info lockInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return lockInfo{}, err
	}
	if info.AcquiredAt.IsZero() {
		return lockInfo{}, errors.New("lock token missing timestamp")
	}
	return info, nil
}
