// Package cleanup removes aged files from the home directory: expired
// extraction sessions, old uploads, and old generated decks.
package cleanup

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/slidesmith/slidesmith/internal/home"
)

// DefaultRetention is how long files are kept without explicit expiry.
const DefaultRetention = 24 * time.Hour

// DefaultInterval is the sweep cadence.
const DefaultInterval = time.Hour

// Sweeper periodically deletes expired files.
type Sweeper struct {
	dirs      *home.Dir
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper creates a sweeper over the home directory. Non-positive
// retention or interval fall back to the defaults.
func NewSweeper(dirs *home.Dir, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		dirs:      dirs,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps on the configured interval until the stop channel closes. An
// initial sweep runs immediately.
func (s *Sweeper) Run(stop <-chan struct{}) {
	s.logger.Info("cleanup sweeper started",
		"retention", s.retention.String(), "interval", s.interval.String())
	s.SweepNow()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			s.logger.Info("cleanup sweeper stopped")
			return
		case <-ticker.C:
			s.SweepNow()
		}
	}
}

// SweepNow runs one sweep and returns how many entries were deleted.
func (s *Sweeper) SweepNow() int {
	deleted := s.sweepExtractions()
	deleted += s.sweepAgedFiles(s.dirs.UploadsDir())
	deleted += s.sweepAgedFiles(s.dirs.OutputDir())
	if deleted > 0 {
		s.logger.Info("cleanup completed", "deleted", deleted)
	}
	return deleted
}

// sweepExtractions deletes extraction sessions past their recorded expiry.
// Sessions without readable metadata fall back to the mtime rule.
func (s *Sweeper) sweepExtractions() int {
	entries, err := os.ReadDir(s.dirs.ExtractedDir())
	if err != nil {
		return 0
	}

	now := s.now().UTC()
	deleted := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.dirs.ExtractedDir(), entry.Name())

		expiresAt, ok := s.readExpiry(filepath.Join(dir, "metadata.json"))
		if !ok {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			expiresAt = info.ModTime().UTC().Add(s.retention)
		}

		if now.After(expiresAt) {
			if err := os.RemoveAll(dir); err != nil {
				s.logger.Warn("failed to delete extraction", "path", dir, "error", err)
				continue
			}
			s.logger.Debug("extraction deleted", "path", dir, "expired_at", expiresAt)
			deleted++
		}
	}
	return deleted
}

func (s *Sweeper) readExpiry(path string) (time.Time, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, false
	}
	var meta struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return meta.ExpiresAt, true
}

// sweepAgedFiles deletes direct children of dir older than the retention,
// files and directories alike.
func (s *Sweeper) sweepAgedFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	cutoff := s.now().UTC().Add(-s.retention)
	deleted := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().UTC().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to delete aged file", "path", path, "error", err)
			continue
		}
		deleted++
	}
	return deleted
}
