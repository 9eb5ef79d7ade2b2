package cleanup

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slidesmith/slidesmith/internal/home"
)

func testSweeper(t *testing.T) (*Sweeper, *home.Dir) {
	t.Helper()
	dirs, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := dirs.EnsureExists(); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSweeper(dirs, 24*time.Hour, time.Hour, logger), dirs
}

func writeExtraction(t *testing.T, dirs *home.Dir, id string, expiresAt time.Time) string {
	t.Helper()
	dir := filepath.Join(dirs.ExtractedDir(), id)
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	meta, _ := json.Marshal(map[string]any{"expires_at": expiresAt, "image_count": 0})
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), meta, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSweepDeletesExpiredExtractions(t *testing.T) {
	s, dirs := testSweeper(t)
	expired := writeExtraction(t, dirs, "expired", time.Now().UTC().Add(-time.Hour))
	fresh := writeExtraction(t, dirs, "fresh", time.Now().UTC().Add(time.Hour))

	if got := s.SweepNow(); got != 1 {
		t.Errorf("deleted = %d, want 1", got)
	}
	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Error("expired extraction still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh extraction removed: %v", err)
	}
}

func TestSweepUsesModTimeWithoutMetadata(t *testing.T) {
	s, dirs := testSweeper(t)
	orphan := filepath.Join(dirs.ExtractedDir(), "orphan")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatal(err)
	}

	// Recent orphan survives.
	if got := s.SweepNow(); got != 0 {
		t.Errorf("deleted = %d, want 0", got)
	}

	// Same directory seen from 48h in the future is past retention.
	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if got := s.SweepNow(); got != 1 {
		t.Errorf("deleted = %d, want 1", got)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphan extraction still present")
	}
}

func TestSweepDeletesAgedUploadsAndOutput(t *testing.T) {
	s, dirs := testSweeper(t)
	upload := filepath.Join(dirs.UploadsDir(), "old_template.json")
	deck := filepath.Join(dirs.OutputDir(), "old.deck.json")
	assets := filepath.Join(dirs.OutputDir(), "old_assets")
	for _, p := range []string{upload, deck} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(assets, 0o755); err != nil {
		t.Fatal(err)
	}

	// Everything is fresh right now.
	if got := s.SweepNow(); got != 0 {
		t.Errorf("deleted = %d, want 0", got)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if got := s.SweepNow(); got != 3 {
		t.Errorf("deleted = %d, want 3", got)
	}
	for _, p := range []string{upload, deck, assets} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still present", p)
		}
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	s, _ := testSweeper(t)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.Run(stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
