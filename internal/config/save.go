package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/trowser/internal/bgscheduler"
)

// DefaultSaveDebounce and MaxSaveDebounce bound the save-coalescing
// timer, per spec.md §6: "Writes are debounced by a timer (default 3 s,
// max 60 s)."
const (
	DefaultSaveDebounce = 3 * time.Second
	MaxSaveDebounce      = 60 * time.Second
)

// Saver debounces writes of a Config to path; when the debounce timer
// fires, the write is skipped if the serialized content is unchanged from
// what was last read or written, fingerprinted with xxhash per the
// teacher's and BeHierarchic's shared use of cespare/xxhash/v2 for
// cheap content fingerprints.
type Saver struct {
	path     string
	sched    *bgscheduler.Scheduler
	task     *bgscheduler.Task
	debounce time.Duration

	lastHash uint64
	pending  *Config
}

// NewSaver wires a debounced saver for path, driven by sched's per-task
// timer (the same bgscheduler.After mechanism IncSearchFSM uses for its
// own debounce).
func NewSaver(path string, sched *bgscheduler.Scheduler) *Saver {
	return &Saver{
		path:     path,
		sched:    sched,
		task:     bgscheduler.NewTask("config-save", bgscheduler.PrioritySearchInc),
		debounce: DefaultSaveDebounce,
	}
}

// SetDebounce overrides the coalescing delay; a value outside
// (0, MaxSaveDebounce] selects DefaultSaveDebounce instead.
func (s *Saver) SetDebounce(d time.Duration) {
	if d <= 0 || d > MaxSaveDebounce {
		d = DefaultSaveDebounce
	}
	s.debounce = d
}

// Fingerprint is the xxhash of cfg's canonical JSON encoding, used both
// to seed a Saver's baseline right after Load and to decide, on each
// debounced flush, whether the file actually needs rewriting.
func Fingerprint(cfg *Config) uint64 {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return xxhash.Sum64(data)
}

// NoteLoaded records cfg's fingerprint as the "last read" baseline, so
// that saving an unmodified config right after loading it is a no-op.
func (s *Saver) NoteLoaded(cfg *Config) {
	s.lastHash = Fingerprint(cfg)
}

// RequestSave schedules a debounced write of cfg. Repeated calls before
// the debounce elapses replace the pending snapshot and restart the
// timer, so only the most recent config is ever written, and only one
// write happens per quiet period.
func (s *Saver) RequestSave(cfg *Config) {
	s.pending = cfg
	s.sched.After(s.task, s.debounce, s.flush)
}

func (s *Saver) flush() {
	cfg := s.pending
	s.pending = nil
	if cfg == nil {
		return
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		slog.Warn("config: failed to serialize", "error", err)
		return
	}
	sum := xxhash.Sum64(data)
	if sum == s.lastHash {
		return
	}
	if err := s.writeWithBackup(data); err != nil {
		slog.Warn("config: failed to save", "path", s.path, "error", err)
		return
	}
	s.lastHash = sum
}

// writeWithBackup keeps one overwrite-protected .bak copy: the existing
// file (if any) is copied to path+".bak" before the new content
// replaces path.
func (s *Saver) writeWithBackup(data []byte) error {
	if existing, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", existing, 0o600); err != nil {
			slog.Warn("config: failed to refresh backup", "path", s.path+".bak", "error", err)
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}
