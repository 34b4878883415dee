package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dm/fleetmon/internal/model"
)

// staticDocument is the on-disk shape a StaticSource reads: the last known
// aggregate counters plus optional history, as written by an operator or an
// export job.
type staticDocument struct {
	Counters model.AggregateCounters `json:"counters"`
	History  []model.HistoryPoint    `json:"history,omitempty"`
}

// StaticSource serves counters from a local JSON document instead of a live
// server. The dashboard falls back to it when the server is unreachable. The
// file is re-read on change so an external refresh shows up without a
// restart.
type StaticSource struct {
	path    string
	log     *slog.Logger
	watcher *fsnotify.Watcher

	mu  sync.RWMutex
	doc staticDocument
}

// NewStaticSource loads the document at path and starts watching it for
// changes. Close releases the watcher.
func NewStaticSource(path string, log *slog.Logger) (*StaticSource, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &StaticSource{path: path, log: log}
	if err := s.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// the old inode's watch dies with it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	s.watcher = watcher
	go s.watch()
	return s, nil
}

func (s *StaticSource) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read fallback document: %w", err)
	}
	var doc staticDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse fallback document: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *StaticSource) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				// Keep serving the previous document.
				s.log.Warn("fallback reload failed", slog.String("error", err.Error()))
				continue
			}
			s.log.Info("fallback document reloaded", slog.String("path", s.path))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("fallback watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops the file watcher.
func (s *StaticSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// BaseURL identifies the source in the UI footer.
func (s *StaticSource) BaseURL() string {
	return "file://" + s.path
}

// Current returns the document's counters.
func (s *StaticSource) Current(context.Context) (model.AggregateCounters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Counters, nil
}

// History returns the document's history points strictly after since. Only
// the global stream exists in a static document.
func (s *StaticSource) History(_ context.Context, stream string, since time.Time) ([]model.HistoryPoint, error) {
	if stream != model.StreamGlobal {
		return nil, fmt.Errorf("static source has no stream %q", stream)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HistoryPoint, 0, len(s.doc.History))
	for _, p := range s.doc.History {
		if since.IsZero() || p.Timestamp.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Nodes returns nothing; a static document carries no per-node state.
func (s *StaticSource) Nodes(context.Context) ([]model.NodeStatus, error) {
	return nil, nil
}
