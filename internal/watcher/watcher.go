// Package watcher monitors an inbox directory for crop observation files and
// imports new or changed files, emitting alerts as it goes.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/cropflow/internal/crop"
)

// Importer stores parsed observations.
type Importer interface {
	InsertObservations(ctx context.Context, obs []crop.Observation) (int, error)
}

// FileState is the size and modification time of one inbox file.
type FileState struct {
	Size    int64
	ModTime time.Time
}

// WatchState captures a point-in-time listing of the inbox.
type WatchState struct {
	Timestamp time.Time
	Files     map[string]FileState
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Watcher polls an inbox directory at a regular interval and imports
// observation files that appeared or changed since the previous poll.
type Watcher struct {
	dir           string
	interval      time.Duration
	importer      Importer
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts

	// ImportExisting imports the files already present at startup.
	ImportExisting bool
	// Parse reads a file; crop.ParseFile by default.
	Parse func(path string) ([]crop.Observation, error)
}

// New creates a Watcher over the given inbox directory.
func New(dir string, interval time.Duration, importer Importer, alertFn func(Alert)) *Watcher {
	return &Watcher{
		dir:           dir,
		interval:      interval,
		importer:      importer,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
		Parse:         crop.ParseFile,
	}
}

// Run starts the watch loop. It takes an initial snapshot, then checks at
// every interval. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.previous == nil {
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		}
	}
}

// Start takes the baseline snapshot. With ImportExisting set, every file
// already in the inbox is imported.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	if w.ImportExisting {
		w.emit(w.importAll(ctx, Compare(&WatchState{}, initial)))
	}
	w.previous = initial
	return nil
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// Check performs a single check cycle: takes a new snapshot, imports files
// that changed since the previous one and returns any alerts. Identical
// alerts are suppressed until the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot()
	if err != nil {
		return w.dedup([]Alert{{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read inbox: %v", err),
			Time:    time.Now(),
		}})
	}

	var raw []Alert
	if w.previous != nil {
		raw = w.importAll(ctx, Compare(w.previous, curr))
	}
	w.previous = curr
	return w.dedup(raw)
}

func (w *Watcher) dedup(raw []Alert) []Alert {
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys
	return alerts
}

// Snapshot lists the importable files in the inbox. A missing directory is
// an empty inbox.
func (w *Watcher) Snapshot() (*WatchState, error) {
	state := &WatchState{
		Timestamp: time.Now(),
		Files:     make(map[string]FileState),
	}

	entries, err := os.ReadDir(w.dir)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || !Importable(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		state.Files[filepath.Join(w.dir, e.Name())] = FileState{Size: info.Size(), ModTime: info.ModTime()}
	}
	return state, nil
}

// Importable reports whether name has an observation file extension.
func Importable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".json", ".xlsx":
		return !strings.HasPrefix(filepath.Base(name), ".") && !strings.HasPrefix(filepath.Base(name), "~$")
	}
	return false
}

// importAll parses and stores each changed file in path order.
func (w *Watcher) importAll(ctx context.Context, changes []Change) []Alert {
	var alerts []Alert
	for _, c := range changes {
		alerts = append(alerts, w.importFile(ctx, c))
	}
	return alerts
}

func (w *Watcher) importFile(ctx context.Context, c Change) Alert {
	now := time.Now()
	name := filepath.Base(c.Path)

	obs, err := w.Parse(c.Path)
	if err != nil {
		return Alert{Level: "warning", Title: "Import failed: " + name, Message: err.Error(), Time: now}
	}
	if len(obs) == 0 {
		return Alert{Level: "warning", Title: "Empty file: " + name, Message: "No observations found", Time: now}
	}
	n, err := w.importer.InsertObservations(ctx, obs)
	if err != nil {
		return Alert{Level: "critical", Title: "Store failed: " + name, Message: err.Error(), Time: now}
	}

	verb := "Imported"
	if c.Kind == ChangeModified {
		verb = "Re-imported"
	}
	return Alert{
		Level:   "info",
		Title:   fmt.Sprintf("%s %s", verb, name),
		Message: fmt.Sprintf("%d observations across %d regions", n, countRegions(obs)),
		Time:    now,
	}
}

func countRegions(obs []crop.Observation) int {
	seen := make(map[string]bool)
	for _, o := range obs {
		seen[o.Region] = true
	}
	return len(seen)
}

// sortedPaths returns the keys of files in lexical order.
func sortedPaths(files map[string]FileState) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
