package watcher

import (
	"testing"
	"time"
)

func state(files map[string]FileState) *WatchState {
	return &WatchState{Timestamp: time.Now(), Files: files}
}

func TestCompare_IdenticalStates(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	files := map[string]FileState{"a.csv": {Size: 10, ModTime: t0}}

	if changes := Compare(state(files), state(files)); len(changes) != 0 {
		t.Errorf("expected 0 changes, got %v", changes)
	}
	if changes := Compare(state(nil), state(nil)); len(changes) != 0 {
		t.Errorf("expected 0 changes for empty states, got %v", changes)
	}
}

func TestCompare_AddedModifiedRemoved(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := state(map[string]FileState{
		"a.csv":    {Size: 10, ModTime: t0},
		"b.csv":    {Size: 10, ModTime: t0},
		"c.csv":    {Size: 10, ModTime: t0},
		"gone.csv": {Size: 10, ModTime: t0},
	})
	curr := state(map[string]FileState{
		"a.csv":   {Size: 10, ModTime: t0},
		"b.csv":   {Size: 12, ModTime: t0},
		"c.csv":   {Size: 10, ModTime: t0.Add(time.Second)},
		"new.csv": {Size: 1, ModTime: t0},
	})

	changes := Compare(prev, curr)
	want := []Change{
		{Path: "b.csv", Kind: ChangeModified},
		{Path: "c.csv", Kind: ChangeModified},
		{Path: "new.csv", Kind: ChangeAdded},
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %v", len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d: expected %+v, got %+v", i, want[i], changes[i])
		}
	}
}

func TestImportable(t *testing.T) {
	tests := map[string]bool{
		"apy.csv":      true,
		"APY.XLSX":     true,
		"data.json":    true,
		"~$apy.xlsx":   false,
		".partial.csv": false,
		"readme.md":    false,
		"csv":          false,
	}
	for name, want := range tests {
		if got := Importable(name); got != want {
			t.Errorf("Importable(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDedup_SuppressesRepeats(t *testing.T) {
	w := New(t.TempDir(), time.Minute, &fakeImporter{}, nil)
	a := Alert{Level: "warning", Title: "Snapshot failed", Message: "x"}

	if got := w.dedup([]Alert{a}); len(got) != 1 {
		t.Fatalf("expected first alert through, got %d", len(got))
	}
	if got := w.dedup([]Alert{a}); len(got) != 0 {
		t.Errorf("expected repeat suppressed, got %d", len(got))
	}
	w.dedup(nil)
	if got := w.dedup([]Alert{a}); len(got) != 1 {
		t.Errorf("expected alert after a clear cycle, got %d", len(got))
	}
}
