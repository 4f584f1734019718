package watcher

// ChangeKind classifies a difference between two inbox listings.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
)

// Change is one file to import.
type Change struct {
	Path string
	Kind ChangeKind
}

// Compare returns the files that appeared in curr or whose size or
// modification time differ from prev, in path order. Removed files are
// ignored: imported observations stay in the store.
func Compare(prev, curr *WatchState) []Change {
	var changes []Change
	for _, path := range sortedPaths(curr.Files) {
		now := curr.Files[path]
		before, ok := prev.Files[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Kind: ChangeAdded})
		case before.Size != now.Size || !before.ModTime.Equal(now.ModTime):
			changes = append(changes, Change{Path: path, Kind: ChangeModified})
		}
	}
	return changes
}
