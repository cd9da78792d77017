package networkdrive

import (
	"context"
	"path"
	"sort"

	"go.uber.org/zap"
)

// SnapshotEntry is one path of the recursive directory snapshot.
type SnapshotEntry struct {
	Path string
	Dir  bool
}

// Snapshot is the recursive listing of the share taken on first access.
// The base directory itself is the entry with an empty path.
type Snapshot struct {
	Entries []SnapshotEntry
}

// Dirs returns the directory paths of the snapshot, base directory first.
func (s Snapshot) Dirs() []string {
	var out []string
	for _, e := range s.Entries {
		if e.Dir {
			out = append(out, e.Path)
		}
	}
	return out
}

// parentDir returns the snapshot path of the directory holding rel.
func parentDir(rel string) string {
	parent := path.Dir(rel)
	if parent == "." {
		return ""
	}
	return parent
}

// walk lists the share breadth first. Unreadable subdirectories are logged
// and left out; an unreadable base directory fails the walk.
func walk(ctx context.Context, share Share, logger *zap.Logger) (Snapshot, error) {
	snap := Snapshot{Entries: []SnapshotEntry{{Path: "", Dir: true}}}
	queue := []string{""}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
		dir := queue[0]
		queue = queue[1:]

		entries, err := share.ReadDir(ctx, dir)
		if err != nil {
			if dir == "" {
				return Snapshot{}, err
			}
			logger.Warn("Skipping unreadable directory", zap.String("path", dir), zap.Error(err))
			continue
		}

		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, entry := range entries {
			p := path.Join(dir, entry.Name)
			snap.Entries = append(snap.Entries, SnapshotEntry{Path: p, Dir: entry.Dir})
			if entry.Dir {
				queue = append(queue, p)
			}
		}
	}

	return snap, nil
}
