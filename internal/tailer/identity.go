// Package tailer implements the per-file monitoring engine: cursor tracking,
// rotation and truncation detection, and incremental line reading.
package tailer

import "os"

// Identity is a point-in-time snapshot of a monitored file's identity, used
// purely for change detection between polls. It is never persisted.
type Identity struct {
	Dev  uint64
	Ino  uint64
	Size int64
}

// Stat resolves the current identity of the file at path. The second return
// is false when the path does not currently resolve to a stat-able file.
func Stat(path string) (Identity, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return Identity{}, false
	}
	dev, ino := fileID(fi)
	return Identity{Dev: dev, Ino: ino, Size: fi.Size()}, true
}

// Verdict is the cursor tracker's decision about what happened to a monitored
// file between two polls.
type Verdict int

const (
	// VerdictUnavailable means the path does not resolve; wait and retry.
	VerdictUnavailable Verdict = iota
	// VerdictFirstOpen means there is no prior identity for this path.
	VerdictFirstOpen
	// VerdictRotated means the file at the path has a different underlying
	// identity than before: it was replaced.
	VerdictRotated
	// VerdictTruncated means the same underlying file shrank in place.
	VerdictTruncated
	// VerdictUnchanged means the same file, same size or grown.
	VerdictUnchanged
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnavailable:
		return "unavailable"
	case VerdictFirstOpen:
		return "first-open"
	case VerdictRotated:
		return "rotated"
	case VerdictTruncated:
		return "truncated"
	case VerdictUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// Compare judges the freshly polled identity against the previous one (nil if
// none). Device+inode is the authoritative rotation signal; size only
// distinguishes truncation from growth once device+inode match.
func Compare(prev *Identity, cur Identity, ok bool) Verdict {
	if !ok {
		return VerdictUnavailable
	}
	if prev == nil {
		return VerdictFirstOpen
	}
	if cur.Dev != prev.Dev || cur.Ino != prev.Ino {
		return VerdictRotated
	}
	if cur.Size < prev.Size {
		return VerdictTruncated
	}
	return VerdictUnchanged
}
