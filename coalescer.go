package crucible

import "os"

// RawOp is a bitset of filesystem operation flags, as delivered by one
// raw path-operation inside a watcher batch.
type RawOp uint8

const (
	OpCreate RawOp = 1 << iota
	OpWrite
	OpRename
	OpChmod
	OpRemove
)

// RawEvent is one raw path-operation as delivered by the filesystem
// watcher, before coalescing.
type RawEvent struct {
	Path string
	Op   RawOp
}

// SyncEventKind distinguishes the two coalesced event variants.
type SyncEventKind int

const (
	Updated SyncEventKind = iota
	Removed
)

// SyncEvent is a coalesced, semantic file-sync event.
type SyncEvent struct {
	Kind SyncEventKind
	Path string
}

// statFunc abstracts filesystem existence checks for testability.
type statFunc func(path string) (isFile bool, exists bool)

func osStat(path string) (bool, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return !info.IsDir(), true
}

// Coalesce transforms one batch of raw path-operations into a small set of
// semantic events. Within the batch, only the last operation seen per
// distinct path survives, in original arrival order. A survivor becomes
// Removed if its flags indicate removal; Updated if the path currently
// exists as a file and its flags indicate create/rename/write; otherwise
// it is dropped.
func Coalesce(batch []RawEvent) []SyncEvent {
	return coalesceWithStat(batch, osStat)
}

func coalesceWithStat(batch []RawEvent, stat statFunc) []SyncEvent {
	lastOp := make(map[string]RawOp, len(batch))
	var order []string
	for _, ev := range batch {
		if _, seen := lastOp[ev.Path]; !seen {
			order = append(order, ev.Path)
		}
		lastOp[ev.Path] = ev.Op
	}

	events := make([]SyncEvent, 0, len(order))
	for _, path := range order {
		op := lastOp[path]
		switch {
		case op&OpRemove != 0:
			events = append(events, SyncEvent{Kind: Removed, Path: path})
		case op&(OpCreate|OpRename|OpWrite) != 0:
			isFile, exists := stat(path)
			if exists && isFile {
				events = append(events, SyncEvent{Kind: Updated, Path: path})
			}
		}
	}
	return events
}
