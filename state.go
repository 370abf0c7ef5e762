package crucible

import (
	"sort"
	"sync"
)

// TestStatus is the lifecycle status of a single test.
type TestStatus int

const (
	NotRun TestStatus = iota
	CompilationFailing
	Running
	Passed
	Failed
	Ignored
)

func (s TestStatus) String() string {
	switch s {
	case NotRun:
		return "NotRun"
	case CompilationFailing:
		return "CompilationFailing"
	case Running:
		return "Running"
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	case Ignored:
		return "Ignored"
	default:
		return "Unknown"
	}
}

// TestRecord tracks one test's cumulative history across listings.
type TestRecord struct {
	Name          string
	Status        TestStatus
	TimesExecuted int
}

// CrateState is the persistent state kept for one crate: its identity plus
// the union of unit and doc tests last reported for it.
type CrateState struct {
	Identity  CrateIdentity
	UnitTests map[string]*TestRecord
	DocTests  map[string]*TestRecord
}

func newCrateState(identity CrateIdentity) *CrateState {
	return &CrateState{
		Identity:  identity,
		UnitTests: make(map[string]*TestRecord),
		DocTests:  make(map[string]*TestRecord),
	}
}

// State is the thread-safe mapping from crate full_name to its tests. The
// engine is the sole writer, via Apply, after every successful
// ListAllTests; the front-end reads it via Snapshot.
type State struct {
	mu     sync.RWMutex
	crates map[string]*CrateState // keyed by full_name
	order  []string               // full_names, sorted by Name
}

// NewState returns an empty shared state.
func NewState() *State {
	return &State{crates: make(map[string]*CrateState)}
}

// Apply replaces the per-crate test mappings with a rebuilt version derived
// from a fresh parse: entries present in both old and new retain their
// historical status/count; entries new to this listing start at NotRun;
// entries absent from this listing are dropped entirely. Crates are kept
// sorted by Name.
func (s *State) Apply(inventories []CrateInventory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*CrateState, len(inventories))
	for _, inv := range inventories {
		prev := s.crates[inv.Identity.FullName]
		cs := newCrateState(inv.Identity)

		for _, name := range inv.UnitTests {
			if prev != nil {
				if old, ok := prev.UnitTests[name]; ok {
					cs.UnitTests[name] = &TestRecord{Name: name, Status: old.Status, TimesExecuted: old.TimesExecuted}
					continue
				}
			}
			cs.UnitTests[name] = &TestRecord{Name: name, Status: NotRun}
		}

		for _, dt := range inv.DocTests {
			if prev != nil {
				if old, ok := prev.DocTests[dt.Name]; ok {
					cs.DocTests[dt.Name] = &TestRecord{Name: dt.Name, Status: old.Status, TimesExecuted: old.TimesExecuted}
					continue
				}
			}
			cs.DocTests[dt.Name] = &TestRecord{Name: dt.Name, Status: NotRun}
		}

		next[inv.Identity.FullName] = cs
	}

	order := make([]string, 0, len(next))
	for fullName := range next {
		order = append(order, fullName)
	}
	sort.Slice(order, func(i, j int) bool {
		return next[order[i]].Identity.Name < next[order[j]].Identity.Name
	})

	s.crates = next
	s.order = order
}

// CrateSnapshot is an immutable copy of one crate's state, safe to read
// without holding the State's lock.
type CrateSnapshot struct {
	Identity  CrateIdentity
	UnitTests []TestRecord
	DocTests  []TestRecord
}

// Snapshot returns a deep copy of the current state, crates in stable
// Name order, tests in deterministic name order within each crate.
func (s *State) Snapshot() []CrateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CrateSnapshot, 0, len(s.order))
	for _, fullName := range s.order {
		cs := s.crates[fullName]
		snap := CrateSnapshot{Identity: cs.Identity}
		snap.UnitTests = sortedRecords(cs.UnitTests)
		snap.DocTests = sortedRecords(cs.DocTests)
		out = append(out, snap)
	}
	return out
}

func sortedRecords(m map[string]*TestRecord) []TestRecord {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]TestRecord, 0, len(names))
	for _, name := range names {
		out = append(out, *m[name])
	}
	return out
}
