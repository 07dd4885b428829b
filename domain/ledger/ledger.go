package ledger

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/agent"
)

// Ledger provides an append-only record of what happened during a run.
type Ledger struct {
	runID   string
	entries []Entry
	seq     int
	mu      sync.RWMutex
}

// New creates a new ledger for the given run.
func New(runID string) *Ledger {
	return &Ledger{
		runID:   runID,
		entries: make([]Entry, 0),
	}
}

// Restore creates a ledger continuing from persisted entries.
func Restore(runID string, entries []Entry) *Ledger {
	l := New(runID)
	l.entries = append(l.entries, entries...)
	l.seq = len(entries)
	return l
}

// Append adds an entry to the ledger.
func (l *Ledger) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry.RunID = l.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("%s-%d", l.runID, l.seq)
	}

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// EntriesByType returns entries filtered by type.
func (l *Ledger) EntriesByType(entryType EntryType) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.Type == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// EntriesFor returns the entries about one agent.
func (l *Ledger) EntriesFor(agentID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.AgentID == agentID {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// LastEntry returns the most recent entry, or nil if empty.
func (l *Ledger) LastEntry() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	entry := l.entries[len(l.entries)-1]
	return &entry
}

// Count returns the number of entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RunID returns the associated run ID.
func (l *Ledger) RunID() string {
	return l.runID
}

// RecordRunStarted records the start of a run.
func (l *Ledger) RecordRunStarted(seed uint64, agents int) {
	l.Append(NewEntry(EntryRunStarted, 0, "", "", RunDetails{Seed: seed, Agents: agents}))
}

// RecordRunResumed records a run picked up from a checkpoint.
func (l *Ledger) RecordRunResumed(step int) {
	l.Append(NewEntry(EntryRunResumed, step, "", "", RunDetails{Steps: step}))
}

// RecordRunCompleted records the successful completion of a run.
func (l *Ledger) RecordRunCompleted(step int) {
	l.Append(NewEntry(EntryRunCompleted, step, "", "", RunDetails{Steps: step}))
}

// RecordRunFailed records the failure of a run.
func (l *Ledger) RecordRunFailed(step int, reason string) {
	l.Append(NewEntry(EntryRunFailed, step, "", "", RunDetails{Steps: step, Reason: reason}))
}

// RecordTransition records a houseowner moving between positions.
func (l *Ledger) RecordTransition(step int, agentID string, from, to agent.Position, reason string) {
	l.Append(NewEntry(EntryTransition, step, agentID, to.Stage, TransitionDetails{
		From:   from,
		To:     to,
		Reason: reason,
	}))
}

// RecordInstallation records a newly fitted heating system.
func (l *Ledger) RecordInstallation(step int, agentID, system string) {
	l.Append(NewEntry(EntryInstallation, step, agentID, agent.StageActional, InstallationDetails{
		System: system,
	}))
}

// RecordAbandonment records a decision given up at stage.
func (l *Ledger) RecordAbandonment(step int, agentID string, stage agent.Stage, system, obstacle string) {
	l.Append(NewEntry(EntryAbandonment, step, agentID, stage, AbandonmentDetails{
		System:   system,
		Obstacle: obstacle,
	}))
}

// RecordImpact records a scenario impact applied to the population.
func (l *Ledger) RecordImpact(step int, kind, description string, affected int) {
	l.Append(NewEntry(EntryImpact, step, "", "", ImpactDetails{
		Kind:        kind,
		Description: description,
		Affected:    affected,
	}))
}

// RecordCheckpoint records a saved checkpoint.
func (l *Ledger) RecordCheckpoint(step int) {
	l.Append(NewEntry(EntryCheckpoint, step, "", "", nil))
}
