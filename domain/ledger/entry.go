// Package ledger provides the append-only record of a simulation run.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/agent"
)

// EntryType classifies the type of ledger entry.
type EntryType string

const (
	EntryRunStarted   EntryType = "run_started"
	EntryRunCompleted EntryType = "run_completed"
	EntryRunFailed    EntryType = "run_failed"
	EntryRunResumed   EntryType = "run_resumed"
	EntryTransition   EntryType = "transition"
	EntryInstallation EntryType = "installation"
	EntryAbandonment  EntryType = "abandonment"
	EntryImpact       EntryType = "impact"
	EntryCheckpoint   EntryType = "checkpoint"
)

// Entry represents a single record in the ledger.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	RunID     string          `json:"run_id"`
	Step      int             `json:"step"`
	AgentID   string          `json:"agent_id,omitempty"`
	Stage     agent.Stage     `json:"stage,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// RunDetails contains details for run lifecycle entries.
type RunDetails struct {
	Seed   uint64 `json:"seed,omitempty"`
	Steps  int    `json:"steps,omitempty"`
	Agents int    `json:"agents,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// TransitionDetails contains details for stage transition entries.
type TransitionDetails struct {
	From   agent.Position `json:"from"`
	To     agent.Position `json:"to"`
	Reason string         `json:"reason,omitempty"`
}

// InstallationDetails contains details for installation entries.
type InstallationDetails struct {
	System string `json:"system"`
}

// AbandonmentDetails contains details for abandoned decisions.
type AbandonmentDetails struct {
	System   string `json:"system"`
	Obstacle string `json:"obstacle,omitempty"`
}

// ImpactDetails contains details for scenario impacts.
type ImpactDetails struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Affected    int    `json:"affected,omitempty"`
}

// NewEntry creates a new ledger entry.
func NewEntry(entryType EntryType, step int, agentID string, stage agent.Stage, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	return Entry{
		Timestamp: time.Now(),
		Type:      entryType,
		Step:      step,
		AgentID:   agentID,
		Stage:     stage,
		Details:   detailsJSON,
	}
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
