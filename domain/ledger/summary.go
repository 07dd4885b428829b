package ledger

// Summary aggregates a ledger for reporting.
type Summary struct {
	RunID         string         `json:"run_id"`
	LastStep      int            `json:"last_step"`
	Entries       int            `json:"entries"`
	Transitions   int            `json:"transitions"`
	Installations map[string]int `json:"installations"`
	Abandonments  map[string]int `json:"abandonments"`
	Impacts       int            `json:"impacts"`
	Checkpoints   int            `json:"checkpoints"`
	Completed     bool           `json:"completed"`
	Failure       string         `json:"failure,omitempty"`
}

// Summarize counts installations by system and abandonments by obstacle.
func (l *Ledger) Summarize() Summary {
	s := Summary{
		RunID:         l.runID,
		Installations: make(map[string]int),
		Abandonments:  make(map[string]int),
	}
	for _, e := range l.Entries() {
		s.Entries++
		s.LastStep = max(s.LastStep, e.Step)
		switch e.Type {
		case EntryTransition:
			s.Transitions++
		case EntryInstallation:
			var d InstallationDetails
			if e.DecodeDetails(&d) == nil {
				s.Installations[d.System]++
			}
		case EntryAbandonment:
			var d AbandonmentDetails
			if e.DecodeDetails(&d) == nil {
				s.Abandonments[d.Obstacle]++
			}
		case EntryImpact:
			s.Impacts++
		case EntryCheckpoint:
			s.Checkpoints++
		case EntryRunCompleted:
			s.Completed = true
		case EntryRunFailed:
			var d RunDetails
			if e.DecodeDetails(&d) == nil {
				s.Failure = d.Reason
			}
		}
	}
	return s
}
