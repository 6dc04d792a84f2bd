package history

import (
	"encoding/json"
	"time"
)

// BuildSummary is a fold of one build's events into the figures the CLI
// history command prints.
type BuildSummary struct {
	BuildID     string
	Project     string
	StartedAt   time.Time
	CompletedAt time.Time
	Outcome     string
	Generated   int
	Regenerated int
}

// Summarize folds a single build's events into a summary. The first event's
// build id wins; payloads that fail to decode are skipped rather than fatal.
func Summarize(events []Event) BuildSummary {
	var s BuildSummary
	for _, e := range events {
		if s.BuildID == "" {
			s.BuildID = e.BuildID()
		}

		switch e.Type() {
		case TypeBuildStarted:
			s.StartedAt = e.Timestamp()
			var p struct {
				Project string `json:"project"`
			}
			if err := json.Unmarshal(e.Payload(), &p); err == nil {
				s.Project = p.Project
			}
		case TypeReadmeGenerated:
			s.Generated++
		case TypeReadmeRegenerated:
			s.Regenerated++
		case TypeBuildCompleted:
			s.CompletedAt = e.Timestamp()
			var p struct {
				Outcome string `json:"outcome"`
			}
			if err := json.Unmarshal(e.Payload(), &p); err == nil {
				s.Outcome = p.Outcome
			}
		}
	}
	return s
}
