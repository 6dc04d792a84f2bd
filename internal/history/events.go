package history

import (
	"encoding/json"
	"time"

	"github.com/inful/mdfp"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Event type names double as notification subjects.
const (
	TypeBuildStarted      = "build.started"
	TypeBuildCompleted    = "build.completed"
	TypeReadmeGenerated   = "readme.generated"
	TypeReadmeRegenerated = "readme.regenerated"
)

// BuildStarted is recorded when a build begins.
type BuildStarted struct {
	BaseEvent
	Project string `json:"project"`
	Targets int    `json:"targets"`
}

// NewBuildStarted creates a build.started event.
func NewBuildStarted(buildID, project string, targets int) (*BuildStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"project": project,
		"targets": targets,
	})
	if err != nil {
		return nil, rgerrors.HistoryError("marshal build.started payload", err)
	}

	return &BuildStarted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeBuildStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Project: project,
		Targets: targets,
	}, nil
}

// ReadmeGenerated is recorded when a plugin produces a readme. Fingerprint
// identifies the rendered content so later builds can tell real changes from
// no-ops.
type ReadmeGenerated struct {
	BaseEvent
	Format      string `json:"format"`
	Placement   string `json:"placement"`
	Filename    string `json:"filename"`
	Fingerprint string `json:"fingerprint"`
	Bytes       int    `json:"bytes"`
}

// NewReadmeGenerated creates a readme.generated event, fingerprinting the
// rendered content.
func NewReadmeGenerated(buildID, format, placement, filename, content string) (*ReadmeGenerated, error) {
	fp := mdfp.CalculateFingerprintFromParts("", content)
	payload, err := json.Marshal(map[string]any{
		"format":      format,
		"placement":   placement,
		"filename":    filename,
		"fingerprint": fp,
		"bytes":       len(content),
	})
	if err != nil {
		return nil, rgerrors.HistoryError("marshal readme.generated payload", err)
	}

	return &ReadmeGenerated{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeReadmeGenerated,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Format:      format,
		Placement:   placement,
		Filename:    filename,
		Fingerprint: fp,
		Bytes:       len(content),
	}, nil
}

// ReadmeRegenerated is recorded when a late source mutation forces a readme
// to be rebuilt within the same build.
type ReadmeRegenerated struct {
	BaseEvent
	Filename    string `json:"filename"`
	Fingerprint string `json:"fingerprint"`
	Trigger     string `json:"trigger"`
}

// NewReadmeRegenerated creates a readme.regenerated event. Trigger names the
// mutated source that caused the rebuild.
func NewReadmeRegenerated(buildID, filename, content, trigger string) (*ReadmeRegenerated, error) {
	fp := mdfp.CalculateFingerprintFromParts("", content)
	payload, err := json.Marshal(map[string]any{
		"filename":    filename,
		"fingerprint": fp,
		"trigger":     trigger,
	})
	if err != nil {
		return nil, rgerrors.HistoryError("marshal readme.regenerated payload", err)
	}

	return &ReadmeRegenerated{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeReadmeRegenerated,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Filename:    filename,
		Fingerprint: fp,
		Trigger:     trigger,
	}, nil
}

// BuildCompleted is recorded when a build finishes, whatever the outcome.
type BuildCompleted struct {
	BaseEvent
	Outcome   string        `json:"outcome"`
	Duration  time.Duration `json:"duration_ms"`
	Generated int           `json:"generated"`
}

// NewBuildCompleted creates a build.completed event.
func NewBuildCompleted(buildID, outcome string, duration time.Duration, generated int) (*BuildCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"outcome":     outcome,
		"duration_ms": duration.Milliseconds(),
		"generated":   generated,
	})
	if err != nil {
		return nil, rgerrors.HistoryError("marshal build.completed payload", err)
	}

	return &BuildCompleted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeBuildCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Outcome:   outcome,
		Duration:  duration,
		Generated: generated,
	}, nil
}
