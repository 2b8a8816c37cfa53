package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
)

// Event represents one newly observed wafer summary published downstream.
type Event struct {
	ID          string           `json:"id"`
	TargetID    string           `json:"target_id"`
	TargetName  string           `json:"target_name"`
	Summary     aoi.WaferSummary `json:"summary"`
	CollectedAt time.Time        `json:"collected_at"`
}

// NewEvent constructs an Event for the given target + summary.
func NewEvent(targetID, targetName string, summary aoi.WaferSummary) Event {
	return Event{
		ID:          uuid.NewString(),
		TargetID:    targetID,
		TargetName:  targetName,
		Summary:     summary,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue-style sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":  e.ID,
		"target_id": e.TargetID,
		"lot":       e.Summary.Lot,
		"wafer":     e.Summary.Wafer,
	}
}
