package watcher

import (
	"context"

	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
	"github.com/samvad-hq/aoi-inspection-client/pkg/publishers"
)

// SummaryFetcher is the slice of the AOI adapter the watcher polls.
type SummaryFetcher interface {
	FetchWaferAOIList(ctx context.Context, q aoi.SummaryQuery) ([]aoi.WaferSummary, error)
}

// EventPublisher publishes wafer events downstream and reports how many
// sinks accepted each one.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which wafer summaries were already delivered.
type Deduper interface {
	Seen(key string) (bool, error)
	Mark(key string) error
}

// Recorder receives poll and delivery counters.
type Recorder interface {
	ObservePoll(target string, seconds float64, err error)
	Published(target string)
	Skipped(target string)
	PublishFailed(target string)
}
