package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
	"github.com/samvad-hq/aoi-inspection-client/pkg/publishers"
	"github.com/samvad-hq/aoi-inspection-client/pkg/targets"
)

const tracerName = "github.com/samvad-hq/aoi-inspection-client/internal/watcher"

// TargetProcessor polls one target and publishes the summaries it has not
// delivered before.
type TargetProcessor struct {
	fetcher    SummaryFetcher
	publisher  EventPublisher
	deduper    Deduper
	recorder   Recorder
	log        logger.Logger
	timeLayout string
	now        func() time.Time
}

// NewTargetProcessor wires a processor. publisher, deduper and recorder may be nil.
func NewTargetProcessor(fetcher SummaryFetcher, publisher EventPublisher, deduper Deduper, recorder Recorder, log logger.Logger, timeLayout string) *TargetProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &TargetProcessor{
		fetcher:    fetcher,
		publisher:  publisher,
		deduper:    deduper,
		recorder:   recorder,
		log:        log,
		timeLayout: timeLayout,
		now:        time.Now,
	}
}

// SeenKey identifies a summary per target.
func SeenKey(targetID string, s aoi.WaferSummary) string {
	return targetID + "|" + s.Wafer
}

// Process runs one poll of tgt.
func (p *TargetProcessor) Process(ctx context.Context, tgt targets.Target) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "watcher.poll_target")
	span.SetAttributes(attribute.String("aoi.target_id", tgt.ID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	q := tgt.Query(p.now(), p.timeLayout)
	summaries, err := p.fetcher.FetchWaferAOIList(ctx, q)
	if p.recorder != nil {
		p.recorder.ObservePoll(tgt.ID, time.Since(start).Seconds(), err)
	}
	if err != nil {
		return fmt.Errorf("fetch summaries for target %s: %w", tgt.ID, err)
	}

	fresh := p.filterNew(tgt, summaries)
	span.SetAttributes(
		attribute.Int("aoi.summaries", len(summaries)),
		attribute.Int("aoi.summaries_new", len(fresh)),
	)

	var errs []error
	published := 0
	for _, s := range fresh {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := p.publish(ctx, tgt, s); err != nil {
			errs = append(errs, err)
			continue
		}
		published++
	}

	p.log.InfoObj("target poll completed", "target_result", map[string]any{
		"target_id":  tgt.ID,
		"start_time": q.StartTime,
		"end_time":   q.EndTime,
		"fetched":    len(summaries),
		"new":        len(fresh),
		"published":  published,
	})
	return errors.Join(errs...)
}

// filterNew drops summaries already marked for this target and repeats of a
// key within the same response. A failed lookup keeps the summary so
// delivery is retried rather than lost.
func (p *TargetProcessor) filterNew(tgt targets.Target, summaries []aoi.WaferSummary) []aoi.WaferSummary {
	out := make([]aoi.WaferSummary, 0, len(summaries))
	batch := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		key := SeenKey(tgt.ID, s)
		if _, dup := batch[key]; dup {
			p.skip(tgt.ID)
			continue
		}
		batch[key] = struct{}{}

		if p.deduper != nil {
			seen, err := p.deduper.Seen(key)
			if err != nil {
				p.log.WarnObj("seen lookup failed", "dedupe_error", map[string]any{
					"target_id": tgt.ID,
					"key":       key,
					"error":     err.Error(),
				})
			}
			if seen {
				p.skip(tgt.ID)
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (p *TargetProcessor) skip(targetID string) {
	if p.recorder != nil {
		p.recorder.Skipped(targetID)
	}
}

func (p *TargetProcessor) publish(ctx context.Context, tgt targets.Target, s aoi.WaferSummary) error {
	if p.publisher == nil {
		return nil
	}

	evt := publishers.NewEvent(tgt.ID, tgt.Name, s)
	accepted, err := p.publisher.Publish(ctx, evt)
	if accepted == 0 {
		if p.recorder != nil {
			p.recorder.PublishFailed(tgt.ID)
		}
		if err == nil {
			err = errors.New("no publisher accepted the event")
		}
		return fmt.Errorf("publish wafer %s for target %s: %w", s.Wafer, tgt.ID, err)
	}
	if err != nil {
		p.log.WarnObj("partial publish", "publish_error", map[string]any{
			"target_id": tgt.ID,
			"wafer":     s.Wafer,
			"accepted":  accepted,
			"error":     err.Error(),
		})
	}
	if p.recorder != nil {
		p.recorder.Published(tgt.ID)
	}

	if p.deduper != nil {
		if err := p.deduper.Mark(SeenKey(tgt.ID, s)); err != nil {
			return fmt.Errorf("mark wafer %s for target %s: %w", s.Wafer, tgt.ID, err)
		}
	}
	return nil
}
