// Package watcher polls AOI wafer summaries for configured targets and
// publishes the ones that have not been delivered yet.
package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/pkg/targets"
)

// Service runs a poll pass across targets.
type Service struct {
	processor *TargetProcessor
	log       logger.Logger
}

// NewService wraps processor.
func NewService(processor *TargetProcessor, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{processor: processor, log: log}
}

// Run polls every target once. Failures are logged per target and joined.
func (s *Service) Run(ctx context.Context, list []targets.Target) error {
	if s == nil || s.processor == nil || s.processor.fetcher == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no targets configured for watching")
	}
	return errors.Join(s.runAll(ctx, list)...)
}

func (s *Service) runAll(ctx context.Context, list []targets.Target) []error {
	var errs []error
	for _, tgt := range list {
		if ctx.Err() != nil {
			break
		}
		if err := s.processor.Process(ctx, tgt); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("target poll failed", "target_error", map[string]any{
				"target_id": tgt.ID,
				"error":     err.Error(),
			})
		}
	}
	return errs
}
