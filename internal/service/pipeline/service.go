// Package pipeline orchestrates extract, aggregate, and publish into one
// recorded run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"hpic-membership/internal/domain"
)

// Service runs the pipeline end to end and records every run, successful or
// not, in the metastore.
type Service struct {
	extractor  domain.Extractor
	aggregator domain.Aggregator
	publisher  domain.Publisher
	runs       domain.RunRepository
	logger     *slog.Logger
}

// NewService creates the pipeline orchestrator.
func NewService(
	extractor domain.Extractor,
	aggregator domain.Aggregator,
	publisher domain.Publisher,
	runs domain.RunRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		extractor:  extractor,
		aggregator: aggregator,
		publisher:  publisher,
		runs:       runs,
		logger:     logger,
	}
}

// Run executes one full pipeline pass ending at the asOf month. The run is
// recorded before any work starts, so even a crash mid-extraction leaves a
// FAILED row behind. Returns the finished run.
func (s *Service) Run(ctx context.Context, trigger domain.TriggerType, asOf domain.Month) (*domain.PipelineRun, error) {
	run := &domain.PipelineRun{
		ID:          domain.NewID(),
		Status:      domain.RunStatusPending,
		TriggerType: trigger,
		AsOf:        asOf,
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	logger := s.logger.With("run_id", run.ID, "as_of", asOf.String(), "trigger", trigger)

	if err := s.runs.UpdateRunStarted(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("mark run started: %w", err)
	}

	result, runErr := s.execute(ctx, asOf, logger)
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		if err := s.runs.UpdateRunFailed(ctx, run.ID, runErr.Error()); err != nil {
			logger.Error("failed to record run failure", "error", err)
		}
		return s.runs.GetRunByID(ctx, run.ID)
	}

	if err := s.runs.UpdateRunSuccess(ctx, run.ID, *result); err != nil {
		return nil, fmt.Errorf("record run success: %w", err)
	}
	logger.Info("run succeeded",
		"members", result.MembersExtracted,
		"months", result.MonthsPublished,
		"artifact", result.ArtifactPath)
	return s.runs.GetRunByID(ctx, run.ID)
}

// execute performs the three pipeline stages. A panic in any stage is
// converted to an error so the run row is still finalized.
func (s *Service) execute(ctx context.Context, asOf domain.Month, logger *slog.Logger) (result *domain.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("run panicked", "panic", r)
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	records, err := s.extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.aggregator.Aggregate(records, asOf)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrValidation("no members on or before %s, nothing to publish", asOf)
	}

	artifact, err := s.publisher.Publish(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &domain.RunResult{
		MembersExtracted: len(records),
		MonthsPublished:  artifact.Rows,
		ArtifactPath:     artifact.Path,
		ArtifactSHA256:   artifact.SHA256,
	}, nil
}
