// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"

	"hpic-membership/internal/domain"
)

// === Member Source Mock ===

// MockMemberSource implements domain.MemberSource for testing.
type MockMemberSource struct {
	SourceName string
	FetchFn    func(ctx context.Context) ([]domain.MemberRecord, error)
}

func (m *MockMemberSource) Name() string { return m.SourceName }

// Fetch implements the interface method for testing.
func (m *MockMemberSource) Fetch(ctx context.Context) ([]domain.MemberRecord, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx)
	}
	panic("unexpected call to MockMemberSource.Fetch")
}

var _ domain.MemberSource = (*MockMemberSource)(nil)

// === Extractor Mock ===

// MockExtractor implements domain.Extractor for testing.
type MockExtractor struct {
	ExtractFn func(ctx context.Context) ([]domain.MemberRecord, error)
}

func (m *MockExtractor) Extract(ctx context.Context) ([]domain.MemberRecord, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx)
	}
	panic("unexpected call to MockExtractor.Extract")
}

var _ domain.Extractor = (*MockExtractor)(nil)

// === Aggregator Mock ===

// MockAggregator implements domain.Aggregator for testing.
type MockAggregator struct {
	AggregateFn func(records []domain.MemberRecord, asOf domain.Month) ([]domain.MonthlyAggregate, error)
}

func (m *MockAggregator) Aggregate(records []domain.MemberRecord, asOf domain.Month) ([]domain.MonthlyAggregate, error) {
	if m.AggregateFn != nil {
		return m.AggregateFn(records, asOf)
	}
	panic("unexpected call to MockAggregator.Aggregate")
}

var _ domain.Aggregator = (*MockAggregator)(nil)

// === Publisher Mock ===

// MockPublisher implements domain.Publisher for testing.
type MockPublisher struct {
	PublishFn func(ctx context.Context, rows []domain.MonthlyAggregate) (*domain.Artifact, error)
	Published [][]domain.MonthlyAggregate // collected inputs for assertions
}

func (m *MockPublisher) Publish(ctx context.Context, rows []domain.MonthlyAggregate) (*domain.Artifact, error) {
	m.Published = append(m.Published, rows)
	if m.PublishFn != nil {
		return m.PublishFn(ctx, rows)
	}
	return &domain.Artifact{Path: "test-artifact.csv", SHA256: "0", Rows: len(rows)}, nil
}

var _ domain.Publisher = (*MockPublisher)(nil)

// === Run Repository Mock ===

// MockRunRepo implements domain.RunRepository for testing. The default
// behavior keeps an in-memory run map so lifecycle tests need no SQLite.
type MockRunRepo struct {
	CreateRunFn        func(ctx context.Context, run *domain.PipelineRun) error
	UpdateRunStartedFn func(ctx context.Context, id string) error
	UpdateRunSuccessFn func(ctx context.Context, id string, result domain.RunResult) error
	UpdateRunFailedFn  func(ctx context.Context, id string, errMsg string) error
	GetRunByIDFn       func(ctx context.Context, id string) (*domain.PipelineRun, error)
	ListRunsFn         func(ctx context.Context, limit int) ([]domain.PipelineRun, error)

	Runs map[string]*domain.PipelineRun // collected runs for assertions
}

func (m *MockRunRepo) store(run *domain.PipelineRun) {
	if m.Runs == nil {
		m.Runs = map[string]*domain.PipelineRun{}
	}
	m.Runs[run.ID] = run
}

func (m *MockRunRepo) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	if m.CreateRunFn != nil {
		if err := m.CreateRunFn(ctx, run); err != nil {
			return err
		}
	}
	m.store(run)
	return nil
}

func (m *MockRunRepo) UpdateRunStarted(ctx context.Context, id string) error {
	if m.UpdateRunStartedFn != nil {
		if err := m.UpdateRunStartedFn(ctx, id); err != nil {
			return err
		}
	}
	if run, ok := m.Runs[id]; ok {
		run.Status = domain.RunStatusRunning
	}
	return nil
}

func (m *MockRunRepo) UpdateRunSuccess(ctx context.Context, id string, result domain.RunResult) error {
	if m.UpdateRunSuccessFn != nil {
		if err := m.UpdateRunSuccessFn(ctx, id, result); err != nil {
			return err
		}
	}
	if run, ok := m.Runs[id]; ok {
		run.Status = domain.RunStatusSuccess
		run.MembersExtracted = result.MembersExtracted
		run.MonthsPublished = result.MonthsPublished
		run.ArtifactPath = &result.ArtifactPath
		run.ArtifactSHA256 = &result.ArtifactSHA256
	}
	return nil
}

func (m *MockRunRepo) UpdateRunFailed(ctx context.Context, id string, errMsg string) error {
	if m.UpdateRunFailedFn != nil {
		if err := m.UpdateRunFailedFn(ctx, id, errMsg); err != nil {
			return err
		}
	}
	if run, ok := m.Runs[id]; ok {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = &errMsg
	}
	return nil
}

func (m *MockRunRepo) GetRunByID(ctx context.Context, id string) (*domain.PipelineRun, error) {
	if m.GetRunByIDFn != nil {
		return m.GetRunByIDFn(ctx, id)
	}
	if run, ok := m.Runs[id]; ok {
		return run, nil
	}
	return nil, domain.ErrNotFound("pipeline run not found")
}

func (m *MockRunRepo) ListRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if m.ListRunsFn != nil {
		return m.ListRunsFn(ctx, limit)
	}
	runs := make([]domain.PipelineRun, 0, len(m.Runs))
	for _, run := range m.Runs {
		runs = append(runs, *run)
	}
	return runs, nil
}

var _ domain.RunRepository = (*MockRunRepo)(nil)
