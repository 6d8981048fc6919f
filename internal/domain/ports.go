package domain

import "context"

// MemberSource reads one upstream system and normalizes its records.
// Implementations must be read-only: fetching has no upstream side effects.
type MemberSource interface {
	// Name returns the source system tag stamped onto every record.
	Name() string
	// Fetch reads and normalizes all membership records. It returns a
	// *SourceError when the source is unreachable and a
	// *MalformedRecordError when any single record fails normalization.
	Fetch(ctx context.Context) ([]MemberRecord, error)
}

// Extractor produces the combined, deduplicated record set from all sources.
type Extractor interface {
	Extract(ctx context.Context) ([]MemberRecord, error)
}

// Aggregator turns member records into the gapless monthly timeline ending
// at the as-of month.
type Aggregator interface {
	Aggregate(records []MemberRecord, asOf Month) ([]MonthlyAggregate, error)
}

// Publisher serializes the timeline to the public artifact, replacing any
// prior artifact atomically.
type Publisher interface {
	Publish(ctx context.Context, rows []MonthlyAggregate) (*Artifact, error)
}

// RunRepository persists pipeline run history in the metastore.
type RunRepository interface {
	CreateRun(ctx context.Context, run *PipelineRun) error
	UpdateRunStarted(ctx context.Context, id string) error
	UpdateRunSuccess(ctx context.Context, id string, result RunResult) error
	UpdateRunFailed(ctx context.Context, id string, errMsg string) error
	GetRunByID(ctx context.Context, id string) (*PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]PipelineRun, error)
}
