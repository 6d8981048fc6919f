package domain

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// TriggerType records what started a run.
type TriggerType string

const (
	TriggerTypeManual    TriggerType = "MANUAL"
	TriggerTypeScheduled TriggerType = "SCHEDULED"
)

// PipelineRun is one execution of the pipeline as recorded in the metastore.
type PipelineRun struct {
	ID               string
	Status           RunStatus
	TriggerType      TriggerType
	AsOf             Month
	StartedAt        *time.Time
	FinishedAt       *time.Time
	MembersExtracted int
	MonthsPublished  int
	ArtifactPath     *string
	ArtifactSHA256   *string
	ErrorMessage     *string
	CreatedAt        time.Time
}

// RunResult carries the outcome of a successful run.
type RunResult struct {
	MembersExtracted int
	MonthsPublished  int
	ArtifactPath     string
	ArtifactSHA256   string
}
