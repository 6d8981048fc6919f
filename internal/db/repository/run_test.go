package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpic-membership/internal/db"
	"hpic-membership/internal/domain"
)

func newTestRepo(t *testing.T) *RunRepo {
	t.Helper()
	return NewRunRepo(db.OpenTestMetastore(t))
}

func newPendingRun() *domain.PipelineRun {
	return &domain.PipelineRun{
		ID:          domain.NewID(),
		Status:      domain.RunStatusPending,
		TriggerType: domain.TriggerTypeManual,
		AsOf:        domain.Month{Year: 2024, Month: time.February},
	}
}

func TestRunRepo_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	run := newPendingRun()
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, domain.RunStatusPending, got.Status)
	assert.Equal(t, domain.TriggerTypeManual, got.TriggerType)
	assert.Equal(t, run.AsOf, got.AsOf)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunRepo_DuplicateID(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	run := newPendingRun()
	require.NoError(t, repo.CreateRun(ctx, run))

	err := repo.CreateRun(ctx, run)
	require.Error(t, err)
	var cErr *domain.ConflictError
	assert.ErrorAs(t, err, &cErr)
}

func TestRunRepo_GetMissing(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)

	_, err := repo.GetRunByID(context.Background(), "no-such-run")
	require.Error(t, err)
	var nfErr *domain.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestRunRepo_SuccessLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	run := newPendingRun()
	require.NoError(t, repo.CreateRun(ctx, run))
	require.NoError(t, repo.UpdateRunStarted(ctx, run.ID))

	started, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, started.Status)
	require.NotNil(t, started.StartedAt)

	result := domain.RunResult{
		MembersExtracted: 412,
		MonthsPublished:  26,
		ArtifactPath:     "public_data/membership_timeline.csv",
		ArtifactSHA256:   "deadbeef",
	}
	require.NoError(t, repo.UpdateRunSuccess(ctx, run.ID, result))

	got, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, got.Status)
	assert.Equal(t, 412, got.MembersExtracted)
	assert.Equal(t, 26, got.MonthsPublished)
	require.NotNil(t, got.ArtifactPath)
	assert.Equal(t, result.ArtifactPath, *got.ArtifactPath)
	require.NotNil(t, got.ArtifactSHA256)
	assert.Equal(t, "deadbeef", *got.ArtifactSHA256)
	require.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)
}

func TestRunRepo_FailureLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	run := newPendingRun()
	require.NoError(t, repo.CreateRun(ctx, run))
	require.NoError(t, repo.UpdateRunStarted(ctx, run.ID))
	require.NoError(t, repo.UpdateRunFailed(ctx, run.ID, `source "pmp" unavailable: open exports/pmp_members.csv: no such file`))

	got, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "pmp")
	require.NotNil(t, got.FinishedAt)
}

func TestRunRepo_UpdateMissing(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	var nfErr *domain.NotFoundError
	assert.ErrorAs(t, repo.UpdateRunStarted(ctx, "nope"), &nfErr)
	assert.ErrorAs(t, repo.UpdateRunFailed(ctx, "nope", "boom"), &nfErr)
	assert.ErrorAs(t, repo.UpdateRunSuccess(ctx, "nope", domain.RunResult{}), &nfErr)
}

func TestRunRepo_ListRuns(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for range 5 {
		run := newPendingRun()
		require.NoError(t, repo.CreateRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first: UUIDv7 IDs sort chronologically, so the tie-break on id
	// keeps same-second inserts ordered.
	assert.Equal(t, ids[4], runs[0].ID)
	assert.Equal(t, ids[3], runs[1].ID)
	assert.Equal(t, ids[2], runs[2].ID)

	// Zero limit falls back to the default page size.
	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
