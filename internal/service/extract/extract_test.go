package extract

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpic-membership/internal/domain"
	"hpic-membership/internal/testutil"
)

func record(id, source string) domain.MemberRecord {
	return domain.MemberRecord{
		ID: id, Source: source, Tier: "classic",
		Status:   domain.MemberStatusActive,
		JoinedOn: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
	}
}

func staticSource(name string, records []domain.MemberRecord, err error) *testutil.MockMemberSource {
	return &testutil.MockMemberSource{
		SourceName: name,
		FetchFn: func(ctx context.Context) ([]domain.MemberRecord, error) {
			return records, err
		},
	}
}

func newTestService(sources ...domain.MemberSource) *Service {
	return NewService(sources, slog.New(slog.DiscardHandler))
}

func TestService_Extract_MergesSources(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		staticSource("hpic", []domain.MemberRecord{record("m-1", "hpic"), record("m-2", "hpic")}, nil),
		staticSource("pmp", []domain.MemberRecord{record("L-9", "pmp")}, nil),
	)

	got, err := svc.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m-1", got[0].ID)
	assert.Equal(t, "m-2", got[1].ID)
	assert.Equal(t, "L-9", got[2].ID)
}

func TestService_Extract_CrossSourceDuplicateFirstWins(t *testing.T) {
	t.Parallel()

	primary := record("m-1", "hpic")
	shadowed := record("m-1", "pmp")
	shadowed.Tier = "champion"

	svc := newTestService(
		staticSource("hpic", []domain.MemberRecord{primary}, nil),
		staticSource("pmp", []domain.MemberRecord{shadowed, record("L-2", "pmp")}, nil),
	)

	got, err := svc.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hpic", got[0].Source)
	assert.Equal(t, "classic", got[0].Tier)
}

func TestService_Extract_CrossSourceDuplicateLogsBothJoinDates(t *testing.T) {
	t.Parallel()

	primary := record("m-1", "hpic")
	shadowed := record("m-1", "pmp")
	shadowed.JoinedOn = time.Date(2019, time.June, 30, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	svc := NewService([]domain.MemberSource{
		staticSource("hpic", []domain.MemberRecord{primary}, nil),
		staticSource("pmp", []domain.MemberRecord{shadowed}, nil),
	}, slog.New(slog.NewTextHandler(&buf, nil)))

	got, err := svc.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hpic", got[0].Source)

	// The differing join dates are the operator's cue that this is two
	// different people sharing an ID, not a migrated member.
	logged := buf.String()
	assert.Contains(t, logged, "duplicate member across sources")
	assert.Contains(t, logged, "kept_source=hpic")
	assert.Contains(t, logged, "kept_joined=2024-01-05")
	assert.Contains(t, logged, "skipped_source=pmp")
	assert.Contains(t, logged, "skipped_joined=2019-06-30")
}

func TestService_Extract_InSourceDuplicateConflicts(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		staticSource("hpic", []domain.MemberRecord{record("m-1", "hpic"), record("m-1", "hpic")}, nil),
	)

	_, err := svc.Extract(context.Background())
	require.Error(t, err)
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, err.Error(), `duplicate member id "m-1"`)
}

func TestService_Extract_SourceFailureAborts(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		staticSource("hpic", []domain.MemberRecord{record("m-1", "hpic")}, nil),
		staticSource("pmp", nil, domain.ErrSource("pmp", context.DeadlineExceeded)),
	)

	_, err := svc.Extract(context.Background())
	require.Error(t, err)
	var srcErr *domain.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "pmp", srcErr.Source)
}

func TestService_Extract_InvalidRecordAborts(t *testing.T) {
	t.Parallel()

	bad := record("m-1", "hpic")
	bad.Tier = ""

	svc := newTestService(staticSource("hpic", []domain.MemberRecord{bad}, nil))

	_, err := svc.Extract(context.Background())
	require.Error(t, err)
	var malErr *domain.MalformedRecordError
	require.ErrorAs(t, err, &malErr)
	assert.Contains(t, err.Error(), "empty tier")
}

func TestService_Extract_NoSources(t *testing.T) {
	t.Parallel()

	got, err := newTestService().Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
