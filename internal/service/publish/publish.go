// Package publish serializes the monthly timeline to the public CSV artifact
// and pushes copies to any configured mirrors.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"hpic-membership/internal/domain"
)

// Service writes the timeline artifact. Publishing is full-replace: the new
// file is built in a temp file next to the destination and moved into place
// with a rename, so dashboard readers never observe a half-written artifact.
type Service struct {
	artifactPath string
	tiers        []string
	sources      []string
	mirrors      []Mirror
	logger       *slog.Logger
}

var _ domain.Publisher = (*Service)(nil)

// NewService creates a publisher writing to artifactPath. The tier and
// source lists fix the column order of the artifact.
func NewService(artifactPath string, tiers, sources []string, mirrors []Mirror, logger *slog.Logger) *Service {
	return &Service{
		artifactPath: artifactPath,
		tiers:        tiers,
		sources:      sources,
		mirrors:      mirrors,
		logger:       logger,
	}
}

// Publish encodes the rows, atomically replaces the local artifact, then
// uploads the same bytes to every mirror concurrently. A mirror failure is a
// PublishError, but the local artifact has already been replaced by then.
func (s *Service) Publish(ctx context.Context, rows []domain.MonthlyAggregate) (*domain.Artifact, error) {
	if err := domain.ValidateTimeline(rows); err != nil {
		return nil, fmt.Errorf("refusing to publish: %w", err)
	}

	data, err := s.encode(rows)
	if err != nil {
		return nil, domain.ErrPublish(s.artifactPath, err)
	}

	if err := replaceFile(s.artifactPath, data); err != nil {
		return nil, domain.ErrPublish(s.artifactPath, err)
	}

	digest := sha256.Sum256(data)
	artifact := &domain.Artifact{
		Path:   s.artifactPath,
		SHA256: hex.EncodeToString(digest[:]),
		Rows:   len(rows),
		Bytes:  int64(len(data)),
	}
	s.logger.Info("artifact published",
		"path", artifact.Path, "rows", artifact.Rows, "bytes", artifact.Bytes, "sha256", artifact.SHA256)

	if err := s.uploadMirrors(ctx, data); err != nil {
		return nil, err
	}
	return artifact, nil
}

// encode renders the timeline as CSV. Column order is fixed: month_start,
// the total, one column per tier, one per source, then the net change.
func (s *Service) encode(rows []domain.MonthlyAggregate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"month_start", "active_members"}
	for _, tier := range s.tiers {
		header = append(header, tier+"_members")
	}
	for _, src := range s.sources {
		header = append(header, src+"_members")
	}
	header = append(header, "net_change")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		rec := []string{
			row.Month.StartDate().Format("2006-01-02"),
			strconv.Itoa(row.TotalActive),
		}
		for _, tier := range s.tiers {
			rec = append(rec, strconv.Itoa(row.TierCounts[tier]))
		}
		for _, src := range s.sources {
			rec = append(rec, strconv.Itoa(row.SourceCounts[src]))
		}
		rec = append(rec, strconv.Itoa(row.NetChange))
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Service) uploadMirrors(ctx context.Context, data []byte) error {
	if len(s.mirrors) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, m := range s.mirrors {
		g.Go(func() error {
			if err := m.Upload(ctx, data); err != nil {
				return domain.ErrPublish(m.Target(), err)
			}
			s.logger.Info("mirror updated", "target", m.Target())
			return nil
		})
	}
	return g.Wait()
}

// replaceFile writes data to path atomically: temp file in the same
// directory, fsync, then rename over the destination.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// Best effort: removes the temp file on any failure path, no-op
		// after a successful rename.
		os.Remove(tmp.Name()) //nolint:errcheck
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
