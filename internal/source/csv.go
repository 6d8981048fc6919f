package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hpic-membership/internal/domain"
)

// CSVLayout describes how one export format names its columns and formats
// its dates. Column matching is case-insensitive.
type CSVLayout struct {
	IDColumn       string
	TierColumn     string
	StatusColumn   string
	JoinedColumn   string
	InactiveColumn string
	DateFormat     string
}

// CRMExportLayout matches the CSV export the current CRM produces.
var CRMExportLayout = CSVLayout{
	IDColumn:       "member_id",
	TierColumn:     "tier",
	StatusColumn:   "status",
	JoinedColumn:   "joined_on",
	InactiveColumn: "inactive_on",
	DateFormat:     "2006-01-02",
}

// LegacyExportLayout matches the one-time export taken from the retired
// membership platform. Its dates are US-formatted.
var LegacyExportLayout = CSVLayout{
	IDColumn:       "legacy_id",
	TierColumn:     "level",
	StatusColumn:   "member_status",
	JoinedColumn:   "join_date",
	InactiveColumn: "end_date",
	DateFormat:     "01/02/2006",
}

// CSVExportSource reads a membership export file from disk.
type CSVExportSource struct {
	name   string
	path   string
	layout CSVLayout
}

var _ domain.MemberSource = (*CSVExportSource)(nil)

// NewCSVExportSource creates a source reading the export at path using the
// given column layout.
func NewCSVExportSource(name, path string, layout CSVLayout) *CSVExportSource {
	return &CSVExportSource{name: name, path: path, layout: layout}
}

func (s *CSVExportSource) Name() string { return s.name }

// Fetch reads the whole export. A missing or unreadable file is a
// SourceError; any row that fails normalization is a MalformedRecordError.
func (s *CSVExportSource) Fetch(ctx context.Context) ([]domain.MemberRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, domain.ErrSource(s.name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, domain.ErrSource(s.name, fmt.Errorf("read header: %w", err))
	}
	cols, err := s.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.MemberRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrSource(s.name, err)
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.ErrMalformedRecord(s.name, fmt.Sprintf("line %d", line), "%v", err)
		}

		rec, err := s.normalize(row, cols, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// columnIndexes holds the resolved position of each required column.
// inactive is -1 when the export omits the column entirely.
type columnIndexes struct {
	id, tier, status, joined, inactive int
}

func (s *CSVExportSource) resolveColumns(header []string) (columnIndexes, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	cols := columnIndexes{
		id:       find(s.layout.IDColumn),
		tier:     find(s.layout.TierColumn),
		status:   find(s.layout.StatusColumn),
		joined:   find(s.layout.JoinedColumn),
		inactive: find(s.layout.InactiveColumn),
	}
	for name, idx := range map[string]int{
		s.layout.IDColumn:     cols.id,
		s.layout.TierColumn:   cols.tier,
		s.layout.StatusColumn: cols.status,
		s.layout.JoinedColumn: cols.joined,
	} {
		if idx < 0 {
			return columnIndexes{}, domain.ErrSource(s.name, fmt.Errorf("export missing column %q", name))
		}
	}
	return cols, nil
}

func (s *CSVExportSource) normalize(row []string, cols columnIndexes, line int) (domain.MemberRecord, error) {
	locator := fmt.Sprintf("line %d", line)

	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	id := cell(cols.id)
	if id == "" {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "missing %s", s.layout.IDColumn)
	}

	status, ok := normalizeStatus(cell(cols.status))
	if !ok {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "unrecognized status %q", cell(cols.status))
	}

	joined, err := time.Parse(s.layout.DateFormat, cell(cols.joined))
	if err != nil {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "bad %s %q", s.layout.JoinedColumn, cell(cols.joined))
	}

	var inactiveOn *time.Time
	if raw := cell(cols.inactive); raw != "" {
		t, err := time.Parse(s.layout.DateFormat, raw)
		if err != nil {
			return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "bad %s %q", s.layout.InactiveColumn, raw)
		}
		inactiveOn = &t
	}

	rec := domain.MemberRecord{
		ID:         id,
		Source:     s.name,
		Tier:       normalizeTier(cell(cols.tier)),
		Status:     status,
		JoinedOn:   joined,
		InactiveOn: inactiveOn,
	}
	if err := rec.Validate(); err != nil {
		return domain.MemberRecord{}, domain.ErrMalformedRecord(s.name, locator, "%v", err)
	}
	return rec, nil
}
