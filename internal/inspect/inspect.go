// Package inspect validates and queries the published artifact with an
// in-memory DuckDB instance. The artifact is the contract with the public
// dashboard, so checks run against the file actually on disk, not against
// in-process state.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Inspector wraps a DuckDB session with the artifact exposed as a view
// named "timeline".
type Inspector struct {
	db *sql.DB
}

// Open creates an in-memory DuckDB instance and maps the artifact CSV at
// path to the timeline view.
func Open(ctx context.Context, path string) (*Inspector, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Single quotes in the path are doubled; DuckDB has no parameter
	// binding inside read_csv in a DDL statement.
	quoted := strings.ReplaceAll(path, "'", "''")
	ddl := fmt.Sprintf(
		"CREATE VIEW timeline AS SELECT * FROM read_csv('%s', header = true)", quoted)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("map artifact %q: %w", path, err)
	}

	return &Inspector{db: db}, nil
}

// Close releases the DuckDB session.
func (i *Inspector) Close() error { return i.db.Close() }

// Finding is the outcome of one validation check.
type Finding struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Validate runs the artifact-level consistency checks and returns one
// finding per check. It never fails on a bad artifact, only on query errors:
// a failed check is a Finding with Passed=false.
func (i *Inspector) Validate(ctx context.Context, tiers, sources []string) ([]Finding, error) {
	checks := []struct {
		name string
		sql  string // must return a single row (ok BOOLEAN, detail VARCHAR)
	}{
		{
			name: "non_empty",
			sql: `SELECT count(*) > 0, 'rows: ' || count(*)
			      FROM timeline`,
		},
		{
			name: "unique_months",
			sql: `SELECT count(*) = count(DISTINCT month_start),
			             'duplicates: ' || (count(*) - count(DISTINCT month_start))
			      FROM timeline`,
		},
		{
			name: "gapless_months",
			sql: `SELECT date_diff('month', min(month_start), max(month_start)) + 1 = count(*),
			             'span: ' || (date_diff('month', min(month_start), max(month_start)) + 1) ||
			             ', rows: ' || count(*)
			      FROM timeline`,
		},
		{
			name: "no_negative_counts",
			sql: fmt.Sprintf(
				`SELECT count(*) = 0, 'bad rows: ' || count(*)
				 FROM timeline
				 WHERE %s`, negativeCountExpr(tiers, sources)),
		},
		{
			name: "net_change_present",
			sql: `SELECT count(*) = 0, 'null rows: ' || count(*)
			      FROM timeline
			      WHERE net_change IS NULL`,
		},
		{
			name: "tier_counts_sum",
			sql: fmt.Sprintf(
				`SELECT count(*) = 0, 'bad rows: ' || count(*)
				 FROM timeline
				 WHERE active_members <> %s`, tierSumExpr(tiers)),
		},
		{
			name: "net_change_consistent",
			sql: `SELECT count(*) = 0, 'bad rows: ' || count(*)
			      FROM (
			          SELECT net_change,
			                 active_members - lag(active_members, 1, active_members)
			                     OVER (ORDER BY month_start) AS expected
			          FROM timeline
			      )
			      WHERE net_change <> expected`,
		},
	}

	findings := make([]Finding, 0, len(checks))
	for _, check := range checks {
		var (
			ok     bool
			detail string
		)
		if err := i.db.QueryRowContext(ctx, check.sql).Scan(&ok, &detail); err != nil {
			return nil, fmt.Errorf("check %s: %w", check.name, err)
		}
		findings = append(findings, Finding{Check: check.name, Passed: ok, Detail: detail})
	}
	return findings, nil
}

// negativeCountExpr builds the predicate matching rows where any count
// column, including the per-tier and per-source breakdowns, is negative.
func negativeCountExpr(tiers, sources []string) string {
	cols := []string{"active_members"}
	for _, tier := range tiers {
		cols = append(cols, fmt.Sprintf("%q", tier+"_members"))
	}
	for _, src := range sources {
		cols = append(cols, fmt.Sprintf("%q", src+"_members"))
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " < 0"
	}
	return strings.Join(parts, " OR ")
}

// tierSumExpr builds "tier1_members + tier2_members + ..." for the
// configured tiers, or a literal matching everything when none are known.
func tierSumExpr(tiers []string) string {
	if len(tiers) == 0 {
		return "active_members"
	}
	cols := make([]string, len(tiers))
	for i, tier := range tiers {
		cols[i] = fmt.Sprintf("%q", tier+"_members")
	}
	return strings.Join(cols, " + ")
}

// QueryResult carries an ad-hoc query's output.
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Query runs a read-only SQL statement against the timeline view. All
// values come back rendered as strings; NULL renders as empty.
func (i *Inspector) Query(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rendered := make([]string, len(cols))
		for j, v := range values {
			if v != nil {
				rendered[j] = fmt.Sprintf("%v", v)
			}
		}
		result.Rows = append(result.Rows, rendered)
	}
	return result, rows.Err()
}
