package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipelineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPipelineFile(t *testing.T) {
	t.Parallel()

	path := writePipelineFile(t, `
artifact: out/membership_timeline.csv
schedule: "0 6 1 * *"
tiers: [classic, champion]
sources:
  - name: hpic
    kind: api
  - name: pmp
    kind: csv
    path: exports/pmp_members.csv
    layout: legacy
mirrors:
  - s3://hpic-public/membership_timeline.csv
`)

	p, err := LoadPipelineFile(path)
	require.NoError(t, err)

	assert.Equal(t, "out/membership_timeline.csv", p.ArtifactPath)
	assert.Equal(t, []string{"classic", "champion"}, p.Tiers)
	assert.Equal(t, []string{"hpic", "pmp"}, p.SourceNames())
	require.Len(t, p.Sources, 2)
	assert.Equal(t, LayoutLegacy, p.Sources[1].Layout)
}

func TestLoadPipelineFile_DefaultsApplied(t *testing.T) {
	t.Parallel()

	path := writePipelineFile(t, `
sources:
  - name: hpic
    kind: api
`)

	p, err := LoadPipelineFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPipeline().ArtifactPath, p.ArtifactPath)
	assert.Equal(t, DefaultPipeline().Tiers, p.Tiers)
}

func TestLoadPipelineFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadPipelineFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPipeline_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Pipeline {
		return &Pipeline{
			ArtifactPath: "out.csv",
			Tiers:        []string{"classic"},
			Sources:      []SourceDef{{Name: "hpic", Kind: SourceKindAPI}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Pipeline)
		wantErr string
	}{
		{"valid", func(p *Pipeline) {}, ""},
		{"no_artifact", func(p *Pipeline) { p.ArtifactPath = "" }, "artifact path"},
		{"no_tiers", func(p *Pipeline) { p.Tiers = nil }, "at least one tier"},
		{"uppercase_tier", func(p *Pipeline) { p.Tiers = []string{"Classic"} }, "lower-case"},
		{"duplicate_tier", func(p *Pipeline) { p.Tiers = []string{"classic", "classic"} }, "duplicate tier"},
		{"no_sources", func(p *Pipeline) { p.Sources = nil }, "at least one source"},
		{"duplicate_source", func(p *Pipeline) {
			p.Sources = append(p.Sources, SourceDef{Name: "hpic", Kind: SourceKindAPI})
		}, "duplicate source"},
		{"csv_without_path", func(p *Pipeline) {
			p.Sources = []SourceDef{{Name: "pmp", Kind: SourceKindCSV}}
		}, "need a path"},
		{"api_with_path", func(p *Pipeline) {
			p.Sources = []SourceDef{{Name: "hpic", Kind: SourceKindAPI, Path: "x.csv"}}
		}, "only valid for csv"},
		{"unknown_kind", func(p *Pipeline) {
			p.Sources = []SourceDef{{Name: "hpic", Kind: "ftp"}}
		}, "unknown kind"},
		{"unknown_layout", func(p *Pipeline) {
			p.Sources = []SourceDef{{Name: "pmp", Kind: SourceKindCSV, Path: "x.csv", Layout: "weird"}}
		}, "unknown layout"},
		{"bad_cron", func(p *Pipeline) { p.ScheduleCron = "not a cron" }, "invalid schedule"},
		{"bad_mirror_scheme", func(p *Pipeline) { p.Mirrors = []string{"ftp://x/y"} }, "scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
