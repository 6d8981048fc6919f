package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Source kinds supported by the pipeline definition.
const (
	SourceKindAPI = "api" // CRM REST API
	SourceKindCSV = "csv" // export file on disk
)

// CSV export layouts with known column mappings.
const (
	LayoutCRM    = "crm"    // current CRM export
	LayoutLegacy = "legacy" // PMP legacy platform export
)

// SourceDef describes one upstream membership source.
type SourceDef struct {
	Name   string `yaml:"name"`             // source system tag, e.g. "hpic", "pmp"
	Kind   string `yaml:"kind"`             // "api" or "csv"
	Path   string `yaml:"path,omitempty"`   // export file path (csv only)
	Layout string `yaml:"layout,omitempty"` // "crm" (default) or "legacy" (csv only)
}

// Pipeline is the operator-edited definition of what the pipeline produces.
// Source order matters: when a member appears in more than one source, the
// earliest-listed source wins.
type Pipeline struct {
	ArtifactPath string      `yaml:"artifact"` // public CSV destination
	ScheduleCron string      `yaml:"schedule,omitempty"`
	Tiers        []string    `yaml:"tiers"`
	Sources      []SourceDef `yaml:"sources"`
	Mirrors      []string    `yaml:"mirrors,omitempty"` // s3://, gs:// or az:// URIs
}

// DefaultPipeline returns the definition used when the YAML file omits
// optional fields.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		ArtifactPath: "public_data/membership_timeline.csv",
		ScheduleCron: "0 6 1 * *", // 06:00 on the first of each month
		Tiers:        []string{"classic", "champion"},
	}
}

// LoadPipelineFile reads and validates the pipeline definition YAML.
func LoadPipelineFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, fmt.Errorf("read pipeline file %s: %w", path, err)
	}

	p := DefaultPipeline()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse pipeline file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline file %s: %w", path, err)
	}
	return p, nil
}

// SourceNames returns the configured source tags in definition order.
func (p *Pipeline) SourceNames() []string {
	names := make([]string, 0, len(p.Sources))
	for _, s := range p.Sources {
		names = append(names, s.Name)
	}
	return names
}

// Validate checks that the definition is internally consistent.
func (p *Pipeline) Validate() error {
	if p.ArtifactPath == "" {
		return fmt.Errorf("artifact path is required")
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	seenTiers := make(map[string]bool, len(p.Tiers))
	for _, tier := range p.Tiers {
		if tier == "" || tier != strings.ToLower(tier) {
			return fmt.Errorf("tier %q must be non-empty lower-case", tier)
		}
		if seenTiers[tier] {
			return fmt.Errorf("duplicate tier %q", tier)
		}
		seenTiers[tier] = true
	}

	if len(p.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seenSources := make(map[string]bool, len(p.Sources))
	for _, s := range p.Sources {
		if s.Name == "" || s.Name != strings.ToLower(s.Name) {
			return fmt.Errorf("source name %q must be non-empty lower-case", s.Name)
		}
		if seenSources[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seenSources[s.Name] = true

		switch s.Kind {
		case SourceKindAPI:
			if s.Path != "" {
				return fmt.Errorf("source %q: path is only valid for csv sources", s.Name)
			}
		case SourceKindCSV:
			if s.Path == "" {
				return fmt.Errorf("source %q: csv sources need a path", s.Name)
			}
			switch s.Layout {
			case "", LayoutCRM, LayoutLegacy:
			default:
				return fmt.Errorf("source %q: unknown layout %q", s.Name, s.Layout)
			}
		default:
			return fmt.Errorf("source %q: unknown kind %q", s.Name, s.Kind)
		}
	}

	if p.ScheduleCron != "" {
		if _, err := cron.ParseStandard(p.ScheduleCron); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", p.ScheduleCron, err)
		}
	}

	for _, uri := range p.Mirrors {
		switch {
		case strings.HasPrefix(uri, "s3://"),
			strings.HasPrefix(uri, "gs://"),
			strings.HasPrefix(uri, "az://"):
		default:
			return fmt.Errorf("mirror %q: scheme must be s3://, gs:// or az://", uri)
		}
	}

	return nil
}
