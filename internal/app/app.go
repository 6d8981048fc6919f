// Package app wires configuration, the metastore, and the pipeline services
// into a ready-to-run application.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"hpic-membership/internal/config"
	"hpic-membership/internal/db"
	"hpic-membership/internal/db/repository"
	"hpic-membership/internal/domain"
	"hpic-membership/internal/service/aggregate"
	"hpic-membership/internal/service/extract"
	"hpic-membership/internal/service/pipeline"
	"hpic-membership/internal/service/publish"
	"hpic-membership/internal/source"
)

// App holds the wired application.
type App struct {
	Config    *config.Config
	Pipeline  *config.Pipeline
	Logger    *slog.Logger
	Metastore *sql.DB
	Runs      domain.RunRepository
	Service   *pipeline.Service
	Scheduler *pipeline.Scheduler
}

// New loads the pipeline definition, opens and migrates the metastore, and
// wires every service. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pl, err := config.LoadPipelineFile(cfg.PipelineFile)
	if err != nil {
		return nil, err
	}

	metastore, err := db.OpenMetastore(cfg.MetaDBPath)
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	if err := db.RunMigrations(metastore); err != nil {
		metastore.Close() //nolint:errcheck
		return nil, fmt.Errorf("migrate metastore: %w", err)
	}

	sources, err := buildSources(cfg, pl)
	if err != nil {
		metastore.Close() //nolint:errcheck
		return nil, err
	}
	mirrors, err := buildMirrors(ctx, cfg, pl)
	if err != nil {
		metastore.Close() //nolint:errcheck
		return nil, err
	}

	runs := repository.NewRunRepo(metastore)
	extractor := extract.NewService(sources, logger)
	aggregator := aggregate.NewService(pl.Tiers, pl.SourceNames(), logger)
	publisher := publish.NewService(pl.ArtifactPath, pl.Tiers, pl.SourceNames(), mirrors, logger)
	svc := pipeline.NewService(extractor, aggregator, publisher, runs, logger)

	return &App{
		Config:    cfg,
		Pipeline:  pl,
		Logger:    logger,
		Metastore: metastore,
		Runs:      runs,
		Service:   svc,
		Scheduler: pipeline.NewScheduler(svc, pl.ScheduleCron, logger),
	}, nil
}

// Close releases the metastore connection.
func (a *App) Close() error {
	return a.Metastore.Close()
}

// buildSources instantiates one MemberSource per pipeline definition entry,
// in definition order.
func buildSources(cfg *config.Config, pl *config.Pipeline) ([]domain.MemberSource, error) {
	sources := make([]domain.MemberSource, 0, len(pl.Sources))
	for _, def := range pl.Sources {
		switch def.Kind {
		case config.SourceKindAPI:
			if cfg.CRMAPIURL == "" {
				return nil, fmt.Errorf("source %q: CRM_API_URL is not set", def.Name)
			}
			if cfg.CRMAPIKey == "" {
				return nil, fmt.Errorf("source %q: CRM_API_KEY is not set", def.Name)
			}
			sources = append(sources, source.NewCRMAPISource(
				def.Name, cfg.CRMAPIURL, cfg.CRMAPIKey, cfg.CRMRateRPS, cfg.CRMRateBurst))

		case config.SourceKindCSV:
			layout := source.CRMExportLayout
			if def.Layout == config.LayoutLegacy {
				layout = source.LegacyExportLayout
			}
			sources = append(sources, source.NewCSVExportSource(def.Name, def.Path, layout))

		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", def.Name, def.Kind)
		}
	}
	return sources, nil
}

// buildMirrors instantiates one Mirror per configured URI. Each scheme needs
// its credentials present in the environment config.
func buildMirrors(ctx context.Context, cfg *config.Config, pl *config.Pipeline) ([]publish.Mirror, error) {
	mirrors := make([]publish.Mirror, 0, len(pl.Mirrors))
	for _, uri := range pl.Mirrors {
		switch {
		case strings.HasPrefix(uri, "s3://"):
			if !cfg.HasS3Config() {
				return nil, fmt.Errorf("mirror %q: KEY_ID, SECRET and REGION must be set", uri)
			}
			m, err := publish.NewS3Mirror(cfg, uri)
			if err != nil {
				return nil, err
			}
			mirrors = append(mirrors, m)

		case strings.HasPrefix(uri, "gs://"):
			m, err := publish.NewGCSMirror(ctx, cfg.GCSKeyFile, uri)
			if err != nil {
				return nil, err
			}
			mirrors = append(mirrors, m)

		case strings.HasPrefix(uri, "az://"):
			if !cfg.HasAzureConfig() {
				return nil, fmt.Errorf("mirror %q: AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY must be set", uri)
			}
			m, err := publish.NewAzureMirror(cfg.AzureAccountName, cfg.AzureAccountKey, uri)
			if err != nil {
				return nil, err
			}
			mirrors = append(mirrors, m)

		default:
			return nil, fmt.Errorf("mirror %q: unsupported scheme", uri)
		}
	}
	return mirrors, nil
}
