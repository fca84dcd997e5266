// Package app wires storage, domain services, and transports into one running engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hmahadik/traq/internal/config"
	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/domain/dedup"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/domain/timeline"
	"github.com/hmahadik/traq/internal/mcp"
	"github.com/hmahadik/traq/internal/sqlite"
	"github.com/hmahadik/traq/internal/transport"
)

// App holds every wired component.
type App struct {
	DB       *sqlite.DB
	Location *time.Location

	Activity *activity.Service
	Projects *project.Service
	Sessions *session.Service
	Timeline *timeline.Service
	Engine   *assignment.Engine

	Queue    *capture.Queue
	Pipeline *capture.Pipeline
	Runner   *capture.Runner
	Tokens   transport.StaticTokens

	cfg    config.Config
	logger *slog.Logger
}

// Open opens the database at cfg.DB.Path, applies migrations and wires the engine.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlite.Open(cfg.DB.Path, sqlite.Options{Retries: cfg.Storage.Retries, Backoff: cfg.StorageBackoff()})
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	a, err := New(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New wires services over an open, migrated database and restores capture state from it.
func New(ctx context.Context, cfg config.Config, db *sqlite.DB, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	activityRepo := sqlite.NewActivityRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	assignmentRepo := sqlite.NewAssignmentRepository(db)
	timelineRepo := sqlite.NewTimelineRepository(db)
	ingestRepo := sqlite.NewIngestRepository(db)

	projectSvc := project.NewService(projectRepo, logger.With("component", "project"))
	engine := assignment.NewEngine(assignment.Config{
		Ceiling:            cfg.Assignment.Ceiling,
		MinConfidence:      cfg.Assignment.MinConfidence,
		Learning:           cfg.Assignment.Learning,
		CacheTTL:           assignment.DefaultConfig().CacheTTL,
		BatchSize:          assignment.DefaultConfig().BatchSize,
		AutoDiscover:       cfg.Assignment.AutoDiscover,
		DiscoverMinCommits: cfg.Assignment.DiscoverMinCommits,
	}, assignmentRepo, activityRepo, projectSvc, logger.With("component", "assignment"))

	sessionSvc := session.NewService(sessionRepo, session.Config{
		Timeout:    cfg.AFKTimeout(),
		MinSession: cfg.MinSession(),
		RealBreak:  cfg.RealBreak(),
		Location:   loc,
	}, logger.With("component", "session"))

	timelineSvc := timeline.NewService(timelineRepo, timeline.Config{
		Location:      loc,
		PixelsPerHour: cfg.Timeline.PixelsPerHour,
		CacheSize:     cfg.Timeline.CacheSize,
		Workers:       cfg.Timeline.Workers,
	}, logger.With("component", "timeline"))

	seg, err := sessionSvc.Restore(ctx)
	if err != nil {
		return nil, err
	}
	deduper := dedup.New(dedup.Config{
		Threshold: cfg.Capture.DuplicateThreshold,
		Window:    cfg.DuplicateWindow(),
	}, dedup.DHasher{}, logger.With("component", "dedup"))

	captureLogger := logger.With("component", "capture")
	pipeline := capture.NewPipeline(ingestRepo, deduper, seg, engine, captureLogger)
	if err := pipeline.Restore(ctx); err != nil {
		return nil, err
	}
	queue := capture.NewQueue(cfg.Ingest.QueueSize)

	return &App{
		DB:       db,
		Location: loc,
		Activity: activity.NewService(activityRepo, logger.With("component", "activity")),
		Projects: projectSvc,
		Sessions: sessionSvc,
		Timeline: timelineSvc,
		Engine:   engine,
		Queue:    queue,
		Pipeline: pipeline,
		Runner:   capture.NewRunner(pipeline, queue, cfg.TickInterval(), captureLogger),
		Tokens:   transport.StaticTokens(cfg.Ingest.Tokens),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// MCPServer builds the query surface over the wired services.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Timeline:    a.Timeline,
			Projects:    a.Projects,
			Assignments: a.Engine,
			Sessions:    a.Sessions,
			Activity:    a.Activity,
		},
		Verifier:      a.Tokens,
		AuthEnabled:   a.cfg.Auth.Enabled,
		TransportMode: a.cfg.Transport.Mode,
		Location:      a.Location,
		Logger:        a.logger.With("component", "mcp"),
	})
}

// MCPHTTPHandler serves the query surface over streamable HTTP at /mcp, with
// an unauthenticated /health probe.
func (a *App) MCPHTTPHandler() http.Handler {
	mcpHandler := mcp.NewHTTPHandler(a.MCPServer())

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return router
}

// IngestHandler serves the collector endpoint.
func (a *App) IngestHandler() http.Handler {
	return transport.NewServer(a.Queue, transport.AuthMiddleware(a.Tokens), a.logger.With("component", "ingest"))
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
