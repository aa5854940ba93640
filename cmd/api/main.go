package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/lexaudit/internal/api/handlers"
	"github.com/pratik-mahalle/lexaudit/internal/api/router"
	"github.com/pratik-mahalle/lexaudit/internal/archive"
	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/lexaudit/internal/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/repository/postgres"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
	"github.com/pratik-mahalle/lexaudit/internal/services"
	"github.com/pratik-mahalle/lexaudit/internal/worker"
	"github.com/pratik-mahalle/lexaudit/migrations"
)

var version = "dev"

// @title LexAudit API
// @version 1.0
// @description Legal document compliance validation, risk aggregation and predictive reporting.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "info", Format: "json"}).ErrorWithErr(err, "Failed to load configuration")
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(db, migrations.Files)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	documents := postgres.NewDocumentRepository(db)
	organizations := postgres.NewOrganizationRepository(db)
	reports := postgres.NewComplianceRepository(db)

	bus := events.NewBus(cfg.Engine.EventBufferSize, log)
	defer bus.Close()

	v := validator.New()
	loader := rules.NewLoader(v, log)

	opts := []services.ComplianceOption{
		services.WithComplianceRepository(reports),
		services.WithDocumentRepository(documents),
		services.WithOrganizationRepository(organizations),
		services.WithRuleLoader(loader),
	}

	var refresher worker.ChangeRefresher
	if cfg.Regulatory.ChangesFile != "" {
		tracker := regulatory.NewFileTracker(cfg.Regulatory.ChangesFile, cfg.Regulatory.LookAhead, bus, log)
		if _, err := tracker.Refresh(ctx); err != nil {
			log.WithError(err).Warn("Initial regulatory feed load failed")
		}
		refresher = tracker
		opts = append(opts, services.WithTracker(tracker))
	}

	var predictor compliance.Predictor = regulatory.NewHeuristicPredictor()
	if cfg.Regulatory.OpenAIAPIKey != "" {
		predictor = regulatory.NewOpenAIPredictor(cfg.Regulatory.OpenAIAPIKey, cfg.Regulatory.OpenAIModel, log)
		log.With("model", cfg.Regulatory.OpenAIModel).Info("OpenAI impact prediction enabled")
	}
	opts = append(opts, services.WithPredictor(predictor))

	archiver, closeArchive, err := archive.New(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArchive(); err != nil {
			log.WithError(err).Warn("Failed to close archive clients")
		}
	}()
	if archiver != nil {
		opts = append(opts, services.WithArchiver(archiver))
	}

	engine := services.NewComplianceService(services.NewRuleRegistry(log), bus, log, services.ComplianceConfig{
		LoadBuiltins:  cfg.Engine.LoadBuiltins,
		RulesDir:      cfg.Engine.RulesDir,
		ReportWorkers: cfg.Engine.ReportWorkers,
		DefaultStrict: cfg.Engine.DefaultStrict,
	}, opts...)
	if err := engine.Initialize(ctx); err != nil {
		return err
	}
	defer engine.Close()

	if cfg.Scheduler.Enabled {
		scheduler := worker.NewReportScheduler(engine, organizations, refresher, cfg.Scheduler.Schedule, cfg.Scheduler.Predictive, log)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	h := &router.Handlers{
		Health:        handlers.NewHealthHandler(db, engine.Registry(), version, log),
		Compliance:    handlers.NewComplianceHandler(engine, reports, documents, v, cfg.Engine.DefaultStrict, log),
		Rules:         handlers.NewRuleHandler(engine, loader, v, log),
		Documents:     handlers.NewDocumentHandler(documents, bus, v, log),
		Organizations: handlers.NewOrganizationHandler(organizations, bus, v, log),
		Events:        handlers.NewEventsHandler(bus, cfg.Server.AllowedOrigins, log),
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"version":     version,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("Shutting down API server (timeout %s)", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
