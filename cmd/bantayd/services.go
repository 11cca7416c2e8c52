package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/internal/config"
	"github.com/kdelacruz/bantay/internal/email"
	"github.com/kdelacruz/bantay/internal/storage"
	"github.com/kdelacruz/bantay/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ruleCacheTTL bounds how stale a cached rule read may be.
const ruleCacheTTL = 5 * time.Minute

// Services holds all application services and engines.
type Services struct {
	RuleService   bantay.RuleService
	RecordService bantay.RecordService
	CheckService  bantay.CheckService
	StatsService  bantay.StatsService
	ReportService bantay.ReportService
	ActorRegistry bantay.ActorRegistry
	FileStorage   bantay.FileStorage
	EmailService  bantay.EmailService
	Queue         bantay.Queue

	PenaltyEngine *bantay.PenaltyEngine
	Workflow      *bantay.ComplianceWorkflow
	Aggregator    *bantay.Aggregator
}

// initServices initializes all application services.
func initServices(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	// Initialize database wrapper with all domain services
	db := postgres.NewDB(pool)
	logger.Info("database services initialized")

	// Rule reads happen on every penalty application and check save; keep a
	// short-lived cache in front of the catalog.
	rules := postgres.NewCachedRuleService(db.RuleService, ruleCacheTTL)

	// Initialize file storage
	fileStorage, err := storage.NewFileStorage(ctx, logger, cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Info("file storage initialized", slog.String("provider", cfg.Storage.Provider))

	// Initialize email service
	emailService := email.NewEmailService(logger, cfg.Email)
	logger.Info("email service initialized", slog.String("provider", cfg.Email.Provider))

	// Initialize queue
	jobQueue := postgres.NewQueue(pool, logger)
	logger.Info("queue service initialized")

	// Engines
	penalty := bantay.NewPenaltyEngine(rules, db.RecordService, db.ActorRegistry, emailService, logger)
	workflow := bantay.NewComplianceWorkflow(db.CheckService, rules, fileStorage, logger)
	aggregator := bantay.NewAggregator(db.StatsService, db.ReportService, jobQueue, logger)

	return &Services{
		RuleService:   rules,
		RecordService: db.RecordService,
		CheckService:  db.CheckService,
		StatsService:  db.StatsService,
		ReportService: db.ReportService,
		ActorRegistry: db.ActorRegistry,
		FileStorage:   fileStorage,
		EmailService:  emailService,
		Queue:         jobQueue,
		PenaltyEngine: penalty,
		Workflow:      workflow,
		Aggregator:    aggregator,
	}, nil
}
