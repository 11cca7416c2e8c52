// Package postgres provides PostgreSQL implementations of domain service interfaces.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kdelacruz/bantay"
)

// DB wraps the database connection pool and exposes domain services.
type DB struct {
	pool *pgxpool.Pool

	// Domain services (initialized in NewDB)
	RuleService   bantay.RuleService
	RecordService bantay.RecordService
	CheckService  bantay.CheckService
	StatsService  bantay.StatsService
	ReportService bantay.ReportService
	ActorRegistry bantay.ActorRegistry
}

// NewDB creates a new database wrapper with all services initialized.
func NewDB(pool *pgxpool.Pool) *DB {
	db := &DB{pool: pool}

	// Initialize services with reference back to DB
	db.RuleService = &RuleService{db: db}
	db.RecordService = &RecordService{db: db}
	db.CheckService = &CheckService{db: db}
	db.StatsService = &StatsService{db: db}
	db.ReportService = &ReportService{db: db}
	db.ActorRegistry = &ActorRegistry{db: db}

	return db
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer using service methods.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}
