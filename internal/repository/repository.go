package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"go.uber.org/zap"
)

var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    time.Millisecond,
	Backoff:  2,
}

// Repository bundles the three stores the comment thread engine writes
// to. They share one connection pool; consistency across them is the
// engine's job, not the database's (no cross-store transaction).
type Repository struct {
	Comments      *CommentRepo
	Blogs         *BlogRepo
	Notifications *NotificationRepo

	db *dbpg.DB
}

func NewRepository(masterDSN string, slaveDSNs []string, log *zap.Logger) (*Repository, error) {
	opts := dbpg.Options{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Starting database migrations")
	if err := runMigrations(masterDSN); err != nil {
		log.Error("Failed to run migrations", zap.Error(err))
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	log.Info("Successfully migrated database")

	repoLog := log.Named("repository")
	return &Repository{
		Comments:      &CommentRepo{db: db, log: repoLog.Named("comments")},
		Blogs:         &BlogRepo{db: db, log: repoLog.Named("blogs")},
		Notifications: &NotificationRepo{db: db, log: repoLog.Named("notifications")},
		db:            db,
	}, nil
}

func runMigrations(connStr string) error {
	migratePath := os.Getenv("MIGRATE_PATH")
	if migratePath == "" {
		migratePath = "./migrations"
	}
	absPath, err := filepath.Abs(migratePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	absPath = filepath.ToSlash(absPath)
	migrateUrl := fmt.Sprintf("file://%s", absPath)
	m, err := migrate.New(migrateUrl, connStr)
	if err != nil {
		return fmt.Errorf("start migrations error %v", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration up error: %v", err)
	}
	return nil
}
