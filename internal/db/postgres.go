package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/types"
	"github.com/luminalib/luminalib-backend/internal/utils"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService connects to Postgres by default; DB_DRIVER=sqlite selects
// an embedded database for local development.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "luminalib.db", log)
		serviceLog.Info("Connecting to SQLite...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "luminalib", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

		serviceLog.Info("Connecting to Postgres...", "host", host, "db", name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.Book{},
		&types.BookFile{},
		&types.Tag{},
		&types.BookTag{},
		&types.Borrow{},
		&types.Review{},
		&types.UserTagPreference{},
		&types.RecommendationSnapshot{},
		&types.RecommendationItem{},
		&types.BookArtifact{},
		&types.JobRun{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.db.Dialector.Name() == "postgres" {
		// One active borrow per book and per user, enforced at the DB level.
		if err := s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ix_borrows_book_active ON borrows (book_id) WHERE returned_at IS NULL`).Error; err != nil {
			return fmt.Errorf("create ix_borrows_book_active: %w", err)
		}
		if err := s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ix_borrows_user_active ON borrows (user_id) WHERE returned_at IS NULL`).Error; err != nil {
			return fmt.Errorf("create ix_borrows_user_active: %w", err)
		}
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
