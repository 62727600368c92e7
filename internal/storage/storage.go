package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nizwa-nursing/cpd-portal/db"
	"github.com/nizwa-nursing/cpd-portal/internal"
)

// Handles exposes the one local database through the two access layers the
// portal uses: gorm for the session key-value table and sqlx for the
// registration ledger.
type Handles struct {
	Driver string
	Gorm   *gorm.DB
	SQL    *sql.DB
	X      *sqlx.DB
}

func Open(ctx context.Context, cfg internal.StorageConfig, logger *slog.Logger) (*Handles, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		pgCfg, err := pgx.ParseConfig(cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("invalid postgres source: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pgCfg)})
	default:
		dialector = sqlite.Open(cfg.GetDSN())
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver != "postgres" {
		// sqlite allows one writer; in-memory databases are per connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping storage: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, sqlDB, cfg.Driver); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("storage migrated", "driver", cfg.Driver)
	}

	return &Handles{
		Driver: cfg.Driver,
		Gorm:   gdb,
		SQL:    sqlDB,
		X:      sqlx.NewDb(sqlDB, cfg.SQLDriverName()),
	}, nil
}

// OpenInMemory returns a migrated private sqlite database.
func OpenInMemory(ctx context.Context, logger *slog.Logger) (*Handles, error) {
	return Open(ctx, internal.StorageConfig{
		Driver:      "sqlite",
		Source:      "file::memory:",
		AutoMigrate: true,
	}, logger)
}

func (h *Handles) Close() error {
	return h.SQL.Close()
}

// Redacted hides credentials in a DSN for log lines.
func Redacted(source string) string {
	if i := strings.Index(source, "@"); i > 0 {
		if j := strings.Index(source, "://"); j > 0 && j < i {
			return source[:j+3] + "***" + source[i:]
		}
	}
	return source
}
