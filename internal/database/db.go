package database

import (
	"fmt"
	"time"

	"sales-ims/internal/logger"
	"sales-ims/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxAttempts  = 10
	retryBackoff = 2 * time.Second
)

// Options selects the SQL dialect and connection string.
type Options struct {
	Driver string // postgres, mysql or sqlite
	DSN    string
}

func dialector(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "postgres":
		return postgres.Open(opts.DSN), nil
	case "mysql":
		return mysql.Open(opts.DSN), nil
	case "sqlite":
		return sqlite.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Open connects (retrying while the server comes up) and creates the schema.
func Open(opts Options, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dial, err := dialector(opts)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger: logger.NewGormLogger(log, gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	for i := 1; i <= maxAttempts; i++ {
		db, err = gorm.Open(dial, gormCfg)
		if err == nil {
			break
		}
		log.Warn("failed to connect to db",
			zap.String("driver", opts.Driver),
			zap.Int("attempt", i),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		if i < maxAttempts {
			time.Sleep(retryBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db after %d attempts: %w", maxAttempts, err)
	}

	if opts.Driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps in-memory
		// databases alive and avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("connected to db", zap.String("driver", opts.Driver))
	return db, nil
}

// Migrate creates or updates the tables backing the four entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.SalesOrder{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
