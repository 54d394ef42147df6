package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// HighScore is one persisted value
type HighScore struct {
	Key       string  `gorm:"primaryKey;size:64"`
	Value     float64 `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name
func (HighScore) TableName() string {
	return "highscores"
}

// Gorm stores values in SQLite or Postgres
type Gorm struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenGorm connects to the configured database and migrates the schema
func OpenGorm(opts Options, log zerolog.Logger) (*Gorm, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch opts.Driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		}), cfg)
	case DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// a private in-memory database exists per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&HighScore{}); err != nil {
		return nil, fmt.Errorf("failed to migrate highscores: %w", err)
	}

	log.Info().Str("driver", opts.Driver).Msg("Connected to high score database")
	return &Gorm{db: db, log: log}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (float64, error) {
	var row HighScore
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	return row.Value, nil
}

func (g *Gorm) Set(ctx context.Context, key string, value float64) error {
	row := HighScore{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	g.log.Debug().Str("key", key).Float64("value", value).Msg("High score saved")
	return nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
