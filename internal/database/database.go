// Package database handles the reference backend's connection and schema.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UserRecord is a stored account. ID is a uuid so identities look the same
// as the production backend's string ids.
type UserRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:100;not null"`
	DisplayName  string `gorm:"size:100;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:20;not null;default:User"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName pins the table name independent of the struct name.
func (UserRecord) TableName() string { return "users" }

// PostRecord is a stored blog entry.
type PostRecord struct {
	ID               int        `gorm:"primaryKey;autoIncrement"`
	Title            string     `gorm:"size:255;not null"`
	Content          string     `gorm:"type:text;not null"`
	AuthorID         string     `gorm:"size:36;index;not null"`
	Author           UserRecord `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedDate      time.Time  `gorm:"not null"`
	LastModifiedDate time.Time  `gorm:"not null"`
}

// TableName pins the table name independent of the struct name.
func (PostRecord) TableName() string { return "posts" }

// slogGormLogger routes GORM output through slog and ignores ErrRecordNotFound.
type slogGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

func newGormLogger(l *slog.Logger) *slogGormLogger {
	return &slogGormLogger{
		logger: l,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	next := *l
	next.Config.LogLevel = level
	return &next
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed and slow queries, and every query at info level.
func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// Connect opens the database for driver ("sqlite" or "postgres") and
// migrates the schema.
func Connect(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if driver == "postgres" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// Each sqlite connection to ":memory:" is its own database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database connected", slog.String("driver", driver))
	return db, nil
}

// Migrate creates or updates the users and posts tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserRecord{}, &PostRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks the connection, for readiness probes.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
