// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // required for golang-migrate postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file" // required for golang-migrate file source

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default database configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	cfg := config.DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}

	if testURL := os.Getenv("TEST_DATABASE_URL"); testURL != "" {
		cfg.URL = testURL
	}

	return cfg
}

// withDefaults fills pool settings the caller left at zero.
func withDefaults(cfg config.DatabaseConfig) config.DatabaseConfig {
	def := DefaultDatabaseConfig()
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = def.MaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = def.ConnMaxLifetime
	}
	return cfg
}

func applyPoolSettings(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// InitDB opens the postgres connection and applies pending migrations.
func (dm *Manager) InitDB(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDB",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", true),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.InitDBWithoutMigrations(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(ctx, cfg.URL); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after migration failure", closeErr)
		}
		return nil, err
	}

	return db, nil
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	// key=value DSN form: "host=... dbname=feedback"
	for _, part := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(part, "dbname="); ok && name != "" {
			return name
		}
	}

	return "feedback"
}

// InitDBWithoutMigrations initializes and returns a database connection without running migrations
func (dm *Manager) InitDBWithoutMigrations(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDBWithoutMigrations",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
	)
	defer observability.FinishSpan(span, &err)

	if cfg.URL == "" {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityError,
			"database url is required", "")
	}
	cfg = withDefaults(cfg)

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithoutArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapWithCode(otelDriverErr, contextutils.ErrorCodeDatabaseConnection, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to open database connection")
	}

	applyPoolSettings(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to ping database")
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// RunMigrations applies every pending golang-migrate migration from the migrations directory.
func (dm *Manager) RunMigrations(ctx context.Context, databaseURL string) (err error) {
	migrationsPath, err := dm.GetMigrationsPath()
	if err != nil {
		dm.logger.Error(ctx, "Could not find migrations path", err)
		return err
	}

	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", "postgresql"),
		attribute.String("migration.path", migrationsPath),
	)
	defer observability.FinishSpan(span, &err)

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsPath), databaseURL)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize golang-migrate")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			dm.logger.Error(ctx, "Error closing migration", errors.Join(srcErr, dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		dm.logger.Info(ctx, "No new migrations to apply")
		return nil
	}
	if err != nil {
		return contextutils.WrapError(err, "golang-migrate up failed")
	}

	version, dirty, _ := m.Version()
	span.SetAttributes(attribute.Int("migration.version", int(version)), attribute.Bool("migration.dirty", dirty))
	dm.logger.Info(ctx, "Migrations applied", map[string]interface{}{"version": version})
	return nil
}

// GetMigrationsPath returns the path to the migrations directory, searching
// MIGRATIONS_DIR first and then each parent of the working directory.
func (dm *Manager) GetMigrationsPath() (result0 string, err error) {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		if _, statErr := os.Stat(dir); statErr != nil {
			return "", contextutils.WrapErrorf(statErr, "MIGRATIONS_DIR %s is not accessible", dir)
		}
		return filepath.Abs(dir)
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		migrationsPath := filepath.Join(currentDir, "migrations")
		if info, statErr := os.Stat(migrationsPath); statErr == nil && info.IsDir() {
			return migrationsPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", contextutils.ErrorWithContextf("migrations directory not found in any parent directory")
		}
		currentDir = parentDir
	}
}

// OpenMySQL opens a GORM store on a MySQL-compatible server. The DSN must set
// parseTime=true so created_at scans into time.Time.
func (dm *Manager) OpenMySQL(ctx context.Context, dsn string, cfg config.DatabaseConfig) (result0 *gorm.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "OpenMySQL",
		attribute.String("db.system", "mysql"),
	)
	defer observability.FinishSpan(span, &err)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to open mysql database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to access mysql pool")
	}
	applyPoolSettings(sqlDB, withDefaults(cfg))

	dm.logger.Info(ctx, "MySQL store opened")
	return db, nil
}

// OpenSQLite opens the embedded store at path (":memory:" for a throwaway database).
func (dm *Manager) OpenSQLite(ctx context.Context, path string) (result0 *gorm.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "OpenSQLite",
		attribute.String("db.system", "sqlite"),
		attribute.String("db.path", path),
	)
	defer observability.FinishSpan(span, &err)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to open sqlite database")
	}

	// A single connection keeps ":memory:" databases from splitting per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeDatabaseConnection, "failed to access sqlite pool")
	}
	sqlDB.SetMaxOpenConns(1)

	dm.logger.Info(ctx, "SQLite store opened", map[string]interface{}{"path": path})
	return db, nil
}
