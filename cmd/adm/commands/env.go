// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/di"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"
)

// Env carries the resources shared by every subcommand.
type Env struct {
	Cfg    *config.Config
	Logger *observability.Logger
	Out    io.Writer
	JSON   bool

	container *di.ServiceContainer
}

// Container initializes the service container on first use.
func (e *Env) Container(ctx context.Context) (*di.ServiceContainer, error) {
	if e.container != nil {
		return e.container, nil
	}
	sc := di.NewServiceContainer(e.Cfg, e.Logger)
	if err := sc.Initialize(ctx); err != nil {
		return nil, contextutils.WrapError(err, "failed to initialize services")
	}
	e.container = sc
	return sc, nil
}

// Close releases the container if one was opened.
func (e *Env) Close(ctx context.Context) error {
	if e.container == nil {
		return nil
	}
	err := e.container.Shutdown(ctx)
	e.container = nil
	return err
}

func (e *Env) writeJSON(v interface{}) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// storeTarget describes the configured store without leaking credentials.
func (e *Env) storeTarget() string {
	switch e.Cfg.Store.Driver {
	case config.StoreDriverSQLite:
		return "sqlite:" + e.Cfg.Store.SQLitePath
	case config.StoreDriverMySQL:
		return "mysql:" + maskMySQLDSN(e.Cfg.Store.MySQLDSN)
	default:
		return maskDatabaseURL(e.Cfg.Database.URL)
	}
}

// maskDatabaseURL masks sensitive parts of the database URL for display
func maskDatabaseURL(url string) string {
	if at := strings.LastIndex(url, "@"); at >= 0 {
		if scheme := strings.Index(url, "://"); scheme >= 0 && scheme < at {
			return url[:scheme+3] + "***:***" + url[at:]
		}
	}
	return url
}

// maskMySQLDSN hides the user:password part of a go-sql-driver DSN
func maskMySQLDSN(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		return "***:***" + dsn[at:]
	}
	return dsn
}
