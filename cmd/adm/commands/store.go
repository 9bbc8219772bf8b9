package commands

import (
	"context"
	"fmt"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/database"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// MigrateCommand returns the schema migration command
func MigrateCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the record store schema",
		Long: `Apply the record store schema.

Postgres stores run the bundled SQL migrations; SQLite and MySQL stores
are auto-migrated from the record model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := migrate(ctx, env); err != nil {
				env.Logger.Error(ctx, "Migration failed", err, map[string]interface{}{"store": env.storeTarget()})
				return err
			}
			green.Fprintf(env.Out, "schema up to date (%s)\n", env.storeTarget())
			return nil
		},
	}
}

func migrate(ctx context.Context, env *Env) error {
	dbManager := database.NewManager(env.Logger)

	var (
		gdb *gorm.DB
		err error
	)
	switch env.Cfg.Store.Driver {
	case config.StoreDriverSQLite:
		gdb, err = dbManager.OpenSQLite(ctx, env.Cfg.Store.SQLitePath)
	case config.StoreDriverMySQL:
		gdb, err = dbManager.OpenMySQL(ctx, env.Cfg.Store.MySQLDSN, env.Cfg.Database)
	default:
		return dbManager.RunMigrations(ctx, env.Cfg.Database.URL)
	}
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return contextutils.WrapError(err, "failed to access gorm pool")
	}
	defer func() { _ = sqlDB.Close() }()

	if _, err := store.NewGormStore(gdb, env.Logger); err != nil {
		return err
	}
	return nil
}

// SerialCommands returns the serial number commands
func SerialCommands(env *Env) *cobra.Command {
	serialCmd := &cobra.Command{
		Use:   "serial",
		Short: "Serial number commands",
	}

	serialCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the serial number the next submission would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			allocator, err := sc.GetAllocator()
			if err != nil {
				return err
			}
			next, err := allocator.Next(cmd.Context())
			if err != nil {
				yellow.Fprintf(env.Out, "latest serial unreadable, falling back: %v\n", err)
			}
			if env.JSON {
				return env.writeJSON(map[string]string{"prefix": allocator.Prefix(), "next": next})
			}
			_, err = fmt.Fprintln(env.Out, next)
			return err
		},
	})

	return serialCmd
}
