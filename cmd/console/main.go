// Command console is the interactive maintenance menu.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/motolog/internal/config"
	"github.com/ukydev/motolog/internal/console"
	"github.com/ukydev/motolog/internal/db"
	"github.com/ukydev/motolog/internal/maintenance"
	"github.com/ukydev/motolog/internal/models"
	"github.com/ukydev/motolog/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// defaultLogLevel keeps log lines out of the menu unless asked for.
const defaultLogLevel = "warn"

func rootCmd(cfg config.Config) *cobra.Command {
	var (
		backend    string
		sqlitePath string
		reportsDir string
		currency   string
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive vehicle maintenance menu",
		Long: `Console keeps a list of maintenance items, shows when each part is
due again and writes dated reports under the reports directory.

Items live in memory unless --store selects sqlite or mongo.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := cfg.Log
			logCfg.Level = consoleLogLevel(cmd, cfg.Log)
			if err := config.SetupLogging(logCfg); err != nil {
				return err
			}

			store, err := db.Open(cmd.Context(), db.Options{
				Backend:    backend,
				SQLitePath: sqlitePath,
				MongoURI:   cfg.Store.MongoURI,
				MongoDB:    cfg.Store.MongoDB,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.WithError(err).Warn("Failed to close store")
				}
			}()

			service := maintenance.NewService(store, maintenance.Options{
				DateLayout: models.DisplayDateLayout,
				Builder:    report.Builder{Currency: currency},
				Sink:       report.DailyFile{Dir: reportsDir},
			})
			return console.New(service, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&backend, "store", db.BackendMemory, "Item store (memory, sqlite, mongo)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", cfg.Store.SQLitePath, "SQLite database file for --store sqlite")
	cmd.Flags().StringVar(&reportsDir, "reports-dir", cfg.Report.Dir, "Directory for saved reports")
	cmd.Flags().StringVar(&currency, "currency", cfg.Report.Currency, "Currency symbol used in reports")
	cmd.Flags().String("log-level", defaultLogLevel, "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	return cmd
}

// consoleLogLevel picks --log-level when given, then LOG_LEVEL from the
// environment or .env, then defaultLogLevel.
func consoleLogLevel(cmd *cobra.Command, c config.Log) string {
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		return level
	}
	if _, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return c.Level
	}
	return defaultLogLevel
}
