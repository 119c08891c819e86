package main

import (
	"fmt"
	"log"
	"os"

	"fairbounty/config"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const programName = "fairbounty"

var globalFlags = struct {
	debug bool
}{}

// openDB connects to Postgres. Unique-constraint violations surface as
// gorm.ErrDuplicatedKey.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if globalFlags.debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if _, err := maxprocs.Set(maxprocs.Logger(log.Printf)); err != nil {
		log.Printf("⚠️  GOMAXPROCS not adjusted: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "FairBounty data API and FairScale score proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, args)
		},
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "log SQL statements")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(betaCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
