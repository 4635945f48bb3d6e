// Package main provides the entry point for the race-card ingestion tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/datasource"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile  string
	dateStr     string
	stadiumsStr string

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&dateStr, "date", "", "Date to ingest (YYYY-MM-DD, defaults to today)")
	rootCmd.Flags().StringVar(&stadiumsStr, "stadiums", "", "Comma-separated stadium slugs (required)")
	rootCmd.MarkFlagRequired("stadiums")
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest race cards from the official programs API",
	Long:  `Fetches race cards for the given stadiums and date and stores them for training and prediction.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngestion(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ingest %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runIngestion(ctx context.Context) error {
	date := time.Now().UTC()
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		date = parsed
	}

	stadiums := splitStadiums(stadiumsStr)
	if len(stadiums) == 0 {
		return fmt.Errorf("no stadiums given")
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	client := datasource.NewProgramsClient(&cfg.DataSource, appLogger)
	defer client.Close()

	svc := service.NewIngestionService(client, repos.Race, repos.Racer, appLogger)
	report, err := svc.IngestDate(ctx, date, stadiums)
	if err != nil {
		return err
	}

	appLogger.WithFields(logrus.Fields{
		"stored":    report.RacesStored,
		"not_found": report.NotFound,
		"errors":    report.Errors,
	}).Info("Ingestion finished")
	return nil
}

func splitStadiums(s string) []string {
	parts := strings.Split(s, ",")
	stadiums := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			stadiums = append(stadiums, trimmed)
		}
	}
	return stadiums
}
