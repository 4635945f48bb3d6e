// Package main provides the entry point for the model evaluation tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/evaluate"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/metrics"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	startDate  string
	endDate    string
	modelDir   string
	stake      float64
	withOdds   bool

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&startDate, "start-date", "", "Evaluation start date (YYYY-MM-DD, required)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "", "Evaluation end date (YYYY-MM-DD, required)")
	rootCmd.Flags().StringVar(&modelDir, "model-dir", "", "Override model artifact directory")
	rootCmd.Flags().Float64Var(&stake, "stake", 100, "Flat stake per simulated bet")
	rootCmd.Flags().BoolVar(&withOdds, "with-odds", true, "Simulate flat-stake betting against stored odds")
	rootCmd.MarkFlagRequired("start-date")
	rootCmd.MarkFlagRequired("end-date")
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a trained model on held-out races",
	Long:  `Replays finished races through the trained model and reports log loss, hit rates and flat-stake ROI.`,
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
		if modelDir == "" {
			modelDir = cfg.Model.Dir
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluation(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("evaluate %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runEvaluation(ctx context.Context) error {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	end = end.Add(24*time.Hour - time.Nanosecond)

	engine, err := predictor.Load(modelDir, appLogger)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", modelDir, err)
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

	var oddsRepo repository.OddsRepository
	if withOdds {
		oddsRepo = repos.Odds
	}
	evaluator, err := evaluate.NewEvaluator(engine, repos.Race, repos.RaceResult, oddsRepo, appLogger)
	if err != nil {
		return err
	}

	evalCfg := evaluate.Config{
		StartDate: start,
		EndDate:   end,
		Stake:     decimal.NewFromFloat(stake),
	}
	report, err := evaluator.Run(ctx, evalCfg)
	if err != nil {
		metrics.RecordEvaluationRun("failure")
		return err
	}
	metrics.RecordEvaluationRun("success")

	fmt.Println(report.ToJSON())
	return nil
}
