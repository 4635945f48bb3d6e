// Package main provides the entry point for the model training tool.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/health"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/metrics"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/scheduler"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/service"
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
	daemonMode bool

	appLogger *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&startDate, "start-date", "", "Override training start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "", "Override training end date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&modelDir, "model-dir", "", "Override model artifact directory")
	rootCmd.Flags().BoolVar(&daemonMode, "schedule", false, "Run as a daemon retraining on the configured cron schedule")
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the trifecta prediction model",
	Long:  `Fits the three-stage place classifiers from finished races and persists the model artifacts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer db.Close()
		if daemonMode {
			return runDaemon(cmd.Context())
		}
		return runOnce(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("train %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
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

	if modelDir == "" {
		modelDir = cfg.Model.Dir
	}
	return nil
}

func setupDependencies(ctx context.Context) error {
	appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

func trainingService() *service.TrainingService {
	opts := predictor.TrainingOptions{
		LearningRate:  cfg.Training.LearningRate,
		MaxIterations: cfg.Training.MaxIterations,
		Tolerance:     cfg.Training.Tolerance,
		L2Penalty:     cfg.Training.L2Penalty,
	}
	return service.NewTrainingService(repos.Race, repos.RaceResult, cfg.Model.FieldSize, opts, appLogger)
}

func runOnce(ctx context.Context) error {
	start, end, err := resolveDateRange()
	if err != nil {
		return err
	}

	svc := trainingService()
	started := time.Now()
	engine, report, err := svc.Train(ctx, start, end, modelDir)
	if err != nil {
		metrics.RecordTrainingRun("failure", time.Since(started).Seconds())
		return err
	}
	metrics.RecordTrainingRun("success", time.Since(started).Seconds())

	appLogger.WithFields(logrus.Fields{
		"races_scanned": report.RacesScanned,
		"events_built":  report.EventsBuilt,
		"skipped":       report.Skipped,
		"model_dir":     report.ModelDir,
		"trained_at":    engine.TrainedAt().Format(time.RFC3339),
	}).Info("Model trained and saved")
	return nil
}

func runDaemon(ctx context.Context) error {
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled in configuration")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	healthServer := health.NewServer(health.Config{
		ServiceName: "train",
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLogger,
		DB:          db,
	})
	if cfg.Health.Enabled {
		if err := healthServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		go serveMetrics()
	}

	sched := scheduler.NewScheduler(trainingService(), appLogger)
	if err := sched.ScheduleRetraining(cfg.Scheduler.RetrainSchedule, cfg.Scheduler.LookbackDays, modelDir, nil); err != nil {
		return fmt.Errorf("failed to schedule retraining: %w", err)
	}
	if err := sched.Start(); err != nil {
		return err
	}
	healthServer.SetReady(true)

	appLogger.WithFields(logrus.Fields{
		"schedule": cfg.Scheduler.RetrainSchedule,
		"next_run": sched.GetNextRun().Format(time.RFC3339),
	}).Info("Training daemon started")

	<-sigChan
	appLogger.Info("Shutdown signal received")
	healthServer.SetReady(false)
	return sched.Stop()
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	appLogger.WithField("addr", addr).Info("Metrics server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLogger.WithError(err).Error("Metrics server error")
	}
}

func resolveDateRange() (time.Time, time.Time, error) {
	startStr := cfg.Training.StartDate
	endStr := cfg.Training.EndDate
	if startDate != "" {
		startStr = startDate
	}
	if endDate != "" {
		endStr = endDate
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s", endStr, startStr)
	}
	return start, end.Add(24*time.Hour - time.Nanosecond), nil
}
