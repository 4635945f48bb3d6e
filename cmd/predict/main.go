// Package main provides the entry point for the prediction CLI tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
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
	configFile string
	raceIDStr  string
	cardFile   string
	modelDir   string
	topN       int
	jsonOutput bool

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&raceIDStr, "race-id", "", "UUID of the race to predict")
	rootCmd.Flags().StringVar(&cardFile, "card", "", "Path to a race-card JSON file (predicts without the database)")
	rootCmd.Flags().StringVar(&modelDir, "model-dir", "", "Override model artifact directory")
	rootCmd.Flags().IntVar(&topN, "top", 10, "Number of top outcomes to print")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full probability table as JSON")
	rootCmd.MarkFlagsOneRequired("race-id", "card")
	rootCmd.MarkFlagsMutuallyExclusive("race-id", "card")
}

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict trifecta probabilities for a race",
	Long:  `Loads the trained model artifacts and computes the full ordered-triple probability table for one race.`,
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
		return runPredict(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("predict %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runPredict(ctx context.Context) error {
	engine, err := predictor.Load(modelDir, appLogger)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", modelDir, err)
	}

	if cardFile != "" {
		return predictFromCard(ctx, engine)
	}

	raceID, err := uuid.Parse(raceIDStr)
	if err != nil {
		return fmt.Errorf("invalid race ID %q: %w", raceIDStr, err)
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

	svc := service.NewPredictionService(engine, repos.Race, repos.Prediction, service.PredictionServiceConfig{
		CacheTTL:     time.Duration(cfg.Prediction.CacheTTLSeconds) * time.Second,
		StoreResults: cfg.Prediction.StoreResults,
	}, appLogger)

	prediction, err := svc.PredictRace(ctx, raceID)
	if err != nil {
		return err
	}

	if jsonOutput {
		fmt.Println(string(prediction.Probabilities))
		return nil
	}
	return printTopOutcomes(prediction)
}

// predictFromCard scores a race card read from disk, with no database access
func predictFromCard(ctx context.Context, engine *predictor.Engine) error {
	data, err := os.ReadFile(cardFile)
	if err != nil {
		return fmt.Errorf("failed to read race card %s: %w", cardFile, err)
	}
	var race models.Race
	if err := json.Unmarshal(data, &race); err != nil {
		return fmt.Errorf("failed to parse race card %s: %w", cardFile, err)
	}

	svc := service.NewPredictionService(engine, nil, nil, service.PredictionServiceConfig{}, appLogger)
	prediction, err := svc.PredictCard(ctx, &race)
	if err != nil {
		return err
	}

	if jsonOutput {
		fmt.Println(string(prediction.Probabilities))
		return nil
	}
	return printTopOutcomes(prediction)
}

// printTopOutcomes lists the highest-probability triples in rank order
func printTopOutcomes(prediction *models.Prediction) error {
	probs, err := prediction.ParseProbabilities()
	if err != nil {
		return fmt.Errorf("failed to parse probabilities: %w", err)
	}

	type entry struct {
		key  string
		prob float64
	}
	entries := make([]entry, 0, len(probs))
	for key, prob := range probs {
		entries = append(entries, entry{key, prob})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].prob != entries[j].prob {
			return entries[i].prob > entries[j].prob
		}
		return entries[i].key < entries[j].key
	})

	limit := topN
	if limit > len(entries) {
		limit = len(entries)
	}
	for i := 0; i < limit; i++ {
		fmt.Printf("%2d. %-8s %.4f%%\n", i+1, entries[i].key, entries[i].prob*100)
	}
	return nil
}
