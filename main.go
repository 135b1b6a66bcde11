package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/hannes/esic-screener/config"
	"github.com/hannes/esic-screener/pii"
	detectors "github.com/hannes/esic-screener/pii/detectors"
	"github.com/hannes/esic-screener/records"
	"github.com/hannes/esic-screener/report"
)

const TRUE = "true"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file from current directory")
	} else {
		log.Printf("Note: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "Path to JSON config file")
	inputPath := flag.String("input", "", "Path to CSV input file (overrides config)")
	workers := flag.Int("workers", 0, "Number of concurrent workers (overrides config)")
	flag.Parse()

	if *configPath != "" {
		loadConfigFromFile(*configPath, cfg)
	}

	// Override configuration with environment variables
	loadConfigFromEnv(cfg)

	if *inputPath != "" {
		cfg.InputPath = *inputPath
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Printf("Warning: sentry initialization failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Model load is fatal on failure: name detection cannot be silently
	// skipped, so no record is processed without it.
	manager, err := pii.NewModelManager(cfg.ModelDir)
	if err != nil {
		log.Fatalf("Failed to load entity-tagging model: %v", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Printf("Warning: failed to close model manager: %v", err)
		}
	}()

	pipeline := pii.NewPipeline(manager, detectors.StrongCategories(), cfg.Logging)
	runner := pii.NewRunner(pipeline, cfg.Workers, cfg.MaxRecordsPerSec)

	source, err := openSource(cfg)
	if err != nil {
		log.Fatalf("Failed to open record source: %v", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Printf("Warning: failed to close record source: %v", err)
		}
	}()

	ctx := context.Background()
	results, err := runner.Run(ctx, source)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	reporter := report.NewConsoleReporter(os.Stdout)
	if err := reporter.ReportAll(results); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if cfg.Database.Enabled && cfg.Database.StoreResults {
		store, err := report.NewPostgresStore(postgresConfig(cfg))
		if err != nil {
			log.Fatalf("Failed to open result store: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close result store: %v", err)
			}
		}()
		if err := store.SaveAll(ctx, results); err != nil {
			log.Fatalf("Failed to store results: %v", err)
		}
		log.Printf("Stored %d results", len(results))
	}
}

// openSource picks PostgreSQL when the database is enabled, the CSV export
// otherwise.
func openSource(cfg *config.Config) (records.Source, error) {
	if cfg.Database.Enabled {
		log.Printf("Reading records from PostgreSQL database %q", cfg.Database.Database)
		return records.NewPostgresSource(postgresConfig(cfg), cfg.Database.SourceQuery)
	}
	log.Printf("Reading records from %s (column %q)", cfg.InputPath, cfg.TextColumn)
	return records.NewCSVSource(cfg.InputPath, cfg.TextColumn, cfg.IDColumn)
}

func postgresConfig(cfg *config.Config) records.PostgresConfig {
	return records.PostgresConfig{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		Database:     cfg.Database.Database,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  time.Duration(cfg.Database.MaxLifetime) * time.Second,
	}
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(path string, cfg *config.Config) {
	// #nosec G304 - Config file path is controlled by application, not user input
	file, err := os.Open(path)
	if err != nil {
		log.Printf("Failed to open config file: %v", err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Failed to close config file: %v", err)
		}
	}()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		log.Printf("Failed to decode config file: %v", err)
	}
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(cfg *config.Config) {
	loadInputConfig(cfg)
	loadModelConfig(cfg)
	loadDatabaseConfig(cfg)
	loadRunnerConfig(cfg)
	loadLoggingConfig(cfg)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.SentryDSN = dsn
	}
}

// loadInputConfig loads record source configuration from environment variables
func loadInputConfig(cfg *config.Config) {
	if inputPath := os.Getenv("INPUT_PATH"); inputPath != "" {
		cfg.InputPath = inputPath
	}

	if textColumn := os.Getenv("TEXT_COLUMN"); textColumn != "" {
		cfg.TextColumn = textColumn
	}

	if idColumn := os.Getenv("ID_COLUMN"); idColumn != "" {
		cfg.IDColumn = idColumn
	}
}

// loadModelConfig loads model configuration from environment variables
func loadModelConfig(cfg *config.Config) {
	if modelDir := os.Getenv("MODEL_DIR"); modelDir != "" {
		cfg.ModelDir = modelDir
	}
}

// loadDatabaseConfig loads database configuration from environment variables
func loadDatabaseConfig(cfg *config.Config) {
	if dbEnabled := os.Getenv("DB_ENABLED"); dbEnabled != "" {
		cfg.Database.Enabled = dbEnabled == TRUE
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.Username = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if query := os.Getenv("DB_SOURCE_QUERY"); query != "" {
		cfg.Database.SourceQuery = query
	}

	if storeResults := os.Getenv("DB_STORE_RESULTS"); storeResults != "" {
		cfg.Database.StoreResults = storeResults == TRUE
	}
}

// loadRunnerConfig loads worker pool configuration from environment variables
func loadRunnerConfig(cfg *config.Config) {
	if workers := os.Getenv("WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	if maxPerSec := os.Getenv("MAX_RECORDS_PER_SEC"); maxPerSec != "" {
		if m, err := strconv.ParseFloat(maxPerSec, 64); err == nil && m >= 0 {
			cfg.MaxRecordsPerSec = m
		}
	}
}

// loadLoggingConfig loads logging configuration from environment variables
func loadLoggingConfig(cfg *config.Config) {
	if logRecords := os.Getenv("LOG_RECORDS"); logRecords != "" {
		cfg.Logging.LogRecords = logRecords == TRUE
	}

	if logDetections := os.Getenv("LOG_DETECTIONS"); logDetections != "" {
		cfg.Logging.LogDetections = logDetections == TRUE
	}

	if logVerbose := os.Getenv("LOG_VERBOSE"); logVerbose != "" {
		cfg.Logging.LogVerbose = logVerbose == TRUE
	}
}
