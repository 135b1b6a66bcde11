package config

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	LogRecords    bool // Log a line per processed record
	LogDetections bool // Log resolved detections per record
	LogVerbose    bool // Log raw detector output before resolution
}

// DatabaseConfig holds PostgreSQL configuration for the optional record
// source and result store
type DatabaseConfig struct {
	Enabled      bool   // Whether to read records from / store results in PostgreSQL
	Host         string // Database host
	Port         int    // Database port
	Database     string // Database name
	Username     string // Database username
	Password     string // Database password
	SSLMode      string // SSL mode (disable, require, etc.)
	MaxOpenConns int    // Maximum open connections
	MaxIdleConns int    // Maximum idle connections
	MaxLifetime  int    // Connection max lifetime in seconds
	SourceQuery  string // Query returning (id, text) rows; empty uses the default
	StoreResults bool   // Whether to persist classification results
}

// Config holds all configuration for the request screener
type Config struct {
	InputPath        string // CSV export of the request spreadsheet
	TextColumn       string // Name of the text-bearing column
	IDColumn         string // Optional id column; rows get generated ids when empty
	ModelDir         string // Directory with model_quantized.onnx, tokenizer.json, label_mappings.json
	Workers          int    // Concurrent record workers
	MaxRecordsPerSec float64
	SentryDSN        string
	Database         DatabaseConfig
	Logging          LoggingConfig
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		InputPath:  "AMOSTRA_e-SIC.csv",
		TextColumn: "Texto Mascarado",
		IDColumn:   "",
		ModelDir:   "model/quantized",
		Workers:    4,
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "esic",
			Username:     "postgres",
			Password:     "",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
			MaxLifetime:  300,
			StoreResults: false,
		},
		Logging: LoggingConfig{
			LogRecords:    true,
			LogDetections: false,
			LogVerbose:    false,
		},
	}
}
