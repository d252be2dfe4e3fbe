package storage

import (
	"fmt"
	"os"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/schema"
)

// Mode selects the backing store
type Mode string

const (
	ModePostgres Mode = "postgres"
	ModeDynamo   Mode = "dynamo"
	ModeNone     Mode = "none"
)

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode             DynamoMode
	Endpoint         string // for local mode
	Region           string
	AttendanceTable  string
	PresenceTable    string
	AlertsTable      string
	PredictionsTable string
	RankingsTable    string
	TransfersTable   string
}

// Config holds the store selection and its connection settings
type Config struct {
	Mode        Mode
	DatabaseURL string
	Schema      schema.Contract
	Dynamo      DynamoConfig
}

// LoadConfig loads the store config from environment
func LoadConfig() (Config, error) {
	mode := Mode(getEnv("STORE_MODE", string(ModeNone)))
	switch mode {
	case ModePostgres, ModeDynamo, ModeNone:
	default:
		return Config{}, fmt.Errorf("invalid STORE_MODE: %q", mode)
	}

	contract, err := schema.Load(os.Getenv)
	if err != nil {
		return Config{}, fmt.Errorf("invalid schema contract: %w", err)
	}

	cfg := Config{
		Mode:        mode,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Schema:      contract,
		Dynamo:      LoadDynamoConfig(),
	}

	if cfg.Mode == ModePostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_MODE=postgres")
	}
	return cfg, nil
}

// LoadDynamoConfig loads DynamoDB config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := DynamoMode(getEnv("DYNAMO_MODE", string(DynamoModeAWS)))
	if mode != DynamoModeLocal {
		mode = DynamoModeAWS
	}

	return DynamoConfig{
		Mode:             mode,
		Endpoint:         getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:           getEnv("DYNAMO_REGION", "sa-east-1"),
		AttendanceTable:  getEnv("DYNAMO_ATTENDANCE_TABLE", "eprosys-attendance"),
		PresenceTable:    getEnv("DYNAMO_PRESENCE_TABLE", "eprosys-presence"),
		AlertsTable:      getEnv("DYNAMO_ALERTS_TABLE", "eprosys-alerts"),
		PredictionsTable: getEnv("DYNAMO_PREDICTIONS_TABLE", "eprosys-predictions"),
		RankingsTable:    getEnv("DYNAMO_RANKINGS_TABLE", "eprosys-rankings"),
		TransfersTable:   getEnv("DYNAMO_TRANSFERS_TABLE", "eprosys-transfers"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
