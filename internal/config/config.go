package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects the pipeline variant
type Mode string

const (
	// ModeFile writes the fetched listing to a JSON snapshot and stops
	ModeFile Mode = "file"
	// ModeWarehouse projects the listing and loads it into BigQuery
	ModeWarehouse Mode = "warehouse"
)

// Config contains runtime settings for one pipeline run
type Config struct {
	LogLevel    string
	LogEncoding string
	Mode        Mode

	SnapshotPath string

	Remotive struct {
		BaseURL  string
		Category string
		Search   string
		Limit    int
		Timeout  time.Duration
	}

	BigQuery struct {
		ProjectID string // empty: discovered from ambient credentials
		DatasetID string
		TableID   string
		Location  string
	}

	// Graph sink, enabled when URI is set
	Neo4j struct {
		URI      string
		Username string
		Password string
		Database string
	}

	// Sheet sink, enabled when SpreadsheetID is set
	Sheets struct {
		SpreadsheetID   string
		Tab             string
		CredentialsPath string
	}
}

// Neo4jEnabled reports whether the graph sink is configured
func (c Config) Neo4jEnabled() bool {
	return c.Mode == ModeWarehouse && c.Neo4j.URI != ""
}

// SheetsEnabled reports whether the sheet sink is configured
func (c Config) SheetsEnabled() bool {
	return c.Mode == ModeWarehouse && c.Sheets.SpreadsheetID != ""
}

// Load populates config from environment variables
func Load() (Config, error) {
	cfg := Config{
		LogLevel:    "info",
		LogEncoding: "json",
		Mode:        ModeWarehouse,
	}
	cfg.Remotive.BaseURL = "https://remotive.com"
	cfg.Remotive.Category = "software-dev"
	cfg.Remotive.Timeout = 30 * time.Second
	cfg.BigQuery.DatasetID = "remote_jobs_dataset"
	cfg.BigQuery.TableID = "jobs"
	cfg.BigQuery.Location = "US"
	cfg.Sheets.Tab = "Jobs"

	var errs []error

	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogEncoding, "LOG_ENCODING")

	if v := os.Getenv("PIPELINE_MODE"); v != "" {
		switch m := Mode(strings.ToLower(v)); m {
		case ModeFile, ModeWarehouse:
			cfg.Mode = m
		default:
			errs = append(errs, fmt.Errorf("PIPELINE_MODE: unknown mode %q", v))
		}
	}

	if cfg.Mode == ModeFile {
		cfg.SnapshotPath = "remote_jobs.json"
	} else {
		cfg.SnapshotPath = "temp_jobs.json"
	}
	setString(&cfg.SnapshotPath, "SNAPSHOT_PATH")

	setString(&cfg.Remotive.BaseURL, "REMOTIVE_BASE_URL")
	setString(&cfg.Remotive.Category, "REMOTIVE_CATEGORY")
	setString(&cfg.Remotive.Search, "REMOTIVE_SEARCH")
	errs = append(errs, setInt(&cfg.Remotive.Limit, "REMOTIVE_LIMIT"))
	errs = append(errs, setDuration(&cfg.Remotive.Timeout, "REMOTIVE_TIMEOUT"))

	setString(&cfg.BigQuery.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setString(&cfg.BigQuery.DatasetID, "BIGQUERY_DATASET")
	setString(&cfg.BigQuery.TableID, "BIGQUERY_TABLE")
	setString(&cfg.BigQuery.Location, "BIGQUERY_LOCATION")

	cfg.Neo4j.URI = os.Getenv("NEO4J_URI")
	cfg.Neo4j.Username = os.Getenv("NEO4J_USERNAME")
	cfg.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")
	cfg.Neo4j.Database = os.Getenv("NEO4J_DATABASE")

	cfg.Sheets.SpreadsheetID = os.Getenv("SHEETS_SPREADSHEET_ID")
	setString(&cfg.Sheets.Tab, "SHEETS_TAB")
	cfg.Sheets.CredentialsPath = os.Getenv("SHEETS_CREDENTIALS_PATH")

	var missingVars []string

	if cfg.Neo4j.URI != "" {
		if cfg.Neo4j.Username == "" {
			missingVars = append(missingVars, "NEO4J_USERNAME")
		}
		if cfg.Neo4j.Password == "" {
			missingVars = append(missingVars, "NEO4J_PASSWORD")
		}
	}

	if len(missingVars) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", ")))
	}

	if cfg.Remotive.Limit < 0 {
		errs = append(errs, fmt.Errorf("REMOTIVE_LIMIT: must not be negative"))
	}

	return cfg, errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive", key)
	}
	*dst = d
	return nil
}
