// =============================================================================
// Jira to XLSX Converter - Configuration Module
// =============================================================================
//
// This module loads and manages all configuration. It handles two sources:
//
//   1. Main Config (config.yaml): application settings
//   2. Environment: Jira credentials (JIRA_URL, JIRA_EMAIL, JIRA_API_TOKEN,
//      JIRA_WORKLOG_AUTHORS), optionally seeded from a .env file
//
// Credentials never live in the YAML file. They are only required for fetch
// mode; file mode never reads them.
//
// =============================================================================

package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMissingBaseURL indicates JIRA_URL is not set.
	ErrMissingBaseURL = errors.New("JIRA_URL is not set, check .env file")

	// ErrMissingEmail indicates JIRA_EMAIL is not set.
	ErrMissingEmail = errors.New("JIRA_EMAIL is not set, check .env file")

	// ErrMissingAPIToken indicates JIRA_API_TOKEN is not set.
	ErrMissingAPIToken = errors.New("JIRA_API_TOKEN is not set, check .env file")

	// ErrMissingAuthors indicates JIRA_WORKLOG_AUTHORS is not set.
	ErrMissingAuthors = errors.New("JIRA_WORKLOG_AUTHORS is not set, check .env file")
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration loaded from config.yaml.
// Every field has a default, so running without a config file works.
type Config struct {
	// OutputDir is the directory where generated workbooks are placed when
	// no explicit output path is given.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// OutputNameFormat defines the format for generated output file names.
	// Placeholders:
	//   {stem}      - input file name without extension
	//   {mode}      - schema name (applens, msm)
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - current date (YYYY-MM-DD)
	//   {uuid}      - a random UUID
	// Default: "{stem}_{mode}.xlsx"
	OutputNameFormat string `yaml:"output_name_format"`

	// CSV contains settings for parsing input CSV files.
	CSV CSVSettings `yaml:"csv"`

	// Fetch contains settings for the Jira REST client.
	Fetch FetchSettings `yaml:"fetch"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Accepts "," as well as the names "tab", "pipe" and "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// FetchSettings contains settings for the Jira REST client.
type FetchSettings struct {
	// PageSize is the maxResults value sent per search request.
	// Default: 100
	PageSize int `yaml:"page_size"`

	// PageLimit caps how many pages a single fetch may request.
	// 0 means no cap.
	PageLimit int `yaml:"page_limit"`

	// RequestsPerSecond paces search requests.
	// Default: 4
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// TimeoutSeconds is the per-request HTTP timeout.
	// Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// PlatformField is the custom field id carrying the platform value.
	// Default: "customfield_12345"
	PlatformField string `yaml:"platform_field"`
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials holds the Jira connection settings read from the environment.
type Credentials struct {
	// BaseURL is the Jira site URL, trailing slash stripped.
	BaseURL string

	// Email is the account email for basic auth.
	Email string

	// APIToken is the API token paired with Email.
	APIToken string

	// Authors are the worklog author identifiers the JQL filters on.
	Authors []string
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration populated with defaults only. Used when
// no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration from a YAML file, applies defaults and
// validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{stem}_{mode}.xlsx"
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.Fetch.PageSize == 0 {
		cfg.Fetch.PageSize = 100
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = 4
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 30
	}
	if cfg.Fetch.PlatformField == "" {
		cfg.Fetch.PlatformField = "customfield_12345"
	}
}

// validate checks the configuration for values that cannot work.
func validate(cfg *Config) error {
	if cfg.Fetch.PageSize < 0 {
		return fmt.Errorf("fetch.page_size must not be negative, got %d", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.PageLimit < 0 {
		return fmt.Errorf("fetch.page_limit must not be negative, got %d", cfg.Fetch.PageLimit)
	}
	if cfg.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("fetch.requests_per_second must not be negative, got %v", cfg.Fetch.RequestsPerSecond)
	}
	return nil
}

// =============================================================================
// CREDENTIAL LOADING FUNCTIONS
// =============================================================================

// LoadCredentials reads Jira credentials from the environment. A .env file
// at envPath is loaded first when it exists; variables already set in the
// environment take precedence over the file.
func LoadCredentials(envPath string) (*Credentials, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return nil, err
	}

	creds := &Credentials{
		BaseURL:  strings.TrimRight(strings.TrimSpace(os.Getenv("JIRA_URL")), "/"),
		Email:    strings.TrimSpace(os.Getenv("JIRA_EMAIL")),
		APIToken: strings.TrimSpace(os.Getenv("JIRA_API_TOKEN")),
		Authors:  splitAuthors(os.Getenv("JIRA_WORKLOG_AUTHORS")),
	}

	switch {
	case creds.BaseURL == "":
		return nil, ErrMissingBaseURL
	case creds.Email == "":
		return nil, ErrMissingEmail
	case creds.APIToken == "":
		return nil, ErrMissingAPIToken
	case len(creds.Authors) == 0:
		return nil, ErrMissingAuthors
	}

	return creds, nil
}

// splitAuthors parses the comma-separated JIRA_WORKLOG_AUTHORS value.
// Surrounding whitespace and quotes on each entry are stripped.
func splitAuthors(raw string) []string {
	var authors []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			authors = append(authors, part)
		}
	}
	return authors
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error. Blank lines and lines
// starting with # are skipped. Variables already present in the environment
// are not overridden.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	return nil
}
