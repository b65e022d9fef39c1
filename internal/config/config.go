package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	Vector    VectorConfig     `json:"vector"`
	Extract   ExtractConfig    `json:"extract"`
	FileStore FileStoreConfig  `json:"file_store"`
	Jobs      JobConfig        `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorConfig struct {
	BaseURL        string `json:"base_url"`
	Collection     string `json:"collection"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ExtractConfig carries every knob of the extraction engine. It is passed into
// the coordinator at construction, not held as process-wide state, so multiple
// pipelines can run with different settings in one process.
type ExtractConfig struct {
	Provider              string      `json:"provider"`
	Data                  interface{} `json:"data"`
	Model                 string      `json:"model"`
	EmbedProvider         string      `json:"embed_provider"`
	EmbedData             interface{} `json:"embed_data"`
	EmbedModel            string      `json:"embed_model"`
	// EmbedDim must match the output dimension of embed_model; it sizes the
	// embedding_cache vector column at migration time.
	EmbedDim              int         `json:"embed_dim"`
	WorkerCount           int         `json:"worker_count"`
	MaxRowsPerChunk       int         `json:"max_rows_per_chunk"`
	PerCallTimeoutSeconds int         `json:"per_call_timeout_seconds"`
	RetryCount            int         `json:"retry_count"`
	CacheSize             int         `json:"cache_size"`
	CacheTTLHours         int         `json:"cache_ttl_hours"`
	CacheKeepDays         int         `json:"cache_keep_days"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type JobConfig struct {
	ExtractSpec string `json:"extract_spec"`
	CleanupSpec string `json:"cleanup_spec"`
	BatchSize   int    `json:"batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == 0 {
		return fmt.Errorf("%w: port is required", appErr.ErrConfiguration)
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.DBName == "") {
		return fmt.Errorf("%w: database dsn or host/db_name is required", appErr.ErrConfiguration)
	}
	if c.Vector.BaseURL == "" {
		return fmt.Errorf("%w: vector.base_url is required", appErr.ErrConfiguration)
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "project_docs"
	}
	if c.Vector.TimeoutSeconds <= 0 {
		c.Vector.TimeoutSeconds = 30
	}
	if err := c.Extract.Validate(); err != nil {
		return err
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	if c.Jobs.ExtractSpec == "" {
		c.Jobs.ExtractSpec = "* * * * *"
	}
	if c.Jobs.CleanupSpec == "" {
		c.Jobs.CleanupSpec = "0 3 * * *"
	}
	if c.Jobs.BatchSize <= 0 {
		c.Jobs.BatchSize = 5
	}
	return nil
}

// Validate rejects non-positive engine parameters before any chunk is
// dispatched.
func (c *ExtractConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("%w: extract.provider is required", appErr.ErrConfiguration)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: extract.model is required", appErr.ErrConfiguration)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: extract.worker_count must be >= 1", appErr.ErrConfiguration)
	}
	if c.MaxRowsPerChunk < 1 {
		return fmt.Errorf("%w: extract.max_rows_per_chunk must be >= 1", appErr.ErrConfiguration)
	}
	if c.PerCallTimeoutSeconds < 1 {
		return fmt.Errorf("%w: extract.per_call_timeout_seconds must be >= 1", appErr.ErrConfiguration)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("%w: extract.retry_count must be >= 0", appErr.ErrConfiguration)
	}
	if c.EmbedProvider == "" {
		c.EmbedProvider = c.Provider
	}
	if c.EmbedData == nil {
		c.EmbedData = c.Data
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("%w: extract.embed_model is required", appErr.ErrConfiguration)
	}
	if c.EmbedDim < 0 {
		return fmt.Errorf("%w: extract.embed_dim must be > 0", appErr.ErrConfiguration)
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = 1536
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 4096
	}
	if c.CacheTTLHours <= 0 {
		c.CacheTTLHours = 2
	}
	if c.CacheKeepDays <= 0 {
		c.CacheKeepDays = 30
	}
	return nil
}
