package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends for content records.
const (
	StorageFilesystem = "filesystem"
	StorageRedis      = "redis"
	StorageS3         = "s3"
	StorageSQLite     = "sqlite"
)

// TagStorageRedis is the only tag index backend.
const TagStorageRedis = "redis"

// DefaultMaxPromptLength is the character budget for classifier input.
const DefaultMaxPromptLength = 200000

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "classify.yml"

// Config represents the top-level classify.yml configuration
type Config struct {
	Version    string           `yaml:"version"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	TagStorage TagStorageConfig `yaml:"tag_storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// APIConfig specifies the HTTP listener
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey is normally supplied through API_KEY rather than the file
	APIKey string `yaml:"api_key,omitempty"`
}

// StorageConfig selects the content store
type StorageConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"` // filesystem directory or sqlite file

	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config specifies bucket access for the s3 content store
type S3Config struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Profile   string `yaml:"profile,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"` // S3-compatible servers (MinIO, localstack)
}

// TagStorageConfig selects the tag index. It also holds the Redis connection
// used by the redis content store.
type TagStorageConfig struct {
	Type          string `yaml:"type"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	Namespace     string `yaml:"namespace"`
}

// ClassifierConfig selects the tagging provider
type ClassifierConfig struct {
	Type            string `yaml:"type"`
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
	ClaudeModel     string `yaml:"claude_model,omitempty"`
	OpenAIAPIKey    string `yaml:"openai_api_key,omitempty"`
	OpenAIModel     string `yaml:"openai_model,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`

	MaxPromptLength   int           `yaml:"max_prompt_length"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	Burst             int           `yaml:"burst,omitempty"`

	// DetectDuplicates returns the stored record for input that was already classified
	DetectDuplicates *bool `yaml:"detect_duplicates,omitempty"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Validate applies defaults and checks the configuration
func (c *Config) Validate() error {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.API.Host == "" {
		c.API.Host = "127.0.0.1"
	}
	if c.API.Port == 0 {
		c.API.Port = 3000
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.TagStorage.validate(); err != nil {
		return err
	}
	if err := c.Classifier.validate(); err != nil {
		return err
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid logging.format: %s (must be 'json' or 'text')", c.Logging.Format)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	s.Type = strings.ToLower(s.Type)
	if s.Type == "" {
		s.Type = StorageFilesystem
	}

	switch s.Type {
	case StorageFilesystem:
		if s.Path == "" {
			s.Path = "./data/content"
		}
	case StorageSQLite:
		if s.Path == "" {
			s.Path = "./data/classify.db"
		}
	case StorageS3:
		if s.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.type is 's3'")
		}
	case StorageRedis:
	default:
		return fmt.Errorf("invalid storage.type: %s (must be 'filesystem', 'redis', 's3' or 'sqlite')", s.Type)
	}
	return nil
}

func (t *TagStorageConfig) validate() error {
	t.Type = strings.ToLower(t.Type)
	if t.Type == "" {
		t.Type = TagStorageRedis
	}
	if t.Type != TagStorageRedis {
		return fmt.Errorf("invalid tag_storage.type: %s (must be 'redis')", t.Type)
	}
	if t.RedisURL == "" {
		t.RedisURL = "redis://127.0.0.1:6379"
	}
	if t.Namespace == "" {
		t.Namespace = "default"
	}
	return nil
}

func (c *ClassifierConfig) validate() error {
	c.Type = strings.ToLower(c.Type)
	if c.Type == "" {
		c.Type = "claude"
	}
	switch c.Type {
	case "claude", "anthropic", "openai", "chatgpt", "keyword":
	default:
		return fmt.Errorf("invalid classifier.type: %s (must be 'claude', 'openai' or 'keyword')", c.Type)
	}

	if c.MaxPromptLength == 0 {
		c.MaxPromptLength = DefaultMaxPromptLength
	}
	if c.MaxPromptLength < 0 {
		return fmt.Errorf("classifier.max_prompt_length must be positive, got %d", c.MaxPromptLength)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("classifier.requests_per_second must be >= 0, got %v", c.RequestsPerSecond)
	}
	if c.DetectDuplicates == nil {
		enabled := true
		c.DetectDuplicates = &enabled
	}
	return nil
}

// Addr returns the host:port the API listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// EnsureAPIKey generates a random key when none is configured. It reports
// whether a key was generated so the caller can print it once.
func (c *Config) EnsureAPIKey() bool {
	if c.API.APIKey != "" {
		return false
	}
	c.API.APIKey = uuid.New().String()
	return true
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides file values with environment variables. Unset variables
// leave the file value alone.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("API_HOST", &c.API.Host)
	str("API_KEY", &c.API.APIKey)
	str("STORAGE_TYPE", &c.Storage.Type)
	str("CONTENT_STORAGE_PATH", &c.Storage.Path)
	str("S3_BUCKET", &c.Storage.S3.Bucket)
	str("S3_PREFIX", &c.Storage.S3.Prefix)
	str("S3_REGION", &c.Storage.S3.Region)
	str("S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("AWS_PROFILE", &c.Storage.S3.Profile)
	str("AWS_ACCESS_KEY_ID", &c.Storage.S3.AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &c.Storage.S3.SecretKey)
	str("TAG_STORAGE_TYPE", &c.TagStorage.Type)
	str("REDIS_URL", &c.TagStorage.RedisURL)
	str("REDIS_PASSWORD", &c.TagStorage.RedisPassword)
	str("REDIS_PREFIX", &c.TagStorage.Namespace)
	str("CLASSIFIER_TYPE", &c.Classifier.Type)
	str("ANTHROPIC_API_KEY", &c.Classifier.AnthropicAPIKey)
	str("CLAUDE_MODEL", &c.Classifier.ClaudeModel)
	str("OPENAI_API_KEY", &c.Classifier.OpenAIAPIKey)
	str("OPENAI_MODEL", &c.Classifier.OpenAIModel)
	str("CLASSIFIER_BASE_URL", &c.Classifier.BaseURL)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("API_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_PORT: %w", err)
		}
		c.API.Port = port
	}

	if v, ok := lookup("MAX_PROMPT_LENGTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_PROMPT_LENGTH: %w", err)
		}
		c.Classifier.MaxPromptLength = n
	}

	if v, ok := lookup("DETECT_DUPLICATES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DETECT_DUPLICATES: %w", err)
		}
		c.Classifier.DetectDuplicates = &b
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads classify.yml from the specified path, applies environment
// overrides and validates the result. A missing file at path is not an error
// when allowMissing is set; defaults and the environment are used instead.
func Load(path string, allowMissing bool) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
