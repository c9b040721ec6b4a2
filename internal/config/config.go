package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sync cache scopes
const (
	SyncScopeGlobal = "global"
	SyncScopePair   = "pair"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Agmarknet AgmarknetConfig `yaml:"agmarknet"`
	Weather   WeatherConfig   `yaml:"weather"`
	Sync      SyncConfig      `yaml:"sync"`
	Model     ModelConfig     `yaml:"model"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

// RedisConfig holds the sync cache Redis connection
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// AgmarknetConfig holds the data.gov.in mandi price API settings
type AgmarknetConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	ResourceID string        `yaml:"resource_id"`
	SyncLimit  int           `yaml:"sync_limit"`
	RatesLimit int           `yaml:"rates_limit"`
	BestLimit  int           `yaml:"best_limit"`
	Timeout    time.Duration `yaml:"timeout"`
	Mandis     []string      `yaml:"mandis"`
}

// WeatherConfig holds the optional current-weather provider settings
type WeatherConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig controls the mandi sync job
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Scope    string        `yaml:"scope"`
	Schedule string        `yaml:"schedule"`
	// Watch lists "crop:mandi" pairs synced on Schedule.
	Watch []string `yaml:"watch"`
}

// ModelConfig controls the price model
type ModelConfig struct {
	Trees          int     `yaml:"trees"`
	MaxDepth       int     `yaml:"max_depth"`
	Seed           int64   `yaml:"seed"`
	TestFraction   float64 `yaml:"test_fraction"`
	CacheEnabled   bool    `yaml:"cache_enabled"`
	MaxHorizonDays int     `yaml:"max_horizon_days"`
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Host: "0.0.0.0"},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			Password:       "postgres",
			DBName:         "mandiprices",
			SSLMode:        "disable",
			MigrationsPath: "db/migrations",
		},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "mandi"},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "mandi-price-events",
			GroupID: "mandi-price-service",
		},
		Agmarknet: AgmarknetConfig{
			BaseURL:    "https://api.data.gov.in/resource",
			ResourceID: "9ef84268-d588-465a-a308-a864a43d0070",
			SyncLimit:  30,
			RatesLimit: 500,
			BestLimit:  700,
			Timeout:    20 * time.Second,
			Mandis:     []string{"Pune", "Nashik", "Mumbai", "Nagpur", "Solapur"},
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			Interval: 6 * time.Hour,
			Scope:    SyncScopeGlobal,
			Schedule: "@every 6h",
		},
		Model: ModelConfig{
			Trees:          250,
			MaxDepth:       14,
			Seed:           42,
			TestFraction:   0.2,
			CacheEnabled:   true,
			MaxHorizonDays: 90,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	c := Defaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadFile reads a YAML file on top of the defaults, then applies environment overrides
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Defaults()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Agmarknet.APIKey = getEnv("DATA_GOV_API_KEY", c.Agmarknet.APIKey)
	c.Agmarknet.BaseURL = getEnv("AGMARKNET_BASE_URL", c.Agmarknet.BaseURL)
	c.Weather.APIKey = getEnv("OPENWEATHER_API_KEY", c.Weather.APIKey)

	c.Sync.Interval = getEnvDuration("SYNC_INTERVAL", c.Sync.Interval)
	c.Sync.Scope = getEnv("SYNC_CACHE_SCOPE", c.Sync.Scope)
	c.Sync.Schedule = getEnv("SYNC_SCHEDULE", c.Sync.Schedule)
	if v := os.Getenv("SYNC_WATCH"); v != "" {
		c.Sync.Watch = strings.Split(v, ",")
	}

	c.Model.Trees = getEnvInt("MODEL_TREES", c.Model.Trees)
	c.Model.MaxDepth = getEnvInt("MODEL_MAX_DEPTH", c.Model.MaxDepth)
	c.Model.CacheEnabled = getEnvBool("MODEL_CACHE_ENABLED", c.Model.CacheEnabled)
	c.Model.MaxHorizonDays = getEnvInt("MODEL_MAX_HORIZON_DAYS", c.Model.MaxHorizonDays)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Sync.Scope != SyncScopeGlobal && c.Sync.Scope != SyncScopePair {
		return fmt.Errorf("sync.scope must be '%s' or '%s', got '%s'", SyncScopeGlobal, SyncScopePair, c.Sync.Scope)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if c.Model.Trees < 1 || c.Model.MaxDepth < 1 {
		return fmt.Errorf("model.trees and model.max_depth must be at least 1")
	}
	if c.Model.TestFraction < 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("model.test_fraction must be in [0, 1)")
	}
	if c.Model.MaxHorizonDays < 1 {
		return fmt.Errorf("model.max_horizon_days must be at least 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	for _, w := range c.Sync.Watch {
		if _, _, ok := SplitPair(w); !ok {
			return fmt.Errorf("sync.watch entry %q must look like crop:mandi", w)
		}
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// SplitPair parses a "crop:mandi" watch entry
func SplitPair(s string) (crop, mandi string, ok bool) {
	crop, mandi, ok = strings.Cut(s, ":")
	crop, mandi = strings.TrimSpace(crop), strings.TrimSpace(mandi)
	return crop, mandi, ok && crop != "" && mandi != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
