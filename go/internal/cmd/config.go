package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"

	FeedLocal    = "local"
	FeedPostgres = "postgres"
	FeedNATS     = "nats"
)

type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		SendBufferSize int      `yaml:"send_buffer_size"`
	} `yaml:"server"`

	Store struct {
		Backend string `yaml:"backend"`
		Feed    string `yaml:"feed"`
	} `yaml:"store"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Firestore struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firestore"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Session struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"session"`

	LogLevel string `yaml:"log_level"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.SendBufferSize = 64
	c.Store.Backend = BackendMemory
	c.Store.Feed = FeedLocal
	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.Database = "leaguesync"
	c.NATS.URL = "nats://127.0.0.1:4222"
	c.NATS.SubjectPrefix = "leaguesync.changes"
	c.Session.TTL = 12 * time.Hour
	c.LogLevel = "info"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the yaml file at path, if any, and lets the environment
// override it
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Addr = getEnv("LEAGUESYNC_ADDR", config.Server.Addr)
	if origins := os.Getenv("LEAGUESYNC_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	config.Server.SendBufferSize = getEnvAsInt("LEAGUESYNC_SEND_BUFFER", config.Server.SendBufferSize)
	config.Store.Backend = getEnv("LEAGUESYNC_BACKEND", config.Store.Backend)
	config.Store.Feed = getEnv("LEAGUESYNC_FEED", config.Store.Feed)
	config.Mongo.URI = getEnv("MONGO_URI", config.Mongo.URI)
	config.Mongo.Database = getEnv("MONGO_DATABASE", config.Mongo.Database)
	config.Firestore.ProjectID = getEnv("FIRESTORE_PROJECT_ID", config.Firestore.ProjectID)
	config.Firestore.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", config.Firestore.CredentialsFile)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", config.NATS.SubjectPrefix)
	config.Session.Secret = getEnv("SESSION_SECRET", config.Session.Secret)
	config.Session.TTL = getEnvAsDuration("SESSION_TTL", config.Session.TTL)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendMongo:
	case BackendPostgres:
		switch c.Store.Feed {
		case FeedLocal, FeedPostgres, FeedNATS:
		default:
			return fmt.Errorf("unknown change feed %q", c.Store.Feed)
		}
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("firestore backend needs a project id")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func setupLogging(level string, verbose bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
