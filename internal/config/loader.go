package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hrstack/queryintent/internal/db"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// LLMConfig holds model endpoint settings.
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// VectorConfig holds embedding and index settings.
type VectorConfig struct {
	OllamaEndpoint string
	EmbedModel     string
	IndexPath      string
	TopK           int
}

// PlannerConfig holds pipeline tuning knobs.
type PlannerConfig struct {
	ConfidenceThreshold float64
	MaxSchemaFields     int
	FixturePath         string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	LLM      LLMConfig
	Vector   VectorConfig
	Planner  PlannerConfig
	LogMode  string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: db.DefaultConfig(),
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "openai/gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Vector: VectorConfig{
			OllamaEndpoint: "http://localhost:11434",
			EmbedModel:     "all-minilm",
			IndexPath:      "schema_index.db",
			TopK:           3,
		},
		Planner: PlannerConfig{
			ConfidenceThreshold: 0.6,
			MaxSchemaFields:     12,
		},
		LogMode: "production",
	}
}

// Load reads config.yaml from the given path, layering environment
// overrides (prefix QI, e.g. QI_LLM_API_KEY) over file values over defaults.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("QI")

	v.BindEnv("server.port")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("llm.base_url")
	v.BindEnv("llm.model")
	v.BindEnv("llm.api_key")
	v.BindEnv("vector.ollama_endpoint")
	v.BindEnv("vector.embed_model")
	v.BindEnv("vector.index_path")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("llm.base_url") {
		cfg.LLM.BaseURL = v.GetString("llm.base_url")
	}
	if v.IsSet("llm.model") {
		cfg.LLM.Model = v.GetString("llm.model")
	}
	if v.IsSet("llm.api_key") {
		cfg.LLM.APIKey = v.GetString("llm.api_key")
	}
	if v.IsSet("llm.timeout_seconds") {
		cfg.LLM.Timeout = time.Duration(v.GetInt("llm.timeout_seconds")) * time.Second
	}

	if v.IsSet("vector.ollama_endpoint") {
		cfg.Vector.OllamaEndpoint = v.GetString("vector.ollama_endpoint")
	}
	if v.IsSet("vector.embed_model") {
		cfg.Vector.EmbedModel = v.GetString("vector.embed_model")
	}
	if v.IsSet("vector.index_path") {
		cfg.Vector.IndexPath = v.GetString("vector.index_path")
	}
	if v.IsSet("vector.top_k") {
		cfg.Vector.TopK = v.GetInt("vector.top_k")
	}

	if v.IsSet("planner.confidence_threshold") {
		cfg.Planner.ConfidenceThreshold = v.GetFloat64("planner.confidence_threshold")
	}
	if v.IsSet("planner.max_schema_fields") {
		cfg.Planner.MaxSchemaFields = v.GetInt("planner.max_schema_fields")
	}
	if v.IsSet("planner.fixture_path") {
		cfg.Planner.FixturePath = v.GetString("planner.fixture_path")
	}

	if v.IsSet("logging.mode") {
		cfg.LogMode = v.GetString("logging.mode")
	}

	return cfg, nil
}
