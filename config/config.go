package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"confidence-engine/internal/engine"
	"confidence-engine/internal/logging"
	"confidence-engine/internal/signal"
	"confidence-engine/internal/vsa"
)

type Config struct {
	ServerConfig   ServerConfig   `json:"server" yaml:"server"`
	LoggingConfig  logging.Config `json:"logging" yaml:"logging"`
	AnalysisConfig AnalysisConfig `json:"analysis" yaml:"analysis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port" yaml:"port"`
	Host            string `json:"host" yaml:"host"`
	AllowedOrigins  string `json:"allowed_origins" yaml:"allowed_origins"` // CORS allowed origins
	ReadTimeout     int    `json:"read_timeout" yaml:"read_timeout"`       // Seconds
	WriteTimeout    int    `json:"write_timeout" yaml:"write_timeout"`     // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AnalysisConfig holds the tunable parameters of the analysis pipeline.
// WeightsFile, when set, points at a YAML file overriding the default
// detector and scoring weights.
type AnalysisConfig struct {
	VsaWindow     int     `json:"vsa_window" yaml:"vsa_window"`
	BuyThreshold  float64 `json:"buy_threshold" yaml:"buy_threshold"`
	PeakWindowHrs int     `json:"peak_window_hours" yaml:"peak_window_hours"`
	CooldownHrs   int     `json:"cooldown_hours" yaml:"cooldown_hours"`
	WeightsFile   string  `json:"weights_file" yaml:"weights_file"`
}

// WeightsFile is the on-disk shape of a weights override file
type WeightsFile struct {
	Vsa   vsa.Weights         `yaml:"vsa"`
	Score signal.ScoreWeights `yaml:"score"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", "INFO")
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", "stdout")
	cfg.LoggingConfig.Pretty = getEnvOrDefault("LOG_PRETTY", "false") == "true"

	// Analysis config
	cfg.AnalysisConfig.VsaWindow = getEnvIntOrDefault("ANALYSIS_VSA_WINDOW", vsa.DefaultWindow)
	cfg.AnalysisConfig.BuyThreshold = getEnvFloatOrDefault("ANALYSIS_BUY_THRESHOLD", 50)
	cfg.AnalysisConfig.PeakWindowHrs = getEnvIntOrDefault("ANALYSIS_PEAK_WINDOW_HOURS", 24)
	cfg.AnalysisConfig.CooldownHrs = getEnvIntOrDefault("ANALYSIS_COOLDOWN_HOURS", 72)
	cfg.AnalysisConfig.WeightsFile = getEnvOrDefault("ANALYSIS_WEIGHTS_FILE", "")
}

// EngineConfig builds a validated engine configuration from the loaded
// settings, applying the weights file override when one is configured.
func (c *Config) EngineConfig() (engine.Config, error) {
	ec := engine.DefaultConfig()

	a := c.AnalysisConfig
	if a.VsaWindow > 0 {
		ec.VsaWindow = a.VsaWindow
	}
	if a.BuyThreshold > 0 {
		ec.Extractor.Threshold = a.BuyThreshold
	}
	if a.PeakWindowHrs > 0 {
		ec.Extractor.PeakWindow = time.Duration(a.PeakWindowHrs) * time.Hour
	}
	if a.CooldownHrs > 0 {
		ec.Extractor.Cooldown = time.Duration(a.CooldownHrs) * time.Hour
	}

	if a.WeightsFile != "" {
		wf, err := LoadWeightsFile(a.WeightsFile)
		if err != nil {
			return engine.Config{}, err
		}
		ec.VsaWeights = wf.Vsa
		ec.ScoreWeights = wf.Score
	}

	if err := ec.Validate(); err != nil {
		return engine.Config{}, err
	}
	return ec, nil
}

// LoadWeightsFile reads and validates a YAML weights override file
func LoadWeightsFile(path string) (*WeightsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading weights file: %w", err)
	}

	// Defaults apply to anything the file leaves out
	wf := &WeightsFile{
		Vsa:   vsa.DefaultWeights(),
		Score: signal.DefaultScoreWeights(),
	}
	if err := yaml.Unmarshal(data, wf); err != nil {
		return nil, fmt.Errorf("error parsing weights file: %w", err)
	}

	if err := wf.Vsa.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector weights in %s: %w", path, err)
	}
	if err := wf.Score.Validate(); err != nil {
		return nil, fmt.Errorf("invalid score weights in %s: %w", path, err)
	}
	return wf, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
