package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration for the underwriting agent.
type Settings struct {
	DataPath          string
	ModelDir          string
	ModelName         string
	PollInterval      time.Duration
	SingleShot        bool
	MinBootstrapCount int
	TrainEpochs       int
	TrainBatchSize    int
	LearningRate      float64
	ListenPort        int
}

// ConfigFile is the YAML layout accepted via CONFIG_FILE.
type ConfigFile struct {
	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	Model struct {
		Dir            string  `yaml:"dir"`
		Name           string  `yaml:"name"`
		BootstrapCount int     `yaml:"bootstrapCount"`
		Epochs         int     `yaml:"epochs"`
		BatchSize      int     `yaml:"batchSize"`
		LearningRate   float64 `yaml:"learningRate"`
	} `yaml:"model"`

	Agent struct {
		PollInterval string `yaml:"pollInterval"`
		SingleShot   bool   `yaml:"singleShot"`
	} `yaml:"agent"`

	System struct {
		ListenPort int `yaml:"listenPort"`
	} `yaml:"system"`
}

// Load resolves settings from a YAML file when CONFIG_FILE is set, falling
// back to environment variables, with env values overriding file values.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	poll, err := time.ParseDuration(config.Agent.PollInterval)
	if err != nil {
		poll = 10 * time.Second
	}

	settings := Settings{
		DataPath:          getEnvOrDefault("DATA_PATH", config.Storage.DataPath),
		ModelDir:          getEnvOrDefault("MODEL_DIR", config.Model.Dir),
		ModelName:         getEnvOrDefault("MODEL_NAME", config.Model.Name),
		PollInterval:      getDurationOrDefault("POLL_INTERVAL", poll),
		SingleShot:        getBoolFromEnvOrConfig("SINGLE_SHOT", config.Agent.SingleShot),
		MinBootstrapCount: getIntFromEnvOrConfig("MIN_BOOTSTRAP_COUNT", config.Model.BootstrapCount),
		TrainEpochs:       getIntFromEnvOrConfig("TRAIN_EPOCHS", config.Model.Epochs),
		TrainBatchSize:    getIntFromEnvOrConfig("TRAIN_BATCH_SIZE", config.Model.BatchSize),
		LearningRate:      getFloatFromEnvOrConfig("LEARNING_RATE", config.Model.LearningRate),
		ListenPort:        getIntFromEnvOrConfig("LISTEN_PORT", config.System.ListenPort),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	dataPath, err := getEnvRequired("DATA_PATH")
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		DataPath:          dataPath,
		ModelDir:          os.Getenv("MODEL_DIR"),
		ModelName:         os.Getenv("MODEL_NAME"),
		PollInterval:      getDurationOrDefault("POLL_INTERVAL", 10*time.Second),
		SingleShot:        getBoolOrDefault("SINGLE_SHOT", false),
		MinBootstrapCount: getIntOrDefault("MIN_BOOTSTRAP_COUNT", 0),
		TrainEpochs:       getIntOrDefault("TRAIN_EPOCHS", 0),
		TrainBatchSize:    getIntOrDefault("TRAIN_BATCH_SIZE", 0),
		LearningRate:      getFloatOrDefault("LEARNING_RATE", 0),
		ListenPort:        getIntOrDefault("LISTEN_PORT", 0),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.ModelDir == "" {
		s.ModelDir = s.DataPath
	}
	if s.ModelName == "" {
		s.ModelName = "loan-eligibility"
	}
	if s.PollInterval == 0 {
		s.PollInterval = 10 * time.Second
	}
	if s.MinBootstrapCount == 0 {
		s.MinBootstrapCount = 100
	}
	if s.TrainEpochs == 0 {
		s.TrainEpochs = 5
	}
	if s.TrainBatchSize == 0 {
		s.TrainBatchSize = 64
	}
	if s.LearningRate == 0 {
		s.LearningRate = 0.001
	}
	if s.ListenPort == 0 {
		s.ListenPort = 8080
	}
}

func getEnvRequired(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is missing", key)
	}
	return v, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs range validation of configuration values.
func validateSettings(s *Settings) error {
	if s.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	if s.PollInterval < time.Second || s.PollInterval > time.Hour {
		return fmt.Errorf("poll interval must be between 1s and 1h, got %v", s.PollInterval)
	}
	if s.MinBootstrapCount < 1 || s.MinBootstrapCount > 1000000 {
		return fmt.Errorf("bootstrap count must be between 1 and 1000000, got %d", s.MinBootstrapCount)
	}
	if s.TrainEpochs < 1 || s.TrainEpochs > 1000 {
		return fmt.Errorf("train epochs must be between 1 and 1000, got %d", s.TrainEpochs)
	}
	if s.TrainBatchSize < 1 || s.TrainBatchSize > 10000 {
		return fmt.Errorf("train batch size must be between 1 and 10000, got %d", s.TrainBatchSize)
	}
	if s.LearningRate <= 0 || s.LearningRate > 1 {
		return fmt.Errorf("learning rate must be between 0 and 1, got %f", s.LearningRate)
	}
	if s.ListenPort < 1024 || s.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", s.ListenPort)
	}
	return nil
}
