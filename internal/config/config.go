// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sampling  SamplingConfig  `yaml:"sampling" mapstructure:"sampling"`
	Judge     JudgeConfig     `yaml:"judge" mapstructure:"judge"`
	Synthesis SynthesisConfig `yaml:"synthesis" mapstructure:"synthesis"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SamplingConfig holds defaults for the sampling fan-out. Command-line flags
// override these per run.
type SamplingConfig struct {
	Samples       int     `yaml:"samples" mapstructure:"samples"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	StaggerMillis int     `yaml:"stagger_millis" mapstructure:"stagger_millis"`
}

// JudgeConfig selects the models used for per-model sample comparison.
// Specs use "provider/model" form.
type JudgeConfig struct {
	Primary   string `yaml:"primary" mapstructure:"primary"`
	Secondary string `yaml:"secondary" mapstructure:"secondary"`
}

// SynthesisConfig selects the model used for cross-model synthesis.
type SynthesisConfig struct {
	Model          string `yaml:"model" mapstructure:"model"`
	ThinkingTokens int    `yaml:"thinking_tokens" mapstructure:"thinking_tokens"`
}

// OutputConfig configures run artifact persistence and the live document.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	LiveDocPath string `yaml:"live_doc_path" mapstructure:"live_doc_path"`
}

// CatalogConfig points at an optional model catalog override file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MetricsConfig configures the optional Prometheus endpoint. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// NotifyConfig enables desktop notifications on run completion.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("bestofn")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/bestofn")

	// Environment
	v.SetEnvPrefix("BESTOFN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sampling.samples", 3)
	v.SetDefault("sampling.temperature", 0.7)
	v.SetDefault("sampling.timeout_secs", 120)
	v.SetDefault("sampling.stagger_millis", 100)
	v.SetDefault("judge.primary", "anthropic/claude-4-sonnet")
	v.SetDefault("judge.secondary", "openai/gpt-4.1")
	v.SetDefault("synthesis.model", "anthropic/claude-4.1-opus")
	v.SetDefault("synthesis.thinking_tokens", 16000)
	v.SetDefault("output.dir", "runs")
	v.SetDefault("output.live_doc_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
