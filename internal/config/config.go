package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dealhawk/cardmatch/internal/score"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Matcher   MatcherConfig   `yaml:"matcher" mapstructure:"matcher"`
	Junk      JunkConfig      `yaml:"junk" mapstructure:"junk"`
	Confusion ConfusionConfig `yaml:"confusion" mapstructure:"confusion"`
	Calibrate CalibrateConfig `yaml:"calibrate" mapstructure:"calibrate"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MatcherConfig configures the matching pipeline thresholds and caps.
type MatcherConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	NameGate      float64 `yaml:"name_gate" mapstructure:"name_gate"`
	NumberCap     int     `yaml:"number_cap" mapstructure:"number_cap"`
	NarrowAbove   int     `yaml:"narrow_above" mapstructure:"narrow_above"`
	FuzzyCap      int     `yaml:"fuzzy_cap" mapstructure:"fuzzy_cap"`
}

// JunkConfig configures the learned junk-classification extension.
type JunkConfig struct {
	RefreshTTLMins int     `yaml:"refresh_ttl_mins" mapstructure:"refresh_ttl_mins"`
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
}

// ConfusionConfig configures the confusion-memory cache.
type ConfusionConfig struct {
	RefreshTTLMins int `yaml:"refresh_ttl_mins" mapstructure:"refresh_ttl_mins"`
}

// CalibrateConfig configures the weight-calibration batch job.
type CalibrateConfig struct {
	MinReviewed       int     `yaml:"min_reviewed" mapstructure:"min_reviewed"`
	MinIncorrect      int     `yaml:"min_incorrect" mapstructure:"min_incorrect"`
	MinImprovement    float64 `yaml:"min_improvement" mapstructure:"min_improvement"`
	DecisionThreshold float64 `yaml:"decision_threshold" mapstructure:"decision_threshold"`
	LockFile          string  `yaml:"lock_file" mapstructure:"lock_file"`
}

// BatchConfig configures concurrent batch matching.
type BatchConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	CatalogQPS  float64 `yaml:"catalog_qps" mapstructure:"catalog_qps"`
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
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CARDMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("matcher.min_confidence", score.AbsoluteMinGate)
	v.SetDefault("matcher.name_gate", 0.60)
	v.SetDefault("matcher.number_cap", 50)
	v.SetDefault("matcher.narrow_above", 5)
	v.SetDefault("matcher.fuzzy_cap", 20)
	v.SetDefault("junk.refresh_ttl_mins", 10)
	v.SetDefault("junk.threshold", 0.5)
	v.SetDefault("confusion.refresh_ttl_mins", 5)
	v.SetDefault("calibrate.min_reviewed", 20)
	v.SetDefault("calibrate.min_incorrect", 3)
	v.SetDefault("calibrate.min_improvement", 0.005)
	v.SetDefault("calibrate.decision_threshold", score.DecisionThreshold)
	v.SetDefault("calibrate.lock_file", "/tmp/cardmatch-calibrate.lock")
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.catalog_qps", 25)

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
