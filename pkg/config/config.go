package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Knowledge  KnowledgeConfig
	Relevance  RelevanceConfig
	Cache      CacheConfig
	Decay      DecayConfig
	Confidence ConfidenceConfig
	Refinement RefinementConfig
	Pruner     PrunerConfig
	LLM        LLMConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

type KnowledgeConfig struct {
	MaxItems     int
	ChunkSize    int
	ChunkOverlap int
	// Default expiry in hours per category; 0 means never expires.
	ExpiryHours map[string]float64
}

type RelevanceConfig struct {
	MaxEntries     int
	StaleThreshold float64
}

type CacheConfig struct {
	MaxEntries int
}

type DecayConfig struct {
	HalfLifeDays float64
	MaxAgeDays   float64
	Alpha        float64
}

type ConfidenceConfig struct {
	AutoSearchThreshold float64
	WeightSourceCount   float64
	WeightAgreement     float64
	WeightFreshness     float64
	WeightSpecificity   float64
	WeightEvidence      float64
}

type RefinementConfig struct {
	MaxIterations    int
	TargetConfidence float64
}

type PrunerConfig struct {
	IntervalMinutes int
	MinConfidence   float64
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pds-agent")

	viper.SetEnvPrefix("PDS_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment. Tests and embedded sessions use it.
func Default() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			MaxItems:     10000,
			ChunkSize:    500,
			ChunkOverlap: 50,
			ExpiryHours: map[string]float64{
				"answer":       168,
				"conversation": 24,
				"business":     720,
			},
		},
		Relevance: RelevanceConfig{
			MaxEntries:     500,
			StaleThreshold: 0.3,
		},
		Cache: CacheConfig{MaxEntries: 500},
		Decay: DecayConfig{
			HalfLifeDays: 90,
			MaxAgeDays:   365,
			Alpha:        0.01,
		},
		Confidence: ConfidenceConfig{
			AutoSearchThreshold: 0.7,
			WeightSourceCount:   0.20,
			WeightAgreement:     0.25,
			WeightFreshness:     0.15,
			WeightSpecificity:   0.15,
			WeightEvidence:      0.25,
		},
		Refinement: RefinementConfig{
			MaxIterations:    3,
			TargetConfidence: 0.8,
		},
		Pruner: PrunerConfig{
			IntervalMinutes: 30,
			MinConfidence:   0.3,
		},
		LLM: LLMConfig{
			Model:       "gpt-4",
			Temperature: 0.2,
			MaxTokens:   2048,
			TimeoutSec:  60,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

func setDefaults() {
	def := Default()

	viper.SetDefault("knowledge.maxItems", def.Knowledge.MaxItems)
	viper.SetDefault("knowledge.chunkSize", def.Knowledge.ChunkSize)
	viper.SetDefault("knowledge.chunkOverlap", def.Knowledge.ChunkOverlap)
	viper.SetDefault("knowledge.expiryHours", def.Knowledge.ExpiryHours)

	viper.SetDefault("relevance.maxEntries", def.Relevance.MaxEntries)
	viper.SetDefault("relevance.staleThreshold", def.Relevance.StaleThreshold)

	viper.SetDefault("cache.maxEntries", def.Cache.MaxEntries)

	viper.SetDefault("decay.halfLifeDays", def.Decay.HalfLifeDays)
	viper.SetDefault("decay.maxAgeDays", def.Decay.MaxAgeDays)
	viper.SetDefault("decay.alpha", def.Decay.Alpha)

	viper.SetDefault("confidence.autoSearchThreshold", def.Confidence.AutoSearchThreshold)
	viper.SetDefault("confidence.weightSourceCount", def.Confidence.WeightSourceCount)
	viper.SetDefault("confidence.weightAgreement", def.Confidence.WeightAgreement)
	viper.SetDefault("confidence.weightFreshness", def.Confidence.WeightFreshness)
	viper.SetDefault("confidence.weightSpecificity", def.Confidence.WeightSpecificity)
	viper.SetDefault("confidence.weightEvidence", def.Confidence.WeightEvidence)

	viper.SetDefault("refinement.maxIterations", def.Refinement.MaxIterations)
	viper.SetDefault("refinement.targetConfidence", def.Refinement.TargetConfidence)

	viper.SetDefault("pruner.intervalMinutes", def.Pruner.IntervalMinutes)
	viper.SetDefault("pruner.minConfidence", def.Pruner.MinConfidence)

	viper.SetDefault("llm.model", def.LLM.Model)
	viper.SetDefault("llm.temperature", def.LLM.Temperature)
	viper.SetDefault("llm.maxTokens", def.LLM.MaxTokens)
	viper.SetDefault("llm.timeoutSec", def.LLM.TimeoutSec)

	viper.SetDefault("metrics.enabled", def.Metrics.Enabled)
	viper.SetDefault("metrics.listenAddr", def.Metrics.ListenAddr)

	viper.SetDefault("logging.level", def.Logging.Level)
	viper.SetDefault("logging.format", def.Logging.Format)
	viper.SetDefault("logging.outputPath", def.Logging.OutputPath)
}
