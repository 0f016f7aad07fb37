package generation

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linguaflow/linguaflow-backend/internal/platform/envutil"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

// Config holds the generation tuning knobs. Values come from defaults,
// optionally overridden by a YAML file (GENERATION_CONFIG_PATH) and then by
// environment variables.
type Config struct {
	// MaxOutputTokens bounds every LLM call.
	MaxOutputTokens int `yaml:"max_output_tokens"`
	// Fallback pronunciation accuracy is drawn from this band. The band is
	// a placeholder inherited from the product design, not a calibrated
	// value, which is why it is configurable.
	FallbackAccuracyMin float64 `yaml:"fallback_accuracy_min"`
	FallbackAccuracyMax float64 `yaml:"fallback_accuracy_max"`
	// QuizQuestionCount is used when the caller does not ask for a count.
	QuizQuestionCount int `yaml:"quiz_question_count"`
}

func DefaultConfig() Config {
	return Config{
		MaxOutputTokens:     2000,
		FallbackAccuracyMin: 0.5,
		FallbackAccuracyMax: 0.7,
		QuizQuestionCount:   5,
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := DefaultConfig()

	if path := envutil.GetEnv("GENERATION_CONFIG_PATH", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if log != nil {
				log.Warn("Could not read generation config file, using defaults", "path", path, "error", err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			if log != nil {
				log.Warn("Could not parse generation config file, using defaults", "path", path, "error", err)
			}
			cfg = DefaultConfig()
		}
	}

	cfg.MaxOutputTokens = envutil.GetEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS", cfg.MaxOutputTokens, log)
	cfg.FallbackAccuracyMin = envutil.GetEnvAsFloat("GENERATION_FALLBACK_ACCURACY_MIN", cfg.FallbackAccuracyMin, log)
	cfg.FallbackAccuracyMax = envutil.GetEnvAsFloat("GENERATION_FALLBACK_ACCURACY_MAX", cfg.FallbackAccuracyMax, log)
	cfg.QuizQuestionCount = envutil.GetEnvAsInt("GENERATION_QUIZ_QUESTION_COUNT", cfg.QuizQuestionCount, log)

	return cfg.sanitized()
}

func (c Config) sanitized() Config {
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultConfig().MaxOutputTokens
	}
	if c.QuizQuestionCount <= 0 {
		c.QuizQuestionCount = DefaultConfig().QuizQuestionCount
	}
	if c.FallbackAccuracyMin < 0 || c.FallbackAccuracyMin > 1 {
		c.FallbackAccuracyMin = DefaultConfig().FallbackAccuracyMin
	}
	if c.FallbackAccuracyMax < c.FallbackAccuracyMin || c.FallbackAccuracyMax > 1 {
		c.FallbackAccuracyMax = DefaultConfig().FallbackAccuracyMax
		if c.FallbackAccuracyMax < c.FallbackAccuracyMin {
			c.FallbackAccuracyMax = c.FallbackAccuracyMin
		}
	}
	return c
}
