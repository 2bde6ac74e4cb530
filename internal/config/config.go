// Package config loads process configuration from environment variables for
// the command and server layers.
package config

import (
	"os"
	"strconv"

	"dosefit/internal/curvefit"
	"dosefit/internal/errors"
)

// Config is the complete process configuration.
type Config struct {
	Server ServerConfig
	Data   DataConfig
	Fit    FitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// DataConfig holds input data settings.
type DataConfig struct {
	InputFile string
}

// FitConfig holds the curve fitter's tunables.
type FitConfig struct {
	MaxIterations int
	Tolerance     float64
	Weighting     string
}

// CurveConfig maps the loaded settings onto the fitter configuration.
func (f FitConfig) CurveConfig() curvefit.Config {
	return curvefit.Config{
		MaxIterations: f.MaxIterations,
		Tolerance:     f.Tolerance,
		Weighting:     curvefit.Weighting(f.Weighting),
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	defaults := curvefit.DefaultConfig()
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			InputFile: getEnvOrDefault("INPUT_FILE", ""),
		},
		Fit: FitConfig{
			MaxIterations: getEnvIntOrDefault("FIT_MAX_ITERATIONS", defaults.MaxIterations),
			Tolerance:     getEnvFloatOrDefault("FIT_TOLERANCE", defaults.Tolerance),
			Weighting:     getEnvOrDefault("FIT_WEIGHTING", string(defaults.Weighting)),
		},
	}

	if cfg.Fit.MaxIterations < 1 {
		return nil, errors.ConfigInvalid("FIT_MAX_ITERATIONS must be >= 1")
	}
	if cfg.Fit.Tolerance <= 0 {
		return nil, errors.ConfigInvalid("FIT_TOLERANCE must be positive")
	}
	switch curvefit.Weighting(cfg.Fit.Weighting) {
	case curvefit.WeightNone, curvefit.WeightInverseVariance:
	default:
		return nil, errors.ConfigInvalid("FIT_WEIGHTING must be \"none\" or \"inverse_variance\"")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
