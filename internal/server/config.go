package server

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"parques-server/internal/parques"
)

type Config struct {
	Port               int
	LogLevel           string
	LogPretty          bool
	DatabaseURL        string
	AdminToken         string
	BoardWidth         float64
	BoardHeight        float64
	BoardRotation      float64
	SessionIdleTimeout time.Duration
	RateLimit          float64
	RateBurst          int
	AllowedOrigins     []string
}

func DefaultConfig() Config {
	return Config{
		Port:               8080,
		LogLevel:           "info",
		LogPretty:          true,
		BoardWidth:         parques.DefaultBoardWidth,
		BoardHeight:        parques.DefaultBoardHeight,
		SessionIdleTimeout: 30 * time.Minute,
		RateLimit:          20,
		RateBurst:          40,
		AllowedOrigins:     []string{"*"},
	}
}

// LoadConfig reads the environment (and .env, when present). Values that do
// not parse keep their default.
func LoadConfig() Config {
	cfg := DefaultConfig()

	cfg.Port = envInt("PORT", cfg.Port)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogPretty = envBool("LOG_PRETTY", cfg.LogPretty)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	cfg.BoardWidth = envPositiveFloat("BOARD_WIDTH", cfg.BoardWidth)
	cfg.BoardHeight = envPositiveFloat("BOARD_HEIGHT", cfg.BoardHeight)
	cfg.BoardRotation = envFiniteFloat("BOARD_ROTATION", cfg.BoardRotation)
	cfg.SessionIdleTimeout = envDuration("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	cfg.RateLimit = envPositiveFloat("RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = envInt("RATE_BURST", cfg.RateBurst)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("Invalid config value, using default")
		return def
	}
	return n
}

func envPositiveFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Warn().Str("key", key).Str("value", v).Float64("default", def).Msg("Invalid config value, using default")
		return def
	}
	return f
}

func envFiniteFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		log.Warn().Str("key", key).Str("value", v).Float64("default", def).Msg("Invalid config value, using default")
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("default", def).Msg("Invalid config value, using default")
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("Invalid config value, using default")
		return def
	}
	return d
}
