package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the process settings read from the environment.
type Config struct {
	Port       int
	CORSOrigin string
	LogLevel   string
	DebugMP    bool

	AssistEnabled      bool
	AssistProb         float64
	AssistMaxOvershoot float64

	ClientAuthBall   bool
	ClientAuthWindow time.Duration

	EnableTestHooks bool
}

// Default returns the settings used when no environment is present.
func Default() Config {
	return Config{
		Port:               3000,
		CORSOrigin:         "*",
		LogLevel:           "info",
		AssistProb:         0.5,
		AssistMaxOvershoot: 0.05,
		ClientAuthWindow:   150 * time.Millisecond,
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, using process environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if cfg.Port, err = intVar(getenv, "PORT", cfg.Port); err != nil {
		return cfg, err
	}
	if v := getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.DebugMP = boolVar(getenv, "DEBUG_MP")
	cfg.AssistEnabled = boolVar(getenv, "ASSIST_ENABLED")
	if cfg.AssistProb, err = floatVar(getenv, "ASSIST_PROB", cfg.AssistProb); err != nil {
		return cfg, err
	}
	if cfg.AssistProb < 0 || cfg.AssistProb > 1 {
		return cfg, fmt.Errorf("ASSIST_PROB must be within [0,1], got %v", cfg.AssistProb)
	}
	if cfg.AssistMaxOvershoot, err = floatVar(getenv, "ASSIST_MAX_OVERSHOOT", cfg.AssistMaxOvershoot); err != nil {
		return cfg, err
	}
	cfg.ClientAuthBall = boolVar(getenv, "CLIENT_AUTH_BALL")
	windowMS, err := intVar(getenv, "CLIENT_AUTH_WINDOW_MS", int(cfg.ClientAuthWindow/time.Millisecond))
	if err != nil {
		return cfg, err
	}
	cfg.ClientAuthWindow = time.Duration(windowMS) * time.Millisecond
	cfg.EnableTestHooks = boolVar(getenv, "ENABLE_TEST_HOOKS")
	return cfg, nil
}

// ConfigureLogger applies LOG_LEVEL and DEBUG_MP to the standard logrus logger.
func (c Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("⚠️ Unknown LOG_LEVEL %q, falling back to info", c.LogLevel)
		level = log.InfoLevel
	}
	if c.DebugMP && level < log.DebugLevel {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func boolVar(getenv func(string) string, key string) bool {
	switch strings.ToLower(strings.TrimSpace(getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatVar(getenv func(string) string, key string, def float64) (float64, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
