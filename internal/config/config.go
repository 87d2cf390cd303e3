package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	OutputDir     string
	SinkURL       string // database URL; OutputDir is used when empty
	Concurrency   int
	Dialect       string
	Format        string
	LogLevel      string
	LogFormat     string
	SolverTimeout time.Duration
	JavaBin       string
	AlloyJar      string
	AlloyMain     string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (silently ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		OutputDir: getenv("ORMSYNTH_OUTPUT_DIR", "generated_schemas"),
		SinkURL:   os.Getenv("ORMSYNTH_SINK_URL"),
		Dialect:   getenv("ORMSYNTH_DIALECT", "mysql"),
		Format:    getenv("ORMSYNTH_FORMAT", "text"),
		LogLevel:  getenv("ORMSYNTH_LOG_LEVEL", "info"),
		LogFormat: getenv("ORMSYNTH_LOG_FORMAT", "text"),
		JavaBin:   getenv("JAVA_BIN", "java"),
		AlloyJar:  os.Getenv("ALLOY_JAR"),
		AlloyMain: os.Getenv("ALLOY_MAIN_CLASS"),
	}

	concurrency, err := strconv.Atoi(getenv("ORMSYNTH_CONCURRENCY", "0"))
	if err != nil || concurrency < 0 {
		return nil, fmt.Errorf("invalid ORMSYNTH_CONCURRENCY: %q", os.Getenv("ORMSYNTH_CONCURRENCY"))
	}
	cfg.Concurrency = concurrency

	timeout, err := time.ParseDuration(getenv("ORMSYNTH_SOLVER_TIMEOUT", "2m"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid ORMSYNTH_SOLVER_TIMEOUT: %q", os.Getenv("ORMSYNTH_SOLVER_TIMEOUT"))
	}
	cfg.SolverTimeout = timeout

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
