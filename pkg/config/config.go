package config

import (
	"os"
	"strconv"
	"time"

	"github.com/bawanisandunika/wattpad-downloader/pkg/wattpad"
	"github.com/joho/godotenv"
)

// Config carries the runtime settings, read from the environment with an
// optional .env file on top.
type Config struct {
	Port            string
	BaseURL         string
	RequestTimeout  time.Duration
	FetchRetries    int
	BatchSize       int           // 1 means sequential fetching
	FetchDelay      time.Duration // pause between sequential fetches
	DownloadTimeout time.Duration // wall-clock ceiling for a whole story
	StaticDir       string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		BaseURL:         getEnv("WATTPAD_BASE_URL", wattpad.DefaultBaseURL),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		FetchRetries:    getInt("FETCH_RETRIES", 2),
		BatchSize:       getInt("FETCH_BATCH_SIZE", 3),
		FetchDelay:      getDuration("FETCH_DELAY", 500*time.Millisecond),
		DownloadTimeout: getDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),
		StaticDir:       getEnv("STATIC_DIR", "web/static"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
