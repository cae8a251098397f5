package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config adalah konfigurasi sisi client (diner & waiter app).
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	StorePath   string

	// Interval polling, satu timer aktif per screen
	GuestPollInterval  time.Duration
	HostPollInterval   time.Duration
	WaiterPollInterval time.Duration
}

// ServerConfig adalah konfigurasi mockserver untuk demo lokal.
type ServerConfig struct {
	Addr     string
	DBDriver string
	DBDSN    string
}

// Load membaca .env (jika ada) lalu environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &Config{
		BaseURL:            envString("TABLESIDE_BASE_URL", "http://localhost:8000/api"),
		HTTPTimeout:        envDuration("TABLESIDE_HTTP_TIMEOUT", 15*time.Second),
		StorePath:          envString("TABLESIDE_STORE_PATH", defaultStorePath()),
		GuestPollInterval:  envDuration("TABLESIDE_GUEST_POLL", 3*time.Second),
		HostPollInterval:   envDuration("TABLESIDE_HOST_POLL", 5*time.Second),
		WaiterPollInterval: envDuration("TABLESIDE_WAITER_POLL", 10*time.Second),
	}
}

// LoadServer membaca konfigurasi mockserver.
func LoadServer() *ServerConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &ServerConfig{
		Addr:     envString("MOCKSERVER_ADDR", ":8000"),
		DBDriver: envString("MOCKSERVER_DB_DRIVER", "sqlite"),
		DBDSN:    envString("MOCKSERVER_DB_DSN", "file:tableside_demo.db"),
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tableside.db"
	}
	return filepath.Join(home, ".tableside", "state.db")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
