package profile

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where vendora stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your vendora instance.
	InstanceURL string

	// Cache configuration
	CacheCapacity        int           // VENDORA_CACHE_CAPACITY (default: 1000)
	CacheCleanupInterval time.Duration // VENDORA_CACHE_CLEANUP_INTERVAL (default: 1m)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from VENDORA_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("VENDORA_MODE", p.Mode)
	p.Addr = getEnvOrDefault("VENDORA_ADDR", p.Addr)
	p.Data = getEnvOrDefault("VENDORA_DATA", p.Data)
	p.Driver = getEnvOrDefault("VENDORA_DRIVER", p.Driver)
	p.DSN = getEnvOrDefault("VENDORA_DSN", p.DSN)
	p.InstanceURL = getEnvOrDefault("VENDORA_INSTANCE_URL", p.InstanceURL)

	if port := os.Getenv("VENDORA_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			p.Port = v
		}
	}
	if capacity := os.Getenv("VENDORA_CACHE_CAPACITY"); capacity != "" {
		if v, err := strconv.Atoi(capacity); err == nil {
			p.CacheCapacity = v
		}
	}
	if interval := os.Getenv("VENDORA_CACHE_CLEANUP_INTERVAL"); interval != "" {
		if v, err := time.ParseDuration(interval); err == nil {
			p.CacheCleanupInterval = v
		}
	}
}

// Validate normalizes the profile and fails fast on unusable settings.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" && p.Mode != "demo" {
		p.Mode = "demo"
	}
	if p.Addr == "" {
		p.Addr = "0.0.0.0"
	}
	if p.Port == 0 {
		p.Port = 8081
	}
	if p.CacheCapacity <= 0 {
		p.CacheCapacity = 1000
	}
	if p.CacheCleanupInterval < 0 {
		return errors.New("cache cleanup interval must not be negative")
	}
	if p.CacheCleanupInterval == 0 {
		p.CacheCleanupInterval = time.Minute
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			p.Data = "/var/opt/vendora"
		} else {
			dir, err := os.Getwd()
			if err != nil {
				return errors.Wrap(err, "failed to get current working directory")
			}
			p.Data = dir
		}
	}
	if err := os.MkdirAll(p.Data, 0o750); err != nil {
		return errors.Wrapf(err, "failed to create data directory %q", p.Data)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(p.Data, "vendora_"+p.Mode+".db")
	}

	return nil
}
