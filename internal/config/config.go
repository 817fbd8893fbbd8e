package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	DB      DatabaseConfig
	Auth    AuthConfig
	Weather WeatherConfig
	Worker  WorkerConfig
	Pages   PageConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	RateLimitRPS    int
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	SessionTTL        time.Duration
	CookieName        string
	CookieSecure      bool
	DefaultUser       string
	DefaultPassword   string
	LoginRateLimitRPS int
}

// Site is a named forecast location.
type Site struct {
	Name      string
	Latitude  float64
	Longitude float64
}

type WeatherConfig struct {
	Enabled         bool
	URL             string
	Timeout         time.Duration
	Timezone        string
	Sites           []Site
	RefreshInterval time.Duration
	CacheTTL        time.Duration
}

// DefaultSite is the first configured site, shown on the landing page.
func (w WeatherConfig) DefaultSite() Site {
	if len(w.Sites) == 0 {
		return Site{}
	}
	return w.Sites[0]
}

// SiteByName returns the configured site with the given name.
func (w WeatherConfig) SiteByName(name string) (Site, bool) {
	for _, s := range w.Sites {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Site{}, false
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type PageConfig struct {
	IncidentsPerPage int
	ReviewPerPage    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

const defaultSites = "matriz:-21.3607:-48.2282"

func Load() (*Config, error) {
	sites, err := parseSites(getEnv("WEATHER_SITES", defaultSites))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 5),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/ssma.db"),
		},
		Auth: AuthConfig{
			SessionTTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
			CookieName:        getEnv("SESSION_COOKIE", "ssma_session"),
			CookieSecure:      getEnvBool("COOKIE_SECURE", false),
			DefaultUser:       getEnv("AUTH_DEFAULT_USER", "teste"),
			DefaultPassword:   getEnv("AUTH_DEFAULT_PASSWORD", "1234"),
			LoginRateLimitRPS: getEnvInt("LOGIN_RATE_LIMIT_RPS", 1),
		},
		Weather: WeatherConfig{
			Enabled:         getEnvBool("WEATHER_ENABLED", true),
			URL:             getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
			Timeout:         getEnvDuration("WEATHER_TIMEOUT", 8*time.Second),
			Timezone:        getEnv("WEATHER_TIMEZONE", "America/Sao_Paulo"),
			Sites:           sites,
			RefreshInterval: getEnvDuration("WEATHER_REFRESH_INTERVAL", 15*time.Minute),
			CacheTTL:        getEnvDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Pages: PageConfig{
			IncidentsPerPage: getEnvInt("INCIDENTS_PER_PAGE", 20),
			ReviewPerPage:    getEnvInt("REVIEW_PER_PAGE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}
	if c.Auth.LoginRateLimitRPS < 1 {
		return fmt.Errorf("invalid login rate limit: %d", c.Auth.LoginRateLimitRPS)
	}

	if len(c.Weather.Sites) == 0 {
		return fmt.Errorf("at least one weather site is required")
	}
	if _, err := time.LoadLocation(c.Weather.Timezone); err != nil {
		return fmt.Errorf("invalid weather timezone %q: %w", c.Weather.Timezone, err)
	}
	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("weather timeout must be positive")
	}
	if c.Weather.RefreshInterval < time.Minute {
		return fmt.Errorf("weather refresh interval must be at least 1 minute")
	}

	if c.Worker.Count < 1 || c.Worker.BufferSize < 1 {
		return fmt.Errorf("worker count and buffer size must be positive")
	}
	if c.Pages.IncidentsPerPage < 1 || c.Pages.ReviewPerPage < 1 {
		return fmt.Errorf("page sizes must be positive")
	}

	return nil
}

// parseSites reads "name:lat:lon" entries separated by ';'.
func parseSites(raw string) ([]Site, error) {
	var sites []Site
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid weather site %q: want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid latitude for site %q", parts[0])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid longitude for site %q", parts[0])
		}
		sites = append(sites, Site{
			Name:      strings.TrimSpace(parts[0]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return sites, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
