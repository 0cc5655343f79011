package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileEnv = "CONFIG_FILE"

// Config is read once at startup. Precedence, lowest first: defaults, the YAML
// file named by CONFIG_FILE, a .env file, the process environment.
type Config struct {
	AppEnv     string `yaml:"app_env"`
	LogLevel   string `yaml:"log_level"`
	ServerPort string `yaml:"server_port"`

	DBDriver       string `yaml:"db_driver"`
	DBURL          string `yaml:"database_url"`
	DBHost         string `yaml:"db_host"`
	DBPort         int    `yaml:"db_port"`
	DBUser         string `yaml:"db_user"`
	DBPassword     string `yaml:"db_password"`
	DBName         string `yaml:"db_name"`
	DBSslMode      string `yaml:"db_sslmode"`
	DBMaxOpenConns int    `yaml:"db_max_open_conns"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	ZoneCacheTTL  time.Duration `yaml:"zone_cache_ttl"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	SeedDemo bool `yaml:"seed_demo"`
}

func defaults() *Config {
	return &Config{
		AppEnv:         "production",
		LogLevel:       "info",
		ServerPort:     "8080",
		DBDriver:       "pgx",
		DBHost:         "localhost",
		DBPort:         5432,
		DBUser:         "parkilite",
		DBPassword:     "parkilite",
		DBName:         "parkilite",
		DBSslMode:      "disable",
		DBMaxOpenConns: 10,
		ZoneCacheTTL:   10 * time.Minute,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		SeedDemo:       true,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv(configFileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBURL = getEnv("DATABASE_URL", cfg.DBURL)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSslMode = getEnv("DB_SSLMODE", cfg.DBSslMode)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)

	var err error
	if cfg.DBPort, err = getEnvInt("DB_PORT", cfg.DBPort); err != nil {
		return err
	}
	if cfg.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns); err != nil {
		return err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", cfg.RedisDB); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
		}
	}
	if v, ok := os.LookupEnv("ZONE_CACHE_TTL"); ok {
		if cfg.ZoneCacheTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: ZONE_CACHE_TTL: %w", err)
		}
	}
	if v, ok := os.LookupEnv("SEED_DEMO"); ok {
		if cfg.SeedDemo, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("config: SEED_DEMO: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "pgx", "postgres":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q (want pgx or postgres)", c.DBDriver)
	}
	if c.DBMaxOpenConns < 1 {
		return errors.New("config: DB_MAX_OPEN_CONNS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.New("config: rate limit must be positive")
	}
	return nil
}

// DatabaseURL returns DATABASE_URL when set, otherwise a postgres:// URL built
// from the individual DB_* settings.
func (c *Config) DatabaseURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSslMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.ServerPort)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
