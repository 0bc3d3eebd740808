// internal/config/config.go
//
// Process configuration for the reference backend and the terminal client.
//
// Sources, highest priority first: environment, the YAML file named by
// CONFIG_PATH (when set), env-default tags. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Redis  RedisConfig  `yaml:"redis"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig drives the reference backend.
type ServerConfig struct {
	Port           string        `yaml:"port"             env:"PORT"                 env-default:"5175"`
	DBPath         string        `yaml:"db_path"          env:"DB_PATH"              env-default:"wordrush-server.db"`
	DailySalt      string        `yaml:"daily_salt"       env:"DAILY_SALT"           env-default:"local_dev_salt"`
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"           env-default:"dev_secret_change_me"`
	JWTExpiresDays int           `yaml:"jwt_expires_days" env:"JWT_EXPIRES_DAYS"     env-default:"14"`
	ClientOrigin   string        `yaml:"client_origin"    env:"CLIENT_ORIGIN"        env-default:"http://localhost:5173"`
	HintPenalty    time.Duration `yaml:"hint_penalty"     env:"SPEEDLE_HINT_PENALTY" env-default:"10s"`

	// ExposeAnswer puts the daily answer in /word/today so clients can play offline.
	ExposeAnswer bool `yaml:"expose_answer" env:"EXPOSE_ANSWER" env-default:"true"`
}

// ClientConfig drives cmd/wordrush.
type ClientConfig struct {
	APIBaseURL       string        `yaml:"api_base_url"       env:"API_BASE_URL"       env-default:"http://localhost:5175"`
	DataPath         string        `yaml:"data_path"          env:"DATA_PATH"          env-default:"wordrush.db"`
	Lang             string        `yaml:"lang"               env:"WORD_LANG"          env-default:"en"`
	UserID           string        `yaml:"user_id"            env:"USER_ID"`
	AuthToken        string        `yaml:"auth_token"         env:"AUTH_TOKEN"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"       env:"HTTP_TIMEOUT"       env-default:"10s"`
	NetProbeInterval time.Duration `yaml:"net_probe_interval" env:"NET_PROBE_INTERVAL" env-default:"15s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

// Load reads .env (if present), then CONFIG_PATH or the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.JWTExpiresDays <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_DAYS must be positive, got %d", c.Server.JWTExpiresDays))
	}
	if c.Server.HintPenalty < 0 {
		errs = append(errs, fmt.Errorf("SPEEDLE_HINT_PENALTY must not be negative"))
	}
	if c.Client.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive"))
	}
	if c.Client.NetProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("NET_PROBE_INTERVAL must be positive"))
	}
	if !strings.HasPrefix(c.Client.APIBaseURL, "http://") && !strings.HasPrefix(c.Client.APIBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.Client.APIBaseURL))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", game.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// SetupLogging applies the level and output format to the global logger.
func (l LogConfig) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(l.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if l.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
}
