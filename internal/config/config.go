// config - источник загрузки конфигурации для content-gateway.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	HTTP        HTTPConfig        `yaml:"http"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	CMS         CMSConfig         `yaml:"cms"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// TimeoutConfig — общий дедлайн обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"30s"`
}

// HTTPConfig — публичный REST-сервер шлюза.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50070"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host"   env:"METRICS_HOST"   env-default:"0.0.0.0"`
	Port string `yaml:"port"   env:"METRICS_PORT"   env-default:"50075"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// CMSConfig — внешняя headless-CMS и параметры устойчивой загрузки.
type CMSConfig struct {
	BaseURL          string        `yaml:"base_url"          env:"CMS_BASE_URL"          env-default:"https://cms.safevoice.org/api"`
	MediaBaseURL     string        `yaml:"media_base_url"    env:"CMS_MEDIA_BASE_URL"    env-default:"https://cdn.safevoice.org"`
	PlaceholderImage string        `yaml:"placeholder_image" env:"CMS_PLACEHOLDER_IMAGE" env-default:"https://cdn.safevoice.org/static/placeholder.png"`
	MaxAttempts      int           `yaml:"max_attempts"      env:"CMS_MAX_ATTEMPTS"      env-default:"3"`
	BackoffBase      time.Duration `yaml:"backoff_base"      env:"CMS_BACKOFF_BASE"      env-default:"1s"`
	AttemptTimeout   time.Duration `yaml:"attempt_timeout"   env:"CMS_ATTEMPT_TIMEOUT"   env-default:"12s"`
}

// CredentialsConfig — источник токена CMS: Redis (если задан URL),
// иначе статический токен из окружения.
type CredentialsConfig struct {
	Token    string `yaml:"token"     env:"CMS_TOKEN"`
	RedisURL string `yaml:"redis_url" env:"CREDENTIALS_REDIS_URL"`
	RedisKey string `yaml:"redis_key" env:"CREDENTIALS_REDIS_KEY" env-default:"cms:token"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}
	return &cfg, nil
}
