package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docuplane/credentiald/internal/email"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// DSN de postgres (credenciales, tokens, audit de sesiones).
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		DB       int    `yaml:"db"`
		Password string `yaml:"password"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Cache struct {
		// memory | redis
		Kind   string `yaml:"kind"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		// TokenSecret firma los tokens propios del servicio (one-time
		// login, URL tokens).
		TokenSecret string `yaml:"token_secret"`

		// AccessTokenSecret firma los access tokens de sesión.
		AccessTokenSecret string `yaml:"access_token_secret"`

		AccessTokenTTL   string `yaml:"access_token_ttl"`
		OneTimeTokenDays int    `yaml:"one_time_token_days"`
	} `yaml:"auth"`

	SMTP email.SMTPConfig `yaml:"smtp"`

	Notifications struct {
		// Endpoint de dispatch del notification service. Vacío = nop.
		Endpoint string `yaml:"endpoint"`
	} `yaml:"notifications"`

	// URLs base de los servicios colaboradores.
	Services struct {
		Users         string `yaml:"users"`
		Accounts      string `yaml:"accounts"`
		Authorization string `yaml:"authorization"`
		Directory     string `yaml:"directory"`
	} `yaml:"services"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Auth.AccessTokenTTL == "" {
		c.Auth.AccessTokenTTL = "1h"
	}
	if c.Auth.OneTimeTokenDays == 0 {
		c.Auth.OneTimeTokenDays = 7
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}

	// validate string durations
	if _, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err != nil {
		return nil, err
	}
	if _, err := time.ParseDuration(c.Auth.AccessTokenTTL); err != nil {
		return nil, err
	}

	// Overrides por env
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AccessTokenTTL parsea la duración ya validada en Load.
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.AccessTokenTTL)
	return d
}

// MemoryCacheTTL parsea la duración ya validada en Load.
func (c *Config) MemoryCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
// Los secretos normalmente entran solo por acá.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_TOKEN_SECRET"); ok {
		c.Auth.TokenSecret = v
	}
	if v, ok := getEnvStr("AUTH_ACCESS_TOKEN_SECRET"); ok {
		c.Auth.AccessTokenSecret = v
	}
	if v, ok := getEnvStr("AUTH_ACCESS_TOKEN_TTL"); ok {
		c.Auth.AccessTokenTTL = v
	}
	if v, ok := getEnvInt("AUTH_ONE_TIME_TOKEN_DAYS"); ok {
		c.Auth.OneTimeTokenDays = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.FromEmail = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLSMode = strings.ToLower(v) // auto|starttls|ssl|none
	}

	// NOTIFICATIONS
	if v, ok := getEnvStr("NOTIFICATIONS_ENDPOINT"); ok {
		c.Notifications.Endpoint = v
	}

	// SERVICES
	if v, ok := getEnvStr("USERS_SERVICE_URL"); ok {
		c.Services.Users = v
	}
	if v, ok := getEnvStr("ACCOUNTS_SERVICE_URL"); ok {
		c.Services.Accounts = v
	}
	if v, ok := getEnvStr("AUTHORIZATION_SERVICE_URL"); ok {
		c.Services.Authorization = v
	}
	if v, ok := getEnvStr("DIRECTORY_SERVICE_URL"); ok {
		c.Services.Directory = v
	}

	// FLAGS
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// Validate corta el arranque si faltan valores críticos.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("config: auth.token_secret is required")
	}
	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("config: auth.access_token_secret is required")
	}
	// En prod los secretos nunca pueden ser los de ejemplo.
	if strings.EqualFold(c.App.Env, "prod") {
		for _, s := range []string{c.Auth.TokenSecret, c.Auth.AccessTokenSecret} {
			if strings.Contains(strings.ToLower(s), "change-me") {
				return fmt.Errorf("config: placeholder secret in prod")
			}
		}
	}
	return nil
}
