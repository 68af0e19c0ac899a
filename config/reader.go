package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConfigSchema struct {
	Databases struct {
		// Driver is "postgres" or "sqlite"
		Driver     string     `yaml:"driver"`
		SQLitePath string     `yaml:"sqlite_path"`
		Master     DBConfig   `yaml:"master"`
		Replicas   []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis    RedisConfig `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Auth struct {
		SessionSecret string        `yaml:"session_secret"`
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		// DefaultAvatar is a format string receiving the username
		DefaultAvatar string `yaml:"default_avatar"`
	} `yaml:"auth"`
	Posts struct {
		CacheTTL        time.Duration `yaml:"cache_ttl"`
		RateLimit       int64         `yaml:"rate_limit"`
		RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	} `yaml:"posts"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

// Default returns a configuration that runs against a local sqlite file with
// in-process cache and events.
func Default() *ConfigSchema {
	conf := &ConfigSchema{}
	conf.applyDefaults()
	return conf
}

func (c *ConfigSchema) applyDefaults() {
	if c.Databases.Driver == "" {
		c.Databases.Driver = "sqlite"
	}
	if c.Databases.SQLitePath == "" {
		c.Databases.SQLitePath = "chirp.db"
	}
	if c.Databases.Master.Port == 0 {
		c.Databases.Master.Port = 5432
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "post_events"
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Auth.SessionSecret == "" {
		c.Auth.SessionSecret = "change-me-session-secret"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "change-me-jwt-secret"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.DefaultAvatar == "" {
		c.Auth.DefaultAvatar = "https://api.dicebear.com/9.x/fun-emoji/svg?seed=%s"
	}
	if c.Posts.CacheTTL == 0 {
		c.Posts.CacheTTL = time.Minute
	}
	if c.Posts.RateLimit == 0 {
		c.Posts.RateLimit = 3
	}
	if c.Posts.RateLimitWindow == 0 {
		c.Posts.RateLimitWindow = time.Minute
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}

// Addr is the listen address of the HTTP server.
func (c *ConfigSchema) Addr() string {
	return fmt.Sprintf("%s:%d", c.Backend.Host, c.Backend.Port)
}

// RedisEnabled reports whether a redis host was configured.
func (c *ConfigSchema) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *ConfigSchema) Debug() bool {
	return c.Logs.Level == "debug"
}

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}

// LoadConfigOrDefault is LoadConfig that falls back to Default when the file
// does not exist.
func LoadConfigOrDefault(filePath string) error {
	err := LoadConfig(filePath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Config %s not found, running with defaults", filePath)
		AppConfig = Default()
		return nil
	}
	return err
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	conf.applyDefaults()
	return conf, nil
}
