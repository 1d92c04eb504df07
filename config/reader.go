package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Path используется только драйвером sqlite
	Path string `yaml:"path"`
}

type ConfigSchema struct {
	Databases struct {
		Master       DBConfig      `yaml:"master"`
		Replicas     []DBConfig    `yaml:"replicas"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
		MaxOpenConns int           `yaml:"max_open_conns"`
	} `yaml:"db"`
	Redis struct {
		Host       string        `yaml:"host"`
		Port       int           `yaml:"port"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		CounterTTL time.Duration `yaml:"counter_ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		Issuer    string        `yaml:"issuer"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Feed struct {
		DefaultLimit int `yaml:"default_limit"`
		MaxLimit     int `yaml:"max_limit"`
	} `yaml:"feed"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Reconcile struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"reconcile"`
	Logs struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

func LoadConfig(filePath string) error {
	// .env не обязателен, переменные окружения могут прийти из оркестратора
	_ = godotenv.Load()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf := &ConfigSchema{}
	if err = yaml.Unmarshal(data, conf); err != nil {
		return err
	}
	conf.applyEnv()
	conf.applyDefaults()
	AppConfig = conf
	return nil
}

// Default возвращает конфигурацию со значениями по умолчанию (для тестов и утилит)
func Default() *ConfigSchema {
	conf := &ConfigSchema{}
	conf.applyDefaults()
	return conf
}

func (c *ConfigSchema) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Databases.Master.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("BACKEND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Backend.Port = port
		}
	}
}

func (c *ConfigSchema) applyDefaults() {
	if c.Databases.Master.Driver == "" {
		c.Databases.Master.Driver = "postgres"
	}
	if c.Databases.Master.Port == 0 {
		c.Databases.Master.Port = 5432
	}
	if c.Databases.QueryTimeout <= 0 {
		c.Databases.QueryTimeout = 5 * time.Second
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.CounterTTL <= 0 {
		c.Redis.CounterTTL = 24 * time.Hour
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "social_events"
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "photofeed"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 72 * time.Hour
	}
	if c.Feed.DefaultLimit <= 0 {
		c.Feed.DefaultLimit = 10
	}
	if c.Feed.MaxLimit <= 0 {
		c.Feed.MaxLimit = 100
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 40
	}
	if c.Reconcile.Schedule == "" {
		c.Reconcile.Schedule = "@every 10m"
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}
