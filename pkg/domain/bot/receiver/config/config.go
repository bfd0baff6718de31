package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	PostgreAddr string `yaml:"postgre_addr"`
	HTTPPort    int    `yaml:"http_port" validate:"required"`

	Storage       StorageConfig       `yaml:"storage"`
	Operator      OperatorConfig      `yaml:"operator"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Queue         QueueConfig         `yaml:"queue"`
	Probe         ProbeConfig         `yaml:"probe"`

	Settings model.Settings  `yaml:"settings"`
	Services []model.Service `yaml:"services" validate:"required,min=1,dive"`

	// from .env
	BotToken      string `yaml:"-"`
	ChatID        int64  `yaml:"-"`
	RedisPassword string `yaml:"-"`
}

type StorageConfig struct {
	Driver   string        `yaml:"driver" validate:"oneof=file redis postgres"`
	Key      string        `yaml:"key"`
	Dir      string        `yaml:"dir"`
	RedisURL string        `yaml:"redis_url" validate:"required_if=Driver redis"`
	TTL      time.Duration `yaml:"ttl"`
}

// OperatorConfig is the front-desk account logged in by /start.
type OperatorConfig struct {
	ID    string     `yaml:"id" validate:"required"`
	Name  string     `yaml:"name" validate:"required"`
	Email string     `yaml:"email" validate:"omitempty,email"`
	Role  model.Role `yaml:"role" validate:"oneof=admin barber client"`
}

func (o OperatorConfig) User() model.User {
	return model.User{ID: o.ID, Name: o.Name, Email: o.Email, Role: o.Role}
}

type NotificationsConfig struct {
	DefaultDuration time.Duration `yaml:"default_duration" validate:"gte=0"`
	Tick            time.Duration `yaml:"tick" validate:"gte=0"`
	Capacity        int           `yaml:"capacity" validate:"gte=0"`
	EditsPerSecond  float64       `yaml:"edits_per_second" validate:"gte=0"`
}

type QueueConfig struct {
	Transitions map[string][]string `yaml:"transitions"`
}

type ProbeConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(filepath.Join("cmd/bot/etc", "app.yml"))
}

func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("failed to read config file").Arg("path", path).Wrap(err)
	}

	cfg := Config{
		Storage:  StorageConfig{Driver: DriverFile},
		Operator: OperatorConfig{Role: model.RoleAdmin},
		Settings: model.DefaultSettings(),
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New("failed to unmarshal YAML").Wrap(err)
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New("failed to load .env").Wrap(err)
	}
	cfg.BotToken = os.Getenv("TG_TOKEN")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.PostgreAddr = dsn
	}
	if raw := os.Getenv("TG_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errs.New("invalid TG_CHAT_ID").Arg("value", raw).Wrap(err)
		}
		cfg.ChatID = id
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errs.New("config validation failed").Wrap(err)
	}
	if c.Storage.Driver == DriverPostgres && c.PostgreAddr == "" {
		return errs.New("postgres storage needs postgre_addr or DB_DSN")
	}
	return nil
}
