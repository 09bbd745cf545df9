package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Server        ServerConfig        `yaml:"server"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Exports       ExportConfig        `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	HTTPPort     int           `yaml:"http_port"`
	GRPCPort     int           `yaml:"grpc_port"`
	Reflection   bool          `yaml:"reflection"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type GatewayConfig struct {
	HTTPPort       int             `yaml:"http_port"`
	ServerURL      string          `yaml:"server_url"`
	ServerGRPCAddr string          `yaml:"server_grpc_addr"`
	Timeout        time.Duration   `yaml:"timeout"`
	CacheTTL       time.Duration   `yaml:"cache_ttl"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig drives both limiter backends: Limit/Window for the shared
// fixed window, RPS/Burst for the in-process token bucket.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type NotificationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type WorkerConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; anything already in the environment wins.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Gateway.ServerURL != "" {
		u, err := url.Parse(c.Gateway.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("gateway server_url %q is not an absolute URL", c.Gateway.ServerURL)
		}
	}
	if c.Gateway.RateLimit.Enabled && c.Gateway.RateLimit.Limit <= 0 {
		return errors.New("gateway rate_limit.limit must be positive when enabled")
	}
	if c.Notifications.Telegram.BotToken != "" && c.Notifications.Telegram.ChatID == 0 {
		return errors.New("notifications.telegram.chat_id is required with bot_token")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 9090
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9091
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}

	if c.Gateway.HTTPPort == 0 {
		c.Gateway.HTTPPort = 8080
	}
	if c.Gateway.ServerURL == "" {
		c.Gateway.ServerURL = fmt.Sprintf("http://localhost:%d", c.Server.HTTPPort)
	}
	if c.Gateway.ServerGRPCAddr == "" {
		c.Gateway.ServerGRPCAddr = fmt.Sprintf("localhost:%d", c.Server.GRPCPort)
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 10 * time.Second
	}
	if c.Gateway.RateLimit.Limit == 0 {
		c.Gateway.RateLimit.Limit = 120
	}
	if c.Gateway.RateLimit.Window == 0 {
		c.Gateway.RateLimit.Window = time.Minute
	}
	if c.Gateway.RateLimit.RPS == 0 {
		c.Gateway.RateLimit.RPS = float64(c.Gateway.RateLimit.Limit) / c.Gateway.RateLimit.Window.Seconds()
	}
	if c.Gateway.RateLimit.Burst == 0 {
		c.Gateway.RateLimit.Burst = 10
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9100
	}

	if c.Notifications.AMQP.URL != "" && c.Notifications.AMQP.Queue == "" {
		c.Notifications.AMQP.Queue = "shareit.bookings"
	}
	if c.Notifications.Worker.QueueSize == 0 {
		c.Notifications.Worker.QueueSize = 256
	}
	if c.Notifications.Worker.MaxRetries == 0 {
		c.Notifications.Worker.MaxRetries = 3
	}

	if c.Exports.SheetName == "" {
		c.Exports.SheetName = "Bookings"
	}
}
