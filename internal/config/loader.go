package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "AGENTMESH"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Features FeaturesConfig `mapstructure:"features"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Stream source kinds.
const (
	SourceWebSocket = "websocket"
	SourceRedis     = "redis"
	SourceFile      = "file"
)

type StreamConfig struct {
	Source           string          `mapstructure:"source"`
	URL              string          `mapstructure:"url"`
	File             string          `mapstructure:"file"`
	HandshakeTimeout time.Duration   `mapstructure:"handshake_timeout"`
	ReadLimit        int64           `mapstructure:"read_limit"`
	Reconnect        ReconnectConfig `mapstructure:"reconnect"`
}

type ReconnectConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	TaskChannel   string `mapstructure:"task_channel"`
	HealthChannel string `mapstructure:"health_channel"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// JournalConfig controls the rejected-frame journal. When disabled, rejected
// frames are only logged and no database connection is opened.
type JournalConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BufferSize    int           `mapstructure:"buffer_size"`
	ListLimit     int           `mapstructure:"list_limit"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

type AuthConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})

	v.SetDefault("stream.source", SourceWebSocket)
	v.SetDefault("stream.url", "ws://localhost:8081/v1/ws")
	v.SetDefault("stream.handshake_timeout", 10*time.Second)
	v.SetDefault("stream.read_limit", 1<<20)
	v.SetDefault("stream.reconnect.enabled", true)
	v.SetDefault("stream.reconnect.initial_backoff", time.Second)
	v.SetDefault("stream.reconnect.max_backoff", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.task_channel", "task_updates")
	v.SetDefault("redis.health_channel", "system_health")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "user")
	v.SetDefault("database.name", "agentmesh")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.buffer_size", 256)
	v.SetDefault("journal.list_limit", 50)
	v.SetDefault("journal.retention", 7*24*time.Hour)
	v.SetDefault("journal.prune_interval", time.Hour)

	v.SetDefault("features.request_id_header", "X-Request-ID")
	v.SetDefault("features.enable_request_logging", false)

	v.SetDefault("auth.allowed_origins", []string{"http://localhost:5173"})
}

// Load reads the YAML file at path, layered over defaults and under
// AGENTMESH_* environment variables. An empty path loads defaults and env only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Stream.Source {
	case SourceWebSocket:
		if c.Stream.URL == "" {
			return fmt.Errorf("stream.url is required for the %s source", SourceWebSocket)
		}
	case SourceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the %s source", SourceRedis)
		}
	case SourceFile:
		if c.Stream.File == "" {
			return fmt.Errorf("stream.file is required for the %s source", SourceFile)
		}
	default:
		return fmt.Errorf("unknown stream.source %q", c.Stream.Source)
	}
	if c.Stream.Reconnect.Enabled && c.Stream.Reconnect.InitialBackoff <= 0 {
		return fmt.Errorf("stream.reconnect.initial_backoff must be positive")
	}
	return nil
}
