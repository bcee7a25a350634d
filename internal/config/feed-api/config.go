package feed_api_config

import (
	"time"

	"github.com/NordCoder/Tgfeed/internal/obs"
	pg "github.com/NordCoder/Tgfeed/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	FeedRPS         float64       `mapstructure:"feed_rps"`
	FeedBurst       int           `mapstructure:"feed_burst"`
}

type Telegram struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
	Channel       string `mapstructure:"channel"`
	BotToken      string `mapstructure:"bot_token"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type Feed struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CacheMaxAge  time.Duration `mapstructure:"cache_max_age"`
}

type Store struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Events struct {
	Enable        bool          `mapstructure:"enable"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Interval      time.Duration `mapstructure:"interval"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is built once at startup and only read afterwards.
type Config struct {
	App      App       `mapstructure:"app"`
	Server   Server    `mapstructure:"server"`
	Telegram Telegram  `mapstructure:"telegram"`
	Feed     Feed      `mapstructure:"feed"`
	Store    Store     `mapstructure:"store"`
	DB       pg.Config `mapstructure:"db"`
	Events   Events    `mapstructure:"events"`
	OTEL     OTEL      `mapstructure:"otel"`
	Log      Log       `mapstructure:"log"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
