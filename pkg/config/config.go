package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks a configuration that cannot start the agent.
var ErrConfig = errors.New("invalid configuration")

// Instruments is the fixed pair of volatility indices the agent trades.
var Instruments = []string{"boom_1000", "crash_1000"}

const (
	ModeDemo = "demo"
	ModeReal = "real"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"127.0.0.1"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		// ControlToken enables POST /api/control behind a bearer token. Empty keeps the API read-only.
		ControlToken    string        `yaml:"control_token"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Path string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Digest publishes aggregated error logs to Kafka when the journal backend is kafka.
		Digest struct {
			Topic         string        `yaml:"topic" default:"tickpulse.log-digest"`
			FlushInterval time.Duration `yaml:"flush_interval" default:"1m"`
			Threshold     int           `yaml:"threshold" default:"50"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Telegram struct {
		BotToken      string        `yaml:"bot_token"`
		ChatID        string        `yaml:"chat_id"`
		APIBase       string        `yaml:"api_base" default:"https://api.telegram.org" validate:"url"`
		PollTimeout   time.Duration `yaml:"poll_timeout" default:"100s"`
		RetryBackoff  time.Duration `yaml:"retry_backoff" default:"5s"`
		SendInterval  time.Duration `yaml:"send_interval" default:"900ms"`
		MaxMessageLen int           `yaml:"max_message_len" default:"4000" validate:"gt=0"`
	} `yaml:"telegram"`
	Venue struct {
		URL              string        `yaml:"url" default:"wss://ws.derivws.com/websockets/v3?app_id=1089" validate:"url"`
		APITokenDemo     string        `yaml:"api_token_demo"`
		APITokenReal     string        `yaml:"api_token_real"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout" default:"10s"`
		PingInterval     time.Duration `yaml:"ping_interval" default:"30s"`
		SettleDelay      time.Duration `yaml:"settle_delay" default:"1s"`
	} `yaml:"venue"`
	Trading struct {
		Mode       string  `yaml:"mode" default:"demo" validate:"oneof=demo real"`
		Stake      float64 `yaml:"stake" default:"0.35" validate:"gt=0"`
		TPUSD      float64 `yaml:"tp_usd" default:"0.5" validate:"gte=0"`
		SLUSD      float64 `yaml:"sl_usd" default:"1" validate:"gte=0"`
		EMAShort   int     `yaml:"ema_short" default:"8"`
		EMALong    int     `yaml:"ema_long" default:"34"`
		ZThreshold float64 `yaml:"z_threshold" default:"3" validate:"gte=0"`
	} `yaml:"trading"`
	Stream struct {
		HistoryCount      int           `yaml:"history_count" default:"100" validate:"gt=0"`
		HistoryOnly       bool          `yaml:"history_only"`
		ReconnectAttempts int           `yaml:"reconnect_attempts" validate:"gte=0"`
		ReconnectDelay    time.Duration `yaml:"reconnect_delay" default:"5s"`
	} `yaml:"stream"`
	Journal struct {
		Backend       string        `yaml:"backend" default:"sqlite" validate:"oneof=sqlite kafka clickhouse none"`
		BufferSize    int           `yaml:"buffer_size" default:"1024" validate:"gt=0"`
		BatchSize     int           `yaml:"batch_size" default:"100" validate:"gt=0"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"2s"`
		SQLitePath    string        `yaml:"sqlite_path" default:"tickpulse.db"`
	} `yaml:"journal"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"tickpulse.journal"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"tickpulse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"tickpulse:"`
	} `yaml:"redis"`
}

// Load reads an optional YAML file, applies defaults and validates.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv is Load with a .env file and environment overrides applied before validation.
func LoadWithEnv(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func read(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
			}
		}
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("%w: defaults: %v", ErrConfig, err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("BOT_TOKEN", &c.Telegram.BotToken)
	str("CHAT_ID", &c.Telegram.ChatID)
	str("CONTROL_TOKEN", &c.Server.ControlToken)
	str("API_TOKEN_DEMO", &c.Venue.APITokenDemo)
	str("API_TOKEN_REAL", &c.Venue.APITokenReal)
	str("VENUE_URL", &c.Venue.URL)
	str("MODE", &c.Trading.Mode)
	c.Trading.Mode = strings.ToLower(c.Trading.Mode)
	num("STAKE", &c.Trading.Stake)
	num("TP_USD", &c.Trading.TPUSD)
	num("SL_USD", &c.Trading.SLUSD)
	integer("EMA_SHORT", &c.Trading.EMAShort)
	integer("EMA_LONG", &c.Trading.EMALong)
	num("Z_THRESHOLD", &c.Trading.ZThreshold)
	integer("RECONNECT_ATTEMPTS", &c.Stream.ReconnectAttempts)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("JOURNAL_BACKEND", &c.Journal.Backend)
	str("SQLITE_PATH", &c.Journal.SQLitePath)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	integer("HTTP_PORT", &c.Server.Port)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	str("KAFKA_TOPIC", &c.Kafka.Topic)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
	}
	return nil
}

// Validate checks struct rules and the credentials required by the selected mode.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: BOT_TOKEN is required", ErrConfig)
	}
	if c.APIToken() == "" {
		return fmt.Errorf("%w: API_TOKEN_%s is required in %s mode", ErrConfig, strings.ToUpper(c.Trading.Mode), c.Trading.Mode)
	}
	if c.Journal.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers cannot be empty with the kafka journal", ErrConfig)
	}
	return nil
}

// APIToken returns the venue token for the configured mode.
func (c *Config) APIToken() string {
	if c.Trading.Mode == ModeReal {
		return c.Venue.APITokenReal
	}
	return c.Venue.APITokenDemo
}

// Symbols returns a copy of the traded instruments.
func (c *Config) Symbols() []string {
	out := make([]string, len(Instruments))
	copy(out, Instruments)
	return out
}
