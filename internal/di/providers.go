package di

import (
	"context"
	"fmt"
	"time"

	"TickPulse/internal/domain/repository"
	"TickPulse/internal/handler/api"
	mid "TickPulse/internal/middleware"
	internalrepo "TickPulse/internal/repository"
	"TickPulse/internal/service/control"
	"TickPulse/internal/service/deriv"
	"TickPulse/internal/service/ratelimit"
	"TickPulse/internal/service/telegram"
	"TickPulse/internal/services/indicators"
	"TickPulse/internal/usecase"
	"TickPulse/pkg/cache"
	pkgch "TickPulse/pkg/clickhouse"
	"TickPulse/pkg/config"
	xhttp "TickPulse/pkg/http"
	pkgkafka "TickPulse/pkg/kafka"
	"TickPulse/pkg/logger"
	"TickPulse/pkg/metrics"
	"TickPulse/pkg/server"
	pkgsqlite "TickPulse/pkg/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// pollMargin keeps the HTTP client alive a little longer than the relay's long poll.
const pollMargin = 15 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment), logger.String("mode", cfg.Trading.Mode)), nil
}

// ProvideRegisterer returns the process-wide Prometheus registry scraped at /metrics.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

// ProvideControlState creates the shared control plane, pre-bound to CHAT_ID when set.
func ProvideControlState(cfg *config.Config) *control.State {
	var opts []control.Option
	if cfg.Telegram.ChatID != "" {
		opts = append(opts, control.WithChatDestination(cfg.Telegram.ChatID))
	}
	return control.New(cfg.Trading.Mode, opts...)
}

// ProvideCache uses Redis when an address is configured and an in-process cache otherwise.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	if cfg.Redis.Addr == "" {
		mc := cache.NewMemoryCache(cache.MemoryConfig{MaxSize: 64})
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("control snapshots stored in redis", logger.String("addr", cfg.Redis.Addr))
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideControlStore persists control snapshots in the cache.
func ProvideControlStore(c cache.Service) repository.ControlStore {
	return internalrepo.NewCacheControlStore(c)
}

// ProvideTelegramClient creates the messaging relay client used for both sending and polling.
func ProvideTelegramClient(cfg *config.Config, l *logger.Logger) *telegram.Client {
	hc := xhttp.NewClient(xhttp.WithTimeout(cfg.Telegram.PollTimeout + pollMargin))
	limiter := ratelimit.New(cfg.Telegram.SendInterval, 1)
	return telegram.New(cfg.Telegram.APIBase, cfg.Telegram.BotToken, hc, limiter, cfg.Telegram.MaxMessageLen, l)
}

// ProvideVenueDialer creates the Deriv websocket dialer.
func ProvideVenueDialer(cfg *config.Config, l *logger.Logger) repository.VenueDialer {
	return deriv.New(cfg.Venue.URL, cfg.Venue.HandshakeTimeout, cfg.Venue.PingInterval, l)
}

// ProvideJournalBackend opens the configured journal store. With the kafka backend the
// producer also ships error log digests.
func ProvideJournalBackend(cfg *config.Config, reg prometheus.Registerer, l *logger.Logger) (repository.Journal, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Journal.Backend {
	case "sqlite":
		client, err := pkgsqlite.NewClient(cfg.Journal.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite journal: %w", err)
		}
		j, err := internalrepo.NewSQLiteJournal(ctx, client.DB())
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		l.Info("journal backend ready", logger.String("backend", "sqlite"), logger.String("path", cfg.Journal.SQLitePath))
		return j, func() { _ = client.Close() }, nil

	case "clickhouse":
		client, err := pkgch.NewClient(pkgch.Config{
			Host:         cfg.ClickHouse.Host,
			Port:         cfg.ClickHouse.Port,
			Database:     cfg.ClickHouse.Database,
			User:         cfg.ClickHouse.User,
			Password:     cfg.ClickHouse.Password,
			UseHTTP:      cfg.ClickHouse.UseHTTP,
			AsyncInsert:  cfg.ClickHouse.AsyncInsert,
			WaitForAsync: cfg.ClickHouse.WaitForAsync,
			DialTimeout:  cfg.ClickHouse.DialTimeout,
			ReadTimeout:  cfg.ClickHouse.ReadTimeout,
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("journal backend ready", logger.String("backend", "clickhouse"), logger.String("database", cfg.ClickHouse.Database))
		return internalrepo.NewClickHouseJournal(client, "journal_events"), func() { _ = client.Close() }, nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(pkgkafka.Config{
			Brokers:           cfg.Kafka.Brokers,
			RequiredAcks:      cfg.Kafka.RequiredAcks,
			Compression:       cfg.Kafka.Compression,
			MaxAttempts:       cfg.Kafka.Producer.MaxAttempts,
			WriteTimeout:      cfg.Kafka.Producer.WriteTimeout,
			ReadTimeout:       cfg.Kafka.Producer.ReadTimeout,
			BatchSize:         cfg.Kafka.Producer.BatchSize,
			BatchBytes:        int64(cfg.Kafka.Producer.BatchBytes),
			BatchTimeout:      cfg.Kafka.Producer.Linger,
			Async:             cfg.Kafka.Producer.Async,
			KeyedPartitioning: true,
			Registerer:        reg,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		l.AttachDigest(logger.DigestConfig{
			Interval:    cfg.Log.Digest.FlushInterval,
			MaxDistinct: cfg.Log.Digest.Threshold,
			Topic:       cfg.Log.Digest.Topic,
			Publisher:   producer,
		})
		l.Info("journal backend ready", logger.String("backend", "kafka"), logger.Strings("brokers", cfg.Kafka.Brokers))
		// The pipeline closes the journal, and with it the producer.
		return internalrepo.NewKafkaJournal(producer, cfg.Kafka.Topic), func() {}, nil

	default:
		l.Warn("journal disabled")
		return internalrepo.NopJournal{}, func() {}, nil
	}
}

// ProvideJournalPipeline buffers journal writes off the tick path.
func ProvideJournalPipeline(cfg *config.Config, backend repository.Journal, m repository.Metrics, l *logger.Logger) *mid.JournalPipeline {
	return mid.NewJournalPipeline(backend, m, l,
		mid.WithBufferSize(cfg.Journal.BufferSize),
		mid.WithBatchSize(cfg.Journal.BatchSize),
		mid.WithFlushInterval(cfg.Journal.FlushInterval),
	)
}

// ProvideAnnouncer creates the notification sink shared by sessions and the relay.
func ProvideAnnouncer(notifier repository.Notifier, state *control.State, m repository.Metrics, l *logger.Logger) *usecase.Announcer {
	return usecase.NewAnnouncer(notifier, state, m, l)
}

// ProvideSettlementTracker logs the TP/SL levels each order would be settled against.
func ProvideSettlementTracker(cfg *config.Config, l *logger.Logger) repository.SettlementTracker {
	return usecase.NewLoggingTracker(decimal.NewFromFloat(cfg.Trading.TPUSD), decimal.NewFromFloat(cfg.Trading.SLUSD), l)
}

// ProvideOrderSubmitter creates the order use case.
func ProvideOrderSubmitter(
	cfg *config.Config,
	dialer repository.VenueDialer,
	announcer *usecase.Announcer,
	journal *mid.JournalPipeline,
	tracker repository.SettlementTracker,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.OrderSubmitter {
	return usecase.NewOrderSubmitter(dialer, usecase.OrderConfig{
		Token:       cfg.APIToken(),
		Stake:       decimal.NewFromFloat(cfg.Trading.Stake),
		SettleDelay: cfg.Venue.SettleDelay,
	}, announcer, journal, tracker, m, l)
}

// ProvideStreamSessions creates one session per traded instrument.
func ProvideStreamSessions(
	cfg *config.Config,
	dialer repository.VenueDialer,
	state *control.State,
	orders *usecase.OrderSubmitter,
	announcer *usecase.Announcer,
	journal *mid.JournalPipeline,
	m repository.Metrics,
	l *logger.Logger,
) []*usecase.StreamSession {
	symbols := cfg.Symbols()
	sessions := make([]*usecase.StreamSession, 0, len(symbols))
	for _, sym := range symbols {
		sessions = append(sessions, usecase.NewStreamSession(sessionConfig(cfg, sym),
			dialer, state, orders, announcer, journal, m, l))
	}
	return sessions
}

// sessionConfig keeps the price window at its fixed capacity; history_count only sizes the history request.
func sessionConfig(cfg *config.Config, symbol string) usecase.SessionConfig {
	return usecase.SessionConfig{
		Symbol:            symbol,
		Token:             cfg.APIToken(),
		HistoryCount:      cfg.Stream.HistoryCount,
		Subscribe:         !cfg.Stream.HistoryOnly,
		ShortPeriod:       cfg.Trading.EMAShort,
		LongPeriod:        cfg.Trading.EMALong,
		ZThreshold:        cfg.Trading.ZThreshold,
		WindowCapacity:    indicators.DefaultWindowCapacity,
		ReconnectAttempts: cfg.Stream.ReconnectAttempts,
		ReconnectDelay:    cfg.Stream.ReconnectDelay,
	}
}

// ProvideCommandRelay creates the operator command loop.
func ProvideCommandRelay(
	cfg *config.Config,
	source repository.CommandSource,
	state *control.State,
	announcer *usecase.Announcer,
	store repository.ControlStore,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.CommandRelay {
	return usecase.NewCommandRelay(source, state, announcer, store, m, l, usecase.RelayConfig{
		PollTimeout:  cfg.Telegram.PollTimeout,
		RetryBackoff: cfg.Telegram.RetryBackoff,
	})
}

// ProvideAgent groups the sessions and the relay.
func ProvideAgent(
	sessions []*usecase.StreamSession,
	relay *usecase.CommandRelay,
	state *control.State,
	store repository.ControlStore,
	l *logger.Logger,
) *usecase.Agent {
	return usecase.NewAgent(sessions, relay, state, store, l)
}

// ProvideHTTPServer creates the operator HTTP surface.
func ProvideHTTPServer(cfg *config.Config, agent *usecase.Agent, reg prometheus.Registerer, l *logger.Logger) *xhttp.Server {
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	return xhttp.NewServer(api.NewControlEchoHandler(l, agent, cfg.Server.ControlToken), l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Path, reg, gatherer),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	agent *usecase.Agent,
	pipeline *mid.JournalPipeline,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, l, agent, pipeline, httpServer)
}
