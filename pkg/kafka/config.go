package kafka

import (
	"errors"
	"time"

	"github.com/creasty/defaults"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// Config describes the writer behind a Producer. Zero fields take the `default` tag.
type Config struct {
	Brokers []string
	// Acks: -1 waits for all in-sync replicas, 0 fires and forgets.
	RequiredAcks int    `default:"-1"`
	Compression  string `default:"snappy"`
	MaxAttempts  int    `default:"3"`

	WriteTimeout time.Duration `default:"10s"`
	ReadTimeout  time.Duration `default:"10s"`

	BatchSize    int           `default:"100"`
	BatchBytes   int64         `default:"1048576"`
	BatchTimeout time.Duration `default:"50ms"`

	Async bool
	// KeyedPartitioning keeps every key on one partition so per-symbol order holds.
	KeyedPartitioning bool
	AutoCreateTopics  bool

	// Registerer receives producer metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer `default:"-"`
}

var errNoBrokers = errors.New("kafka: at least one broker is required")

func (c *Config) normalize() error {
	if len(c.Brokers) == 0 {
		return errNoBrokers
	}
	return defaults.Set(c)
}

func (c Config) writer() *kafka.Writer {
	var bal kafka.Balancer = &kafka.LeastBytes{}
	if c.KeyedPartitioning {
		bal = &kafka.Hash{}
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               bal,
		RequiredAcks:           kafka.RequiredAcks(c.RequiredAcks),
		Compression:            compressionCodec(c.Compression),
		MaxAttempts:            c.MaxAttempts,
		WriteTimeout:           c.WriteTimeout,
		ReadTimeout:            c.ReadTimeout,
		BatchSize:              c.BatchSize,
		BatchBytes:             c.BatchBytes,
		BatchTimeout:           c.BatchTimeout,
		Async:                  c.Async,
		AllowAutoTopicCreation: c.AutoCreateTopics,
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return 0
}
