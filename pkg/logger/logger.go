package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"
)

// Logger is a zerolog wrapper whose Error calls also feed an optional Digest.
type Logger struct {
	zl     zerolog.Logger
	digest *digestSlot
}

// digestSlot is shared by a logger and every child made with With, so a digest
// attached after the children exist still sees their errors.
type digestSlot struct {
	mu sync.RWMutex
	c  *Digest
}

func (s *digestSlot) get() *Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

func (s *digestSlot) swap(c *Digest) *Digest {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.c
	s.c = c
	return old
}

// Config selects level, encoding and sink.
type Config struct {
	Level  string `default:"info"`
	Format string `default:"json"`   // json | console
	Output string `default:"stdout"` // stdout | stderr | file path
}

// New builds a logger writing to the configured sink.
func New(cfg Config) (*Logger, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		sink = zerolog.ConsoleWriter{Out: sink, TimeFormat: time.TimeOnly}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return &Logger{
		zl:     zerolog.New(sink).Level(level).With().Timestamp().Logger(),
		digest: &digestSlot{},
	}, nil
}

func openSink(output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), digest: &digestSlot{}}
}

// With returns a child logger that stamps fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	zc := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		zc = zc.Interface(k, v)
	}
	return &Logger{zl: zc.Logger(), digest: l.digest}
}

func (l *Logger) Debug(msg string, fields ...Field) { write(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { write(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { write(l.zl.Warn(), msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) {
	write(l.zl.Error(), msg, fields)
	if d := l.digest.get(); d != nil {
		d.Record(msg, callerOf(2), fieldMap(fields))
	}
}

func write(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(ev)
	}
	ev.Msg(msg)
}

func fieldMap(fields []Field) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		m[k] = v
	}
	return m
}

// callerOf names the caller skip frames up as dir/file.go:line.
func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file)) + ":" + strconv.Itoa(line)
}

// AttachDigest starts an error digest for this logger and all its children.
// A previously attached digest is flushed and closed.
func (l *Logger) AttachDigest(cfg DigestConfig) {
	if old := l.digest.swap(NewDigest(cfg)); old != nil {
		old.Close()
	}
}

// DetachDigest flushes and detaches the digest, if any.
func (l *Logger) DetachDigest() {
	if old := l.digest.swap(nil); old != nil {
		old.Close()
	}
}
