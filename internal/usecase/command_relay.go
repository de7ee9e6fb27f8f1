package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
	"TickPulse/internal/service/control"
	"TickPulse/pkg/logger"
	"TickPulse/pkg/util"
)

const (
	CommandStart  = "/start"
	CommandPause  = "/pause"
	CommandResume = "/resume"
	CommandStatus = "/status"
)

// RelayConfig tunes the long-poll loop.
type RelayConfig struct {
	PollTimeout  time.Duration
	RetryBackoff time.Duration
}

// CommandRelay long-polls operator commands and applies them to the control state.
// The cursor is the only deduplication mechanism: anything below it is skipped.
type CommandRelay struct {
	source    drepo.CommandSource
	control   *control.State
	announcer *Announcer
	store     drepo.ControlStore
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       RelayConfig
	cursor    atomic.Int64
}

// NewCommandRelay creates a relay. store may be nil.
func NewCommandRelay(source drepo.CommandSource, state *control.State, announcer *Announcer, store drepo.ControlStore,
	metrics drepo.Metrics, log *logger.Logger, cfg RelayConfig) *CommandRelay {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 100 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CommandRelay{
		source:    source,
		control:   state,
		announcer: announcer,
		store:     store,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
	}
}

// Cursor is the next command id the relay will ask for.
func (r *CommandRelay) Cursor() int64 { return r.cursor.Load() }

// Run polls until ctx is cancelled. Poll failures are retried after a fixed backoff.
func (r *CommandRelay) Run(ctx context.Context) error {
	r.log.Info("command relay started", logger.Duration("poll_timeout", r.cfg.PollTimeout))
	for {
		if ctx.Err() != nil {
			return nil
		}
		cmds, err := r.source.Poll(ctx, r.cursor.Load(), r.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.metrics.RecordError("relay_poll")
			r.log.Warn("command poll failed", logger.Duration("backoff", r.cfg.RetryBackoff), logger.Error(err))
			t := time.NewTimer(r.cfg.RetryBackoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
			continue
		}
		for _, cmd := range cmds {
			r.Handle(ctx, cmd)
		}
	}
}

// Handle applies one command: advance the cursor, bind the destination, dispatch.
func (r *CommandRelay) Handle(ctx context.Context, cmd models.Command) {
	if cur := r.cursor.Load(); cur != 0 && cmd.ID < cur {
		r.log.Debug("duplicate command skipped", logger.Int64("id", cmd.ID), logger.Int64("cursor", cur))
		return
	}
	r.cursor.Store(cmd.ID + 1)

	if r.control.BindChatDestination(cmd.ChatID) {
		r.log.Info("chat destination bound", logger.String("chat", cmd.ChatID))
		r.persist(ctx)
	}

	r.Apply(ctx, cmd.Text)
}

// Apply dispatches one command text and replies in chat. It is the single place
// that flips the running flag, for both chat commands and the operator API.
// Unknown text is ignored and reported as false.
func (r *CommandRelay) Apply(ctx context.Context, text string) bool {
	switch util.NormalizeCommand(text) {
	case CommandStart:
		r.announcer.Announce(ctx, "🤖 Bot started")
	case CommandPause:
		r.control.SetRunning(false)
		r.persist(ctx)
		r.log.Info("trading paused")
		r.announcer.Announce(ctx, "⏸ Bot paused")
	case CommandResume:
		r.control.SetRunning(true)
		r.persist(ctx)
		r.log.Info("trading resumed")
		r.announcer.Announce(ctx, "▶ Bot resumed")
	case CommandStatus:
		r.announcer.Announce(ctx, StatusLine(r.control))
	default:
		return false
	}
	return true
}

// StatusLine renders the /status reply without touching the state.
func StatusLine(state *control.State) string {
	profit := strconv.FormatFloat(state.ProfitToday(), 'f', 2, 64)
	return fmt.Sprintf("Mode: %s | Profit today: %s USD", state.Mode(), profit)
}

func (r *CommandRelay) persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.control.Snapshot()); err != nil {
		r.metrics.RecordError("control_store")
		r.log.Warn("control snapshot not saved", logger.Error(err))
	}
}
