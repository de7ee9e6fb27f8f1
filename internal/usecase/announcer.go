package usecase

import (
	"context"

	drepo "TickPulse/internal/domain/repository"
	"TickPulse/internal/service/control"
	"TickPulse/pkg/logger"
)

// Announcer sends operator notifications to the bound chat destination.
// With no destination bound it does nothing; delivery errors are logged and swallowed.
type Announcer struct {
	notifier drepo.Notifier
	control  *control.State
	metrics  drepo.Metrics
	log      *logger.Logger
}

func NewAnnouncer(notifier drepo.Notifier, state *control.State, metrics drepo.Metrics, log *logger.Logger) *Announcer {
	if log == nil {
		log = logger.Nop()
	}
	return &Announcer{notifier: notifier, control: state, metrics: metrics, log: log}
}

// Announce reports whether text was delivered.
func (a *Announcer) Announce(ctx context.Context, text string) bool {
	dest, ok := a.control.ChatDestination()
	if !ok {
		a.log.Debug("no chat bound, notification skipped", logger.String("text", text))
		return false
	}
	if err := a.notifier.Send(ctx, dest, text); err != nil {
		a.metrics.RecordError("notify")
		a.log.Warn("notification failed", logger.String("chat", dest), logger.Error(err))
		return false
	}
	return true
}
