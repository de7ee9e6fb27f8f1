package usecase

import (
	"context"
	"sync"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
	"TickPulse/internal/service/control"
	"TickPulse/pkg/logger"
)

// SessionStatus is a read-only view of one stream session.
type SessionStatus struct {
	Symbol    string       `json:"symbol"`
	State     SessionState `json:"state"`
	Ticks     int64        `json:"ticks"`
	Window    int          `json:"window"`
	LastError string       `json:"last_error,omitempty"`
}

// Agent owns every stream session and the command relay.
type Agent struct {
	sessions []*StreamSession
	relay    *CommandRelay
	control  *control.State
	store    drepo.ControlStore
	log      *logger.Logger
}

// NewAgent wires the sessions and relay. store may be nil.
func NewAgent(sessions []*StreamSession, relay *CommandRelay, state *control.State, store drepo.ControlStore, log *logger.Logger) *Agent {
	if log == nil {
		log = logger.Nop()
	}
	return &Agent{sessions: sessions, relay: relay, control: state, store: store, log: log}
}

// Run restores the persisted control snapshot, starts one goroutine per session plus
// the relay and blocks until all of them return. A failed session does not stop the others.
func (a *Agent) Run(ctx context.Context) {
	a.restore(ctx)

	var wg sync.WaitGroup
	for _, s := range a.sessions {
		wg.Add(1)
		go func(s *StreamSession) {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				a.log.Error("stream session ended", logger.String("symbol", s.Symbol()), logger.Error(err))
			}
		}(s)
	}
	if a.relay != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.relay.Run(ctx)
		}()
	}
	wg.Wait()
}

// Control exposes the shared control state.
func (a *Agent) Control() *control.State { return a.control }

// Snapshot copies the current control state.
func (a *Agent) Snapshot() models.ControlSnapshot { return a.control.Snapshot() }

// Sessions returns a status per session in configuration order.
func (a *Agent) Sessions() []SessionStatus {
	out := make([]SessionStatus, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, SessionStatus{
			Symbol:    s.Symbol(),
			State:     s.State(),
			Ticks:     s.Ticks(),
			Window:    s.WindowLen(),
			LastError: s.LastError(),
		})
	}
	return out
}

// SetRunning pauses or resumes trading through the command relay, which persists
// the change and tells the chat. Without a relay the state is left alone.
func (a *Agent) SetRunning(ctx context.Context, running bool) models.ControlSnapshot {
	if a.relay == nil {
		a.log.Warn("no command relay, running flag unchanged", logger.Bool("requested", running))
		return a.control.Snapshot()
	}
	cmd := CommandPause
	if running {
		cmd = CommandResume
	}
	a.relay.Apply(ctx, cmd)
	return a.control.Snapshot()
}

func (a *Agent) restore(ctx context.Context) {
	if a.store == nil {
		return
	}
	snap, ok, err := a.store.Load(ctx)
	if err != nil {
		a.log.Warn("control snapshot not loaded", logger.Error(err))
		return
	}
	if !ok {
		return
	}
	a.control.Restore(snap)
	a.log.Info("control snapshot restored", logger.Bool("running", snap.Running), logger.String("day", snap.Day))
}
