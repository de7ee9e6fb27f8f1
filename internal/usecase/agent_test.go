package usecase

import (
	"context"
	"testing"
	"time"

	"TickPulse/internal/domain/models"
	"TickPulse/internal/service/control"
	"TickPulse/pkg/metrics"
	"TickPulse/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRunsSessionsIndependently(t *testing.T) {
	state := control.New("demo")
	announcer := NewAnnouncer(&fakeNotifier{}, state, metrics.Nop{}, nil)
	journal := &fakeJournal{}
	cfg := SessionConfig{Token: "t", ShortPeriod: 8, LongPeriod: 34, ZThreshold: 3}

	boomCfg := cfg
	boomCfg.Symbol = "boom_1000"
	boom := NewStreamSession(boomCfg, &fakeDialer{err: models.ErrConnection}, state, &fakePlacer{}, announcer, journal, metrics.Nop{}, nil)

	crashCfg := cfg
	crashCfg.Symbol = "crash_1000"
	crashConn := &fakeConn{steps: []step{historyMsg(1, 2, 3)}}
	crash := NewStreamSession(crashCfg, &fakeDialer{conns: []*fakeConn{crashConn}}, state, &fakePlacer{}, announcer, journal, metrics.Nop{}, nil)

	store := &fakeStore{}
	agent := NewAgent([]*StreamSession{boom, crash}, nil, state, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agent.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		st := agent.Sessions()
		return st[0].State == StateClosed && st[1].State == StateLive
	}, time.Second, 5*time.Millisecond)

	statuses := agent.Sessions()
	assert.Equal(t, "boom_1000", statuses[0].Symbol)
	assert.NotEmpty(t, statuses[0].LastError)
	assert.Equal(t, 3, statuses[1].Window)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestAgentRestoresProfitAndChatButKeepsRunning(t *testing.T) {
	state := control.New("demo")
	store := &fakeStore{}
	require.NoError(t, store.Save(context.Background(), models.ControlSnapshot{
		Running:         false,
		ProfitToday:     1.5,
		ChatDestination: "42",
		Mode:            "demo",
		Day:             util.DayKey(time.Now()),
	}))

	agent := NewAgent(nil, nil, state, store, nil)
	agent.Run(context.Background())

	assert.True(t, state.IsRunning())
	assert.Equal(t, 1.5, state.ProfitToday())
	dest, _ := state.ChatDestination()
	assert.Equal(t, "42", dest)
}

func TestAgentSetRunningGoesThroughRelay(t *testing.T) {
	f := newRelayFixture(nil, control.WithChatDestination("42"))
	agent := NewAgent(nil, f.relay, f.state, f.store, nil)
	ctx := context.Background()

	snap := agent.SetRunning(ctx, false)
	assert.False(t, snap.Running)
	assert.False(t, f.store.snap.Running)

	snap = agent.SetRunning(ctx, true)
	assert.True(t, snap.Running)
	assert.True(t, f.store.snap.Running)
	assert.Equal(t, []string{"⏸ Bot paused", "▶ Bot resumed"}, f.notifier.texts())
}

func TestAgentWithoutRelayLeavesRunningAlone(t *testing.T) {
	state := control.New("demo")
	agent := NewAgent(nil, nil, state, nil, nil)

	snap := agent.SetRunning(context.Background(), false)
	assert.True(t, snap.Running)
	assert.True(t, state.IsRunning())
}
