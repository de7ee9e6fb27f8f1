package deriv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TickPulse/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVenue records every frame it receives and replies with the queued frames once connected.
type mockVenue struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
	mu       sync.Mutex
	received []map[string]any
	replies  []string
}

func newMockVenue(t *testing.T, replies ...string) *mockVenue {
	t.Helper()
	v := &mockVenue{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		replies:  replies,
	}
	v.server = httptest.NewServer(http.HandlerFunc(v.handle))
	t.Cleanup(v.server.Close)
	return v
}

func (v *mockVenue) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for _, reply := range v.replies {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
	}
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var m map[string]any
		if json.Unmarshal(b, &m) == nil {
			v.mu.Lock()
			v.received = append(v.received, m)
			v.mu.Unlock()
		}
	}
}

func (v *mockVenue) url() string {
	return "ws" + strings.TrimPrefix(v.server.URL, "http")
}

func (v *mockVenue) waitReceived(t *testing.T, n int) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.Eventually(t, func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		out = append([]map[string]any(nil), v.received...)
		return len(out) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return out
}

func TestConnSendsProtocolMessages(t *testing.T) {
	venue := newMockVenue(t)
	ctx := context.Background()

	conn, err := New(venue.url(), time.Second, 0, nil).Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	req := models.NewOrderRequest("boom_1000", models.DirectionSell, decimal.RequireFromString("0.35"))
	require.NoError(t, conn.Authorize(ctx, "secret"))
	require.NoError(t, conn.RequestHistory(ctx, "boom_1000", 100, true))
	require.NoError(t, conn.Buy(ctx, req))

	got := venue.waitReceived(t, 3)
	assert.Equal(t, "secret", got[0]["authorize"])

	assert.Equal(t, "boom_1000", got[1]["ticks_history"])
	assert.Equal(t, 100.0, got[1]["count"])
	assert.Equal(t, "latest", got[1]["end"])
	assert.Equal(t, "ticks", got[1]["style"])
	assert.Equal(t, 1.0, got[1]["subscribe"])

	assert.Equal(t, 1.0, got[2]["buy"])
	keys := make([]string, 0, len(got[2]))
	for k := range got[2] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"buy", "parameters"}, keys)
	params := got[2]["parameters"].(map[string]any)
	assert.Equal(t, 0.35, params["amount"])
	assert.Equal(t, "stake", params["basis"])
	assert.Equal(t, "PUT", params["contract_type"])
	assert.Equal(t, "USD", params["currency"])
	assert.Equal(t, 1.0, params["duration"])
	assert.Equal(t, "m", params["duration_unit"])
	assert.Equal(t, "BOOM_1000", params["symbol"])
}

func TestRequestHistoryWithoutSubscribe(t *testing.T) {
	venue := newMockVenue(t)
	ctx := context.Background()

	conn, err := New(venue.url(), time.Second, 0, nil).Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.RequestHistory(ctx, "crash_1000", 100, false))
	got := venue.waitReceived(t, 1)
	_, ok := got[0]["subscribe"]
	assert.False(t, ok)
}

func TestConnNextDecodesFrames(t *testing.T) {
	venue := newMockVenue(t,
		`{"msg_type":"authorize","authorize":{"loginid":"VRTC1"}}`,
		`{"msg_type":"history","history":{"prices":[100.5,"101.25",102]}}`,
		`{"msg_type":"tick","tick":{"symbol":"BOOM1000","quote":103.5,"epoch":1700000000}}`,
	)
	ctx := context.Background()

	conn, err := New(venue.url(), time.Second, 0, nil).Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	msg, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.VenueOther, msg.Kind)

	msg, err = conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.VenueHistory, msg.Kind)
	assert.Equal(t, []float64{100.5, 101.25, 102}, msg.History)

	msg, err = conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.VenueTick, msg.Kind)
	assert.Equal(t, 103.5, msg.Tick.Quote)
	assert.Equal(t, int64(1700000000), msg.Tick.Epoch)
}

func TestConnNextHonoursContext(t *testing.T) {
	venue := newMockVenue(t)
	conn, err := New(venue.url(), time.Second, 0, nil).Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = conn.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialFailureIsConnectionError(t *testing.T) {
	_, err := New("ws://127.0.0.1:1/none", 200*time.Millisecond, 0, nil).Dial(context.Background())
	assert.ErrorIs(t, err, models.ErrConnection)
}

func TestCloseIsIdempotent(t *testing.T) {
	venue := newMockVenue(t)
	conn, err := New(venue.url(), time.Second, 20*time.Millisecond, nil).Dial(context.Background())
	require.NoError(t, err)

	assert.NoError(t, conn.Close())
	assert.NotPanics(t, func() { _ = conn.Close() })
}
