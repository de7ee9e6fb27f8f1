package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TickPulse/internal/domain/models"
	xhttp "TickPulse/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	path   string
	chatID string
	text   string
}

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "TOKEN", xhttp.NewClient(xhttp.WithTimeout(5*time.Second)), nil, 0, nil)
}

func TestSendPostsForm(t *testing.T) {
	var mu sync.Mutex
	var got []sent
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		got = append(got, sent{path: r.URL.Path, chatID: r.PostForm.Get("chat_id"), text: r.PostForm.Get("text")})
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	require.NoError(t, c.Send(context.Background(), "42", "🤖 Bot started"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "/botTOKEN/sendMessage", got[0].path)
	assert.Equal(t, "42", got[0].chatID)
	assert.Equal(t, "🤖 Bot started", got[0].text)
}

func TestSendChunksLongText(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "TOKEN", xhttp.NewClient(), nil, 10, nil)
	require.NoError(t, c.Send(context.Background(), "1", strings.Repeat("a", 25)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"aaaaaaaaaa", "aaaaaaaaaa", "aaaaa"}, texts)
}

func TestSendReportsAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	err := c.Send(context.Background(), "0", "hi")
	require.ErrorIs(t, err, models.ErrProtocol)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestPollParsesUpdates(t *testing.T) {
	queries := make(chan map[string][]string, 1)
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		assert.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"text":"/status","chat":{"id":12345}}},
			{"update_id":8,"edited_message":{"text":"ignored"}}
		]}`))
	})

	cmds, err := c.Poll(context.Background(), 7, 100*time.Second)
	require.NoError(t, err)

	query := <-queries
	assert.Equal(t, []string{"100"}, query["timeout"])
	assert.Equal(t, []string{"7"}, query["offset"])
	require.Len(t, cmds, 2)
	assert.Equal(t, models.Command{ID: 7, Text: "/status", ChatID: "12345"}, cmds[0])
	assert.Equal(t, models.Command{ID: 8}, cmds[1])
}

func TestPollOmitsZeroOffset(t *testing.T) {
	offsets := make(chan bool, 1)
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["offset"]
		offsets <- ok
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	})

	cmds, err := c.Poll(context.Background(), 0, time.Second)
	require.NoError(t, err)
	assert.Empty(t, cmds)
	assert.False(t, <-offsets)
}

func TestPollNotOK(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Conflict"}`))
	})

	_, err := c.Poll(context.Background(), 0, time.Second)
	assert.ErrorIs(t, err, models.ErrProtocol)
}

func TestPollTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "TOKEN", xhttp.NewClient(xhttp.WithTimeout(time.Second)), nil, 0, nil)
	_, err := c.Poll(context.Background(), 0, time.Second)
	assert.ErrorIs(t, err, models.ErrTransport)
}
