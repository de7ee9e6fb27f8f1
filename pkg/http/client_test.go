package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSendsFormAndDecodesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hi there", r.PostForm.Get("text"))
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := NewClient().Do(context.Background(), Call{
		Method: http.MethodPost,
		URL:    srv.URL + "/send",
		Form:   url.Values{"chat_id": {"42"}, "text": {"hi there"}},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestDoMergesQueryAndDefaultsToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "a", r.URL.Query().Get("keep"))
		assert.Equal(t, "30", r.URL.Query().Get("timeout"))
		assert.Equal(t, "ua-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(WithUserAgent("ua-test")).Do(context.Background(), Call{
		URL:   srv.URL + "/poll?keep=a",
		Query: url.Values{"timeout": {"30"}},
	}, nil)
	require.NoError(t, err)
}

func TestDoReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"ok":false,"description":"slow down"}`)
	}))
	defer srv.Close()

	err := NewClient().Do(context.Background(), Call{URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, string(se.Body), "slow down")
}

func TestDoRejectsTwoBodies(t *testing.T) {
	err := NewClient().Do(context.Background(), Call{
		URL:  "http://127.0.0.1:1",
		Form: url.Values{"a": {"1"}},
		JSON: map[string]int{"a": 1},
	}, nil)
	require.Error(t, err)
}
