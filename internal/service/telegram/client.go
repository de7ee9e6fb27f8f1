package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TickPulse/internal/domain/models"
	"TickPulse/internal/service/ratelimit"
	xhttp "TickPulse/pkg/http"
	"TickPulse/pkg/logger"
	"TickPulse/pkg/util"
)

const DefaultMaxMessageLen = 4000

// Client talks to the Telegram Bot API. It implements both Notifier and CommandSource.
type Client struct {
	http    *xhttp.Client
	baseURL string
	limiter *ratelimit.Limiter
	maxLen  int
	log     *logger.Logger
}

// New creates a client for the bot identified by token. A nil limiter disables send pacing.
func New(apiBase, token string, hc *xhttp.Client, limiter *ratelimit.Limiter, maxLen int, log *logger.Logger) *Client {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 1)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(apiBase, "/") + "/bot" + token,
		limiter: limiter,
		maxLen:  maxLen,
		log:     log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Send posts text to destination, split into chunks the API accepts and paced per chat.
func (c *Client) Send(ctx context.Context, destination, text string) error {
	for _, chunk := range util.SplitChunks(text, c.maxLen) {
		if err := c.limiter.Wait(ctx, destination); err != nil {
			return err
		}
		call := xhttp.Call{
			Method: http.MethodPost,
			URL:    c.baseURL + "/sendMessage",
			Form:   url.Values{"chat_id": {destination}, "text": {chunk}},
		}
		if _, err := c.call(ctx, call); err != nil {
			return fmt.Errorf("telegram sendMessage: %w", err)
		}
	}
	return nil
}

// Poll long-polls getUpdates from cursor. Every update becomes a Command, including
// those without a text message, so the caller's cursor always advances past them.
func (c *Client) Poll(ctx context.Context, cursor int64, timeout time.Duration) ([]models.Command, error) {
	query := url.Values{"timeout": {strconv.Itoa(int(timeout / time.Second))}}
	if cursor != 0 {
		query.Set("offset", strconv.FormatInt(cursor, 10))
	}

	raw, err := c.call(ctx, xhttp.Call{URL: c.baseURL + "/getUpdates", Query: query})
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	var updates []update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w: %v", models.ErrProtocol, err)
	}

	cmds := make([]models.Command, 0, len(updates))
	for _, u := range updates {
		cmd := models.Command{ID: u.UpdateID}
		if u.Message != nil {
			cmd.Text = u.Message.Text
			if u.Message.Chat.ID != 0 {
				cmd.ChatID = strconv.FormatInt(u.Message.Chat.ID, 10)
			}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (c *Client) call(ctx context.Context, call xhttp.Call) (json.RawMessage, error) {
	start := time.Now()
	var resp apiResponse
	err := c.http.Do(ctx, call, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Telegram reports API errors with a JSON body and a 4xx status.
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			if json.Unmarshal(se.Body, &resp) == nil && resp.Description != "" {
				return nil, fmt.Errorf("%w: %s", models.ErrProtocol, resp.Description)
			}
			return nil, fmt.Errorf("%w: %v", models.ErrProtocol, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", models.ErrProtocol, resp.Description)
	}
	c.log.Debug("telegram call", logger.String("method", strings.TrimPrefix(call.URL, c.baseURL)), logger.Duration("took", time.Since(start)))
	return resp.Result, nil
}
