package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
	"TickPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultReadLimit        = 1 << 20
)

// Dialer opens Deriv websocket connections. Every Dial yields an independent connection.
type Dialer struct {
	url              string
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	log              *logger.Logger
}

// New creates a Dialer for the venue URL. pingInterval <= 0 disables the keepalive loop.
func New(url string, handshakeTimeout, pingInterval time.Duration, log *logger.Logger) *Dialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dialer{
		url:              url,
		handshakeTimeout: handshakeTimeout,
		pingInterval:     pingInterval,
		log:              log,
	}
}

// Dial connects to the venue. Failures wrap models.ErrConnection.
func (d *Dialer) Dial(ctx context.Context) (drepo.VenueConn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: d.handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: deriv dial: %v", models.ErrConnection, err)
	}
	ws.SetReadLimit(defaultReadLimit)

	c := &Conn{ws: ws, log: d.log, done: make(chan struct{})}
	if d.pingInterval > 0 {
		go c.keepalive(d.pingInterval)
	}
	return c, nil
}

// Conn is one venue conversation. Writes are serialised; Next must be called from a single goroutine.
type Conn struct {
	ws        *websocket.Conn
	log       *logger.Logger
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

type historyRequest struct {
	TicksHistory string `json:"ticks_history"`
	Count        int    `json:"count"`
	End          string `json:"end"`
	Style        string `json:"style"`
	Subscribe    int    `json:"subscribe,omitempty"`
}

type buyParameters struct {
	Amount       float64 `json:"amount"`
	Basis        string  `json:"basis"`
	ContractType string  `json:"contract_type"`
	Currency     string  `json:"currency"`
	Duration     int     `json:"duration"`
	DurationUnit string  `json:"duration_unit"`
	Symbol       string  `json:"symbol"`
}

type buyRequest struct {
	Buy        int           `json:"buy"`
	Parameters buyParameters `json:"parameters"`
}

// Authorize sends the authorize message without waiting for the venue's reply.
func (c *Conn) Authorize(ctx context.Context, token string) error {
	if err := c.write(ctx, map[string]string{"authorize": token}); err != nil {
		return fmt.Errorf("%w: %w", models.ErrAuth, err)
	}
	return nil
}

// RequestHistory asks for the last count ticks of symbol, optionally subscribing to live ticks.
func (c *Conn) RequestHistory(ctx context.Context, symbol string, count int, subscribe bool) error {
	req := historyRequest{
		TicksHistory: symbol,
		Count:        count,
		End:          "latest",
		Style:        "ticks",
	}
	if subscribe {
		req.Subscribe = 1
	}
	return c.write(ctx, req)
}

// Buy sends a buy for req. The contract confirmation is not awaited.
func (c *Conn) Buy(ctx context.Context, req models.OrderRequest) error {
	amount := req.Stake.InexactFloat64()
	return c.write(ctx, buyRequest{
		Buy: 1,
		Parameters: buyParameters{
			Amount:       amount,
			Basis:        req.Basis,
			ContractType: req.ContractType,
			Currency:     req.Currency,
			Duration:     req.Duration,
			DurationUnit: req.DurationUnit,
			Symbol:       strings.ToUpper(req.Symbol),
		},
	})
}

// Next blocks for the next inbound frame. Cancelling ctx unblocks the read.
func (c *Conn) Next(ctx context.Context) (*models.VenueMessage, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	_, b, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: deriv read: %v", models.ErrTransport, err)
	}
	return Decode(b)
}

// Close closes the connection once; later calls are no-ops.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) write(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("deriv encode: %w", err)
	}

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("%w: deriv write: %v", models.ErrTransport, err)
	}
	return nil
}

// keepalive sends the venue's application-level ping so idle connections are not dropped.
func (c *Conn) keepalive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(context.Background(), map[string]int{"ping": 1}); err != nil {
				c.log.Debug("deriv keepalive failed", logger.Error(err))
				return
			}
		}
	}
}
