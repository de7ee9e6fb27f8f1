package api

import (
	"context"
	"crypto/subtle"

	"TickPulse/internal/domain/models"
	"TickPulse/internal/usecase"
	xhttp "TickPulse/pkg/http"
	xlogger "TickPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// AgentController is the agent surface the operator API needs.
type AgentController interface {
	Sessions() []usecase.SessionStatus
	SetRunning(ctx context.Context, running bool) models.ControlSnapshot
	Snapshot() models.ControlSnapshot
}

// ControlRequest toggles trading.
type ControlRequest struct {
	Action string `json:"action" validate:"required,oneof=pause resume"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Control  models.ControlSnapshot  `json:"control"`
	Sessions []usecase.SessionStatus `json:"sessions"`
}

// ControlEchoHandler serves health, status and, when a token is set, pause/resume.
type ControlEchoHandler struct {
	logger *xlogger.Logger
	agent  AgentController
	token  string
}

// NewControlEchoHandler mounts POST /api/control only for a non-empty token.
func NewControlEchoHandler(logger *xlogger.Logger, agent AgentController, token string) *ControlEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ControlEchoHandler{logger: logger, agent: agent, token: token}
}

func (h *ControlEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/status", h.Status)
	if h.token == "" {
		h.logger.Info("operator api is read-only, no control token configured")
		return
	}
	g.POST("/control", h.Control, h.requireToken())
}

// requireToken checks an `Authorization: Bearer <token>` header.
func (h *ControlEchoHandler) requireToken() echo.MiddlewareFunc {
	want := []byte(h.token)
	return echomw.KeyAuthWithConfig(echomw.KeyAuthConfig{
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), want) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			h.logger.Warn("control request rejected", xlogger.String("remote", c.RealIP()), xlogger.Error(err))
			return xhttp.Fail(c, xhttp.Unauthorized("missing or invalid control token"))
		},
	})
}

// Health reports 503 once every session has failed for good.
func (h *ControlEchoHandler) Health(c echo.Context) error {
	sessions := h.agent.Sessions()
	failed := 0
	for _, s := range sessions {
		if s.State == usecase.StateFailed {
			failed++
		}
	}
	if len(sessions) > 0 && failed == len(sessions) {
		return xhttp.Fail(c, xhttp.Unavailable("all %d stream sessions failed", failed))
	}
	return xhttp.OK(c, map[string]string{"status": "ok"})
}

func (h *ControlEchoHandler) Status(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.OK(c, StatusResponse{
		Control:  h.agent.Snapshot(),
		Sessions: h.agent.Sessions(),
	})
}

func (h *ControlEchoHandler) Control(c echo.Context) error {
	req := &ControlRequest{}
	if verr := xhttp.BindRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}

	// The relay applies the toggle and replies in chat.
	snap := h.agent.SetRunning(c.Request().Context(), req.Action == "resume")
	h.logger.Info("trading toggled over http",
		xlogger.String("action", req.Action),
		xlogger.Bool("running", snap.Running),
	)
	return xhttp.OK(c, snap)
}
