package usecase

import (
	"context"

	"TickPulse/internal/domain/models"
	"TickPulse/pkg/logger"

	"github.com/shopspring/decimal"
)

// LoggingTracker records the take-profit and stop-loss bounds for each sent order.
// It does not follow the contract to settlement, so profit is never credited.
type LoggingTracker struct {
	takeProfit decimal.Decimal
	stopLoss   decimal.Decimal
	log        *logger.Logger
}

func NewLoggingTracker(takeProfit, stopLoss decimal.Decimal, log *logger.Logger) *LoggingTracker {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingTracker{takeProfit: takeProfit, stopLoss: stopLoss, log: log}
}

func (t *LoggingTracker) Track(_ context.Context, res models.OrderResult) {
	t.log.Info("tracking order",
		logger.String("order_id", res.Request.ID.String()),
		logger.String("symbol", res.Request.Symbol),
		logger.String("take_profit_usd", t.takeProfit.StringFixed(2)),
		logger.String("stop_loss_usd", t.stopLoss.StringFixed(2)),
		logger.Bool("confirmed", res.Confirmed))
}
