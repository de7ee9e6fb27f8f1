package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a binary option entry.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ContractType is the venue contract for a direction: buy -> CALL, sell -> PUT.
func (d Direction) ContractType() string {
	if d == DirectionSell {
		return "PUT"
	}
	return "CALL"
}

// OrderRequest describes a single short-duration order. Built fresh for every trade.
type OrderRequest struct {
	ID           uuid.UUID
	Symbol       string
	Direction    Direction
	ContractType string
	Stake        decimal.Decimal
	Basis        string
	Currency     string
	Duration     int
	DurationUnit string
}

// NewOrderRequest builds the fixed one-minute USD stake order for symbol and direction.
func NewOrderRequest(symbol string, dir Direction, stake decimal.Decimal) OrderRequest {
	return OrderRequest{
		ID:           uuid.New(),
		Symbol:       symbol,
		Direction:    dir,
		ContractType: dir.ContractType(),
		Stake:        stake,
		Basis:        "stake",
		Currency:     "USD",
		Duration:     1,
		DurationUnit: "m",
	}
}

type OrderStatus string

const (
	OrderStatusSent   OrderStatus = "sent"
	OrderStatusFailed OrderStatus = "failed"
)

// OrderResult is the outcome of a submission attempt.
// Confirmed is always false: the venue's buy response is never awaited.
type OrderResult struct {
	Request   OrderRequest
	Status    OrderStatus
	Confirmed bool
	Err       error
	SentAt    time.Time
}

// OK reports whether the buy request left the process.
func (r OrderResult) OK() bool { return r.Status == OrderStatusSent }
