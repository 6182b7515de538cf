package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderTransition string

const (
	TransitionProcess OrderTransition = "process"
	TransitionShip    OrderTransition = "ship"
	TransitionDeliver OrderTransition = "deliver"
	TransitionCancel  OrderTransition = "cancel"
)

// OrderEvent is emitted once a lifecycle transition has been committed.
type OrderEvent struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Transition  OrderTransition `json:"transition"`
	Status      OrderStatus     `json:"status"`
	Type        OrderType       `json:"type"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewOrderEvent(o *Order, transition OrderTransition, now time.Time) OrderEvent {
	return OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Transition:  transition,
		Status:      o.Status,
		Type:        o.Type,
		TotalAmount: o.TotalAmount,
		OccurredAt:  now,
	}
}
