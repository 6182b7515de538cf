package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusDelayed is never stored; see Order.DisplayStatus.
	OrderStatusDelayed OrderStatus = "DELAYED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusDelayed,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusDelayed:
		return st, nil
	}
	return "", InvalidArgumentf("Invalid order status: %s", s)
}

type OrderType string

const (
	OrderTypePurchase OrderType = "PURCHASE"
	OrderTypeSale     OrderType = "SALE"
	OrderTypeTransfer OrderType = "TRANSFER"
)

var OrderTypes = []OrderType{OrderTypePurchase, OrderTypeSale, OrderTypeTransfer}

func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(strings.ToUpper(strings.TrimSpace(s))); t {
	case OrderTypePurchase, OrderTypeSale, OrderTypeTransfer:
		return t, nil
	}
	return "", InvalidArgumentf("Invalid order type: %s", s)
}

func (t *OrderType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return InvalidArgumentf("Invalid order type")
	}
	parsed, err := ParseOrderType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) Validate() error {
	switch {
	case i.ProductID <= 0:
		return InvalidArgumentf("Product is required")
	case i.Quantity < 1:
		return InvalidArgumentf("Quantity must be at least 1")
	case i.Quantity > MaxQuantity:
		return InvalidArgumentf("Quantity cannot exceed %d", MaxQuantity)
	}
	return checkMoney("Unit price", i.UnitPrice)
}

type Order struct {
	ID                   int64           `json:"id"`
	OrderNumber          string          `json:"orderNumber"`
	Status               OrderStatus     `json:"status"`
	Type                 OrderType       `json:"type"`
	SupplierID           *int64          `json:"supplierId,omitempty"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	OrderDate            time.Time       `json:"orderDate"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time      `json:"actualDeliveryDate,omitempty"`
	Items                []OrderItem     `json:"orderItems"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func NewOrder(orderType OrderType, supplierID *int64, now time.Time) *Order {
	return &Order{
		OrderNumber: NewOrderNumber(now),
		Status:      OrderStatusPending,
		Type:        orderType,
		SupplierID:  supplierID,
		TotalAmount: decimal.Zero,
		OrderDate:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewOrderNumber keeps the millisecond prefix readable and adds a random
// suffix so two orders created in the same millisecond do not collide.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

func (o *Order) CalculateTotalAmount(now time.Time) {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	o.TotalAmount = total
	o.UpdatedAt = now
}

// ValidateTotal checks that the summed total still fits the stored amount.
func (o Order) ValidateTotal() error {
	if o.TotalAmount.GreaterThanOrEqual(MaxMoney) {
		return InvalidArgumentf("Order total must be less than %s", MaxMoney.String())
	}
	return nil
}

func (o *Order) AddItem(item OrderItem, now time.Time) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.CalculateTotalAmount(now)
}

// RemoveItem drops the line item with the given id and reports whether it
// was present.
func (o *Order) RemoveItem(itemID int64, now time.Time) bool {
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i:i], o.Items[i+1:]...)
			o.CalculateTotalAmount(now)
			return true
		}
	}
	return false
}

func (o *Order) ReplaceItems(items []OrderItem, now time.Time) {
	o.Items = make([]OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}
	o.CalculateTotalAmount(now)
}

func (o Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsDelayed holds when the expected delivery date has passed, nothing was
// delivered yet and the order did not end in a terminal state.
func (o Order) IsDelayed(now time.Time) bool {
	if o.ExpectedDeliveryDate == nil || o.ActualDeliveryDate != nil {
		return false
	}
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return now.After(*o.ExpectedDeliveryDate)
}

func (o Order) DisplayStatus(now time.Time) OrderStatus {
	if o.IsDelayed(now) {
		return OrderStatusDelayed
	}
	return o.Status
}

// Confirm moves a pending order to CONFIRMED.
func (o *Order) Confirm(now time.Time) error {
	switch o.Status {
	case OrderStatusPending:
		o.Status = OrderStatusConfirmed
		o.UpdatedAt = now
		return nil
	case OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return InvalidStatef("Order must be pending to be processed (current status: %s)", o.Status)
	}
	return InvalidStatef("Unknown order status: %s", o.Status)
}

func (o *Order) Ship(now time.Time) error {
	switch o.Status {
	case OrderStatusConfirmed:
		o.Status = OrderStatusShipped
		o.UpdatedAt = now
		return nil
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return InvalidStatef("Order must be confirmed before shipping")
	}
	return InvalidStatef("Unknown order status: %s", o.Status)
}

func (o *Order) Deliver(now time.Time) error {
	switch o.Status {
	case OrderStatusShipped:
		o.Status = OrderStatusDelivered
		delivered := now
		o.ActualDeliveryDate = &delivered
		o.UpdatedAt = now
		return nil
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return InvalidStatef("Order must be shipped before delivery")
	}
	return InvalidStatef("Unknown order status: %s", o.Status)
}

// Cancel returns whether stock reserved by the order has to be restored,
// which is the case for sale orders that already left PENDING.
func (o *Order) Cancel(now time.Time) (restoreStock bool, err error) {
	switch o.Status {
	case OrderStatusDelivered:
		return false, InvalidStatef("Cannot cancel delivered order")
	case OrderStatusCancelled:
		return false, InvalidStatef("Order is already cancelled")
	case OrderStatusPending:
		restoreStock = false
	case OrderStatusConfirmed, OrderStatusShipped:
		restoreStock = o.Type == OrderTypeSale
	default:
		return false, InvalidStatef("Unknown order status: %s", o.Status)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return restoreStock, nil
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Delayed       bool        `json:"delayed"`
		DisplayStatus OrderStatus `json:"displayStatus"`
	}{
		plain:         plain(o),
		Delayed:       o.IsDelayed(time.Now()),
		DisplayStatus: o.DisplayStatus(time.Now()),
	})
}
