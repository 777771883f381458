package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// OrderStatus is the status of a storefront order as recorded by the source system
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 0
	OrderStatusCompleted OrderStatus = 1
	OrderStatusCancelled OrderStatus = 2
	OrderStatusRefunded  OrderStatus = 3
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusCompleted:
		return "completed"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRefunded:
		return "refunded"
	}
	return "unknown"
}

// Billable reports whether a document may still be issued for the order.
func (s OrderStatus) Billable() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = OrderStatus(i)
		return nil
	}
	switch str {
	case "pending":
		*s = OrderStatusPending
	case "completed":
		*s = OrderStatusCompleted
	case "cancelled":
		*s = OrderStatusCancelled
	case "refunded":
		*s = OrderStatusRefunded
	}
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	}
	return nil
}
