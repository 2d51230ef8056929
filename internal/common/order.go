package common

import (
	"fmt"
	"time"
)

// Order is the wire/domain-level representation of an order: what a client
// submits and what the engine tracks by UUID before translating it into the
// core book's integer-id, integer-tick representation.
type Order struct {
	UUID          string    // Client-facing order identity
	AssetType     AssetType //
	OrderType     OrderType //
	Ticker        string    // Specific asset identifier
	Side          Side      // Order side
	LimitPrice    int64     // Limit price in ticks (post-trigger limit for a stop-limit order)
	StopPrice     int64     // Trigger price in ticks; 0 for Limit/Market orders
	Quantity      uint64    // Remaining quantity
	TotalQuantity uint64    // Total volume requested
	Timestamp     time.Time // Time of arrival of order
	ExchTimestamp time.Time // Time of arrival of order into the book
	Owner         string    // Who owns this order
}

func (order Order) String() string {
	return fmt.Sprintf(
		`UUID:          %v
AssetType:     %v
OrderType:     %v
Ticker:        %s
Side:          %v
LimitPrice:    %d
StopPrice:     %d
Quantity:      %d (Total: %d)
Timestamp:     %v
ExchTimestamp: %v
Owner:         %s`,
		order.UUID,
		order.AssetType,
		order.OrderType,
		order.Ticker,
		order.Side,
		order.LimitPrice,
		order.StopPrice,
		order.Quantity,
		order.TotalQuantity,
		order.Timestamp.Format(time.RFC3339),
		order.ExchTimestamp.Format(time.RFC3339),
		order.Owner,
	)
}
