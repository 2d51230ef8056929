package common

import (
	"fmt"
	"time"
)

// Trade reports a fill from the taking order's point of view. The core book
// (internal/book) never tracks which resting orders a command actually
// matched against — only the aggregate residual — so a Trade describes "this
// order got filled this much", not a two-party match. Price is the taking
// order's own limit price as submitted, not the price of the resting levels
// it actually filled against.
type Trade struct {
	Party     *Order
	Timestamp time.Time
	MatchQty  uint64
	Price     int64
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`Party: [
%s]
Timestamp:      %v
MatchQty:       %d
Price:          %d`,
		t.Party.String(),
		t.Timestamp.Format(time.RFC3339),
		t.MatchQty,
		t.Price,
	)
}
