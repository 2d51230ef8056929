package book

// PriceLevel is a FIFO queue of orders resting at one integer tick, plus the
// aggregate size/volume the book tracks at that tick.
type PriceLevel struct {
	Price       int64
	Size        int
	TotalVolume uint64

	head, tail *Order
	seq        *sequence // owning sequence; set on creation, used to erase an empty level
}

// Orders returns the resting orders at this level in FIFO (arrival) order.
// It is a read-only snapshot for inspection/testing; mutating the returned
// slice does not affect the book.
func (l *PriceLevel) Orders() []*Order {
	orders := make([]*Order, 0, l.Size)
	for o := l.head; o != nil; o = o.next {
		orders = append(orders, o)
	}
	return orders
}

// pushBack appends o to the tail of the level's FIFO queue — new arrival,
// new time priority.
func (l *PriceLevel) pushBack(o *Order) {
	o.parent = l
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.Size++
	l.TotalVolume += o.Shares
}

// remove detaches o from the level's FIFO queue. o.Shares must already
// reflect its final remaining quantity (0 for a full fill, or the unchanged
// remaining amount for a cancel/reprice) — TotalVolume is decremented by
// exactly that amount.
func (l *PriceLevel) remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.prev = nil
	o.next = nil
	o.parent = nil

	l.Size--
	l.TotalVolume -= o.Shares
}
