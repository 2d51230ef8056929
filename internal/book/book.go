package book

import "math"

// Book owns every resting Order and PriceLevel for a single instrument: the
// four price-sorted sequences (live buy, live sell, stop buy, stop sell)
// and the id index covering every resting order, live or stop.
//
// Book is not safe for concurrent use — see spec.md §5. Callers that need
// one book per instrument, or multiple producers against one book, must
// serialize externally (see internal/engine).
type Book struct {
	buyLevels      *sequence // live buy, descending by price
	sellLevels     *sequence // live sell, ascending by price
	stopBuyLevels  *sequence // stop buy, ascending by trigger price
	stopSellLevels *sequence // stop sell, descending by trigger price

	orderIndex map[int64]*Order

	// executedCount is reset to 0 on entry to every public command and
	// counts the fills that command produced.
	executedCount int
}

func New() *Book {
	return &Book{
		buyLevels:      newSequence(func(a, b *PriceLevel) bool { return a.Price > b.Price }),
		sellLevels:     newSequence(func(a, b *PriceLevel) bool { return a.Price < b.Price }),
		stopBuyLevels:  newSequence(func(a, b *PriceLevel) bool { return a.Price < b.Price }),
		stopSellLevels: newSequence(func(a, b *PriceLevel) bool { return a.Price > b.Price }),
		orderIndex:     make(map[int64]*Order),
	}
}

// ---- public command surface (spec.md §4.1) --------------------------------

// MarketOrder crosses against the opposite live side until filled or
// liquidity is exhausted; any residual is discarded. Always runs the stop
// cascade afterward.
// It returns the unfilled residual, which is not rested anywhere — purely
// informational for a caller that wants to know how much liquidity was
// missing.
func (b *Book) MarketOrder(id int64, side Side, shares uint64) uint64 {
	b.executedCount = 0
	return b.executeMarketOrder(side, shares)
}

// AddLimitOrder crosses the opposite live side for prices at or better than
// limit; any residual rests at limit on the order's own side. Runs the stop
// cascade iff at least one fill occurred. Returns the residual that ended up
// resting (0 if the order filled completely).
func (b *Book) AddLimitOrder(id int64, side Side, shares uint64, limit int64) uint64 {
	b.executedCount = 0
	return b.executeLimitOrder(id, side, shares, limit)
}

// CancelLimitOrder detaches and erases a resting live order. Unknown ids are
// a no-op.
func (b *Book) CancelLimitOrder(id int64) {
	b.cancel(id)
}

// ModifyLimitOrder detaches the order, updates its shares/price, and
// re-appends it at the tail of its (possibly new) level — always a new time
// priority, even when the price is unchanged (see DESIGN.md Open
// Questions). Always runs the stop cascade afterward, since a reprice can
// change the best bid/ask. Unknown ids are a no-op.
func (b *Book) ModifyLimitOrder(id int64, newShares uint64, newLimit int64) {
	b.executedCount = 0
	o, ok := b.orderIndex[id]
	if !ok {
		return
	}
	side := o.Side
	b.detach(o)
	o.Shares = newShares
	o.Price = newLimit
	b.ownSeq(side).lookupOrCreate(newLimit).pushBack(o)
	b.triggerStopOrders()
}

// AddStopOrder rests a stop-market order on the matching stop sequence,
// unless the current market already satisfies the trigger condition (§4.5),
// in which case it is converted immediately to a market order. Returns
// whether it triggered immediately. If it did, residual is the market
// conversion's unfilled, discarded quantity (0 if it filled completely); if
// it did not, residual is the full share count now resting as a stop.
func (b *Book) AddStopOrder(id int64, side Side, shares uint64, stop int64) (triggered bool, residual uint64) {
	b.executedCount = 0
	if b.stopTriggered(side, stop) {
		return true, b.executeMarketOrder(side, shares)
	}
	o := &Order{ID: id, Side: side, Shares: shares, Price: 0}
	b.stopSeqFor(side).lookupOrCreate(stop).pushBack(o)
	b.orderIndex[id] = o
	return false, shares
}

// AddStopLimitOrder rests a stop-limit order on the matching stop sequence,
// unless already triggered, in which case it converts immediately to a
// limit order at limit. Returns whether it triggered immediately.
func (b *Book) AddStopLimitOrder(id int64, side Side, shares uint64, limit int64, stop int64) bool {
	b.executedCount = 0
	if b.stopTriggered(side, stop) {
		b.executeLimitOrder(id, side, shares, limit)
		return true
	}
	o := &Order{ID: id, Side: side, Shares: shares, Price: limit}
	b.stopSeqFor(side).lookupOrCreate(stop).pushBack(o)
	b.orderIndex[id] = o
	return false
}

// CancelStopOrder and CancelStopLimitOrder are identical to
// CancelLimitOrder: the order's parent level already identifies which
// sequence it must be erased from.
func (b *Book) CancelStopOrder(id int64)      { b.cancel(id) }
func (b *Book) CancelStopLimitOrder(id int64) { b.cancel(id) }

// ModifyStopOrder detaches the order from its current stop sequence,
// updates its shares, and re-appends it at the level keyed by newStop on
// the same sequence as before. Unknown ids are a no-op. A resting stop
// order does not affect best bid/ask, so no cascade runs.
func (b *Book) ModifyStopOrder(id int64, newShares uint64, newStop int64) {
	b.executedCount = 0
	o, ok := b.orderIndex[id]
	if !ok {
		return
	}
	seq := b.stopSeqFor(o.Side)
	b.detach(o)
	o.Shares = newShares
	seq.lookupOrCreate(newStop).pushBack(o)
}

// ModifyStopLimitOrder is ModifyStopOrder plus an updated post-trigger
// limit price.
func (b *Book) ModifyStopLimitOrder(id int64, newShares uint64, newLimit int64, newStop int64) {
	b.executedCount = 0
	o, ok := b.orderIndex[id]
	if !ok {
		return
	}
	seq := b.stopSeqFor(o.Side)
	b.detach(o)
	o.Shares = newShares
	o.Price = newLimit
	seq.lookupOrCreate(newStop).pushBack(o)
}

// ---- inspection accessors (spec.md §6) -------------------------------------

// GetBestBidPrice returns the best live buy price, or 0 if the buy side is
// empty.
func (b *Book) GetBestBidPrice() int64 {
	price, _ := b.bestBid()
	return price
}

// GetBestAskPrice returns the best live sell price, or 0 if the sell side
// is empty.
func (b *Book) GetBestAskPrice() int64 {
	price, _ := b.bestAsk()
	return price
}

func (b *Book) GetBuyLimits() []*PriceLevel      { return b.buyLevels.Items() }
func (b *Book) GetSellLimits() []*PriceLevel     { return b.sellLevels.Items() }
func (b *Book) GetStopBuyLimits() []*PriceLevel  { return b.stopBuyLevels.Items() }
func (b *Book) GetStopSellLimits() []*PriceLevel { return b.stopSellLevels.Items() }

// SearchOrder looks up a currently resting order (live or stop) by id.
func (b *Book) SearchOrder(id int64) (*Order, bool) {
	o, ok := b.orderIndex[id]
	return o, ok
}

// ExecutedCount is the number of fills produced by the most recently
// completed command.
func (b *Book) ExecutedCount() int { return b.executedCount }

// ---- internal command bodies, shared across the public entry points -------

func (b *Book) cancel(id int64) {
	b.executedCount = 0
	o, ok := b.orderIndex[id]
	if !ok {
		return
	}
	b.detach(o)
	delete(b.orderIndex, id)
}

// executeMarketOrder implements marketOrder's full effect (cross with no
// price limit, discard residual, always cascade). Shared by MarketOrder and
// by stop-order conversion to market.
func (b *Book) executeMarketOrder(side Side, shares uint64) uint64 {
	residual := b.crossLimitOrder(side, shares, marketLimit(side))
	b.triggerStopOrders()
	return residual
}

// executeLimitOrder implements addLimitOrder's full effect (cross, rest any
// residual, cascade iff a fill occurred). Shared by AddLimitOrder and by
// stop-limit conversion to a live limit order.
func (b *Book) executeLimitOrder(id int64, side Side, shares uint64, limit int64) uint64 {
	residual := b.crossLimitOrder(side, shares, limit)
	b.restResidual(id, side, residual, limit)
	if b.executedCount > 0 {
		b.triggerStopOrders()
	}
	return residual
}

// restResidual rests shares (if any) as a live order at limit on side,
// indexing it under id. A no-op when shares is 0.
func (b *Book) restResidual(id int64, side Side, shares uint64, limit int64) {
	if shares == 0 {
		return
	}
	o := &Order{ID: id, Side: side, Shares: shares, Price: limit}
	b.ownSeq(side).lookupOrCreate(limit).pushBack(o)
	b.orderIndex[id] = o
}

// crossLimitOrder walks the opposite live sequence from the front while
// shares remain and the price gate admits the front level, filling
// head-of-queue orders in FIFO order. Returns the unfilled residual.
// Implements spec.md §4.3.
func (b *Book) crossLimitOrder(side Side, shares uint64, limitPrice int64) uint64 {
	opposite := b.oppositeSeq(side)

	for shares > 0 {
		level, ok := opposite.front()
		if !ok {
			break
		}
		if side == Buy && level.Price > limitPrice {
			break
		}
		if side == Sell && level.Price < limitPrice {
			break
		}

		for shares > 0 && level.head != nil {
			resting := level.head
			fillQty := min(shares, resting.Shares)

			resting.Shares -= fillQty
			level.TotalVolume -= fillQty
			shares -= fillQty
			b.executedCount++

			if resting.Shares == 0 {
				level.remove(resting)
				delete(b.orderIndex, resting.ID)
			}
		}

		if level.Size == 0 {
			opposite.removeIfEmpty(level)
		}
	}

	return shares
}

// triggerStopOrders implements the snapshot-once stop cascade of spec.md
// §4.4: best bid/ask are read once at entry and never re-read within this
// invocation, even though triggering a stop may itself fill orders and move
// the book.
func (b *Book) triggerStopOrders() {
	bestBid, hasBid := b.bestBid()
	bestAsk, hasAsk := b.bestAsk()

	for hasAsk {
		level, ok := b.stopBuyLevels.front()
		if !ok || level.Price > bestAsk {
			break
		}
		b.releaseStop(level, Buy)
	}

	for hasBid {
		level, ok := b.stopSellLevels.front()
		if !ok || level.Price < bestBid {
			break
		}
		b.releaseStop(level, Sell)
	}
}

// releaseStop pops the head order of a triggered stop level and crosses it
// into the live matcher directly — never through executeMarketOrder or
// executeLimitOrder. Those two cascade on their own, and triggerStopOrders is
// already mid-cascade against a single pinned best-bid/best-ask snapshot; a
// released stop fills against the live book, but whether further stops fire
// is still decided by that one snapshot, not by a fresh read every time a
// level moves.
func (b *Book) releaseStop(level *PriceLevel, side Side) {
	o := level.head
	b.detach(o)
	delete(b.orderIndex, o.ID)

	if o.Price == 0 {
		b.crossLimitOrder(side, o.Shares, marketLimit(side))
		return
	}
	residual := b.crossLimitOrder(side, o.Shares, o.Price)
	b.restResidual(o.ID, side, residual, o.Price)
}

// stopTriggered implements the immediate-trigger check of spec.md §4.5.
func (b *Book) stopTriggered(side Side, stop int64) bool {
	if side == Buy {
		ask, ok := b.bestAsk()
		return ok && stop <= ask
	}
	bid, ok := b.bestBid()
	return ok && stop >= bid
}

// detach removes o from its current PriceLevel's FIFO queue and erases the
// level from its owning sequence if that emptied it. It does not touch
// orderIndex — callers decide whether the order is being erased (cancel) or
// reattached elsewhere (modify).
func (b *Book) detach(o *Order) {
	level := o.parent
	level.remove(o)
	if level.Size == 0 {
		level.seq.removeIfEmpty(level)
	}
}

func (b *Book) bestBid() (int64, bool) {
	lvl, ok := b.buyLevels.front()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

func (b *Book) bestAsk() (int64, bool) {
	lvl, ok := b.sellLevels.front()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

func (b *Book) ownSeq(side Side) *sequence {
	if side == Buy {
		return b.buyLevels
	}
	return b.sellLevels
}

func (b *Book) oppositeSeq(side Side) *sequence {
	if side == Buy {
		return b.sellLevels
	}
	return b.buyLevels
}

func (b *Book) stopSeqFor(side Side) *sequence {
	if side == Buy {
		return b.stopBuyLevels
	}
	return b.stopSellLevels
}

// marketLimit is the price-gate sentinel a market order uses so the gate in
// crossLimitOrder never trips: +infinity for a buy, 0 for a sell (0 is
// below every valid tick price).
func marketLimit(side Side) int64 {
	if side == Buy {
		return math.MaxInt64
	}
	return 0
}
