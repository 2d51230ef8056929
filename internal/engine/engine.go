// Package engine wires spec.md's single-instrument book (internal/book)
// into a multi-asset harness: it assigns every inbound wire-level order a
// stable engine id, tracks the uuid a client knows an order by, and reports
// fills and errors through a Reporter.
package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/common"
)

var (
	ErrUnknownAsset     = errors.New("unknown asset type")
	ErrUnknownOrder     = errors.New("unknown order uuid")
	ErrUnknownOrderType = errors.New("unknown order type")
)

// Reporter is how the engine surfaces fills and errors to whatever is
// driving it — the TCP server in production, a fake in tests.
type Reporter interface {
	ReportTrade(trade common.Trade) error
	ReportError(owner string, err error) error
}

// Engine owns one book.Book per supported asset type. A book.Book is not
// safe for concurrent use (spec.md §5); the engine itself does no internal
// locking either — callers (internal/net's single session-handler
// goroutine) are responsible for only ever calling into one Engine from one
// goroutine at a time.
type Engine struct {
	books    map[common.AssetType]*book.Book
	reporter Reporter

	nextID    int64
	idByUUID  map[string]int64
	uuidByID  map[int64]string
	ownerByID map[int64]string

	// kindByID tracks what a resting order currently *is* — not what it
	// was submitted as. A stop order that has triggered and rests with a
	// residual is tracked as common.LimitOrder from that point on, since
	// ModifyOrder/CancelOrder now need to treat it as a live order.
	kindByID map[int64]common.OrderType
}

func New(assetTypes ...common.AssetType) *Engine {
	books := make(map[common.AssetType]*book.Book, len(assetTypes))
	for _, a := range assetTypes {
		books[a] = book.New()
	}
	return &Engine{
		books:     books,
		idByUUID:  make(map[string]int64),
		uuidByID:  make(map[int64]string),
		ownerByID: make(map[int64]string),
		kindByID:  make(map[int64]common.OrderType),
	}
}

// SetReporter installs the destination for trade/error reports. Kept as a
// separate setter (rather than a constructor argument) so the net.Server and
// the Engine can be constructed in either order, matching the teacher's
// cmd/server wiring.
func (e *Engine) SetReporter(r Reporter) {
	e.reporter = r
}

func (e *Engine) assignID(order *common.Order) int64 {
	id := atomic.AddInt64(&e.nextID, 1)
	e.idByUUID[order.UUID] = id
	e.uuidByID[id] = order.UUID
	e.ownerByID[id] = order.Owner
	return id
}

func (e *Engine) forgetID(id int64) {
	uuid, ok := e.uuidByID[id]
	if !ok {
		return
	}
	delete(e.uuidByID, id)
	delete(e.idByUUID, uuid)
	delete(e.ownerByID, id)
	delete(e.kindByID, id)
}

// PlaceOrder assigns order a fresh engine id, dispatches it to the book for
// its asset type, and reports the resulting fill (if any) through the
// configured Reporter.
func (e *Engine) PlaceOrder(assetType common.AssetType, order common.Order) error {
	bk, ok := e.books[assetType]
	if !ok {
		return ErrUnknownAsset
	}

	id := e.assignID(&order)
	side := toBookSide(order.Side)

	var remaining uint64
	switch order.OrderType {
	case common.MarketOrder:
		remaining = bk.MarketOrder(id, side, order.Quantity)
		e.forgetID(id) // a market order never rests; nothing to look up later
	case common.LimitOrder:
		remaining = bk.AddLimitOrder(id, side, order.Quantity, order.LimitPrice)
		if remaining == 0 {
			e.forgetID(id)
		} else {
			e.kindByID[id] = common.LimitOrder
		}
	case common.StopMarketOrder:
		triggered, residual := bk.AddStopOrder(id, side, order.Quantity, order.StopPrice)
		switch {
		case !triggered:
			remaining = residual // resting untouched: nothing filled
			e.kindByID[id] = common.StopMarketOrder
		case residual == 0:
			remaining = 0
			e.forgetID(id)
		default:
			// Triggered and converted to a market order; the remainder was
			// discarded per spec.md, not rested — nothing left to track.
			remaining = residual
			e.forgetID(id)
		}
	case common.StopLimitOrder:
		triggered := bk.AddStopLimitOrder(id, side, order.Quantity, order.LimitPrice, order.StopPrice)
		if resting, ok := bk.SearchOrder(id); ok {
			remaining = resting.Shares
			if triggered {
				e.kindByID[id] = common.LimitOrder // triggered: now a live resting limit order
			} else {
				e.kindByID[id] = common.StopLimitOrder
			}
		} else {
			e.forgetID(id)
		}
	default:
		e.forgetID(id)
		return ErrUnknownOrderType
	}

	filled := order.Quantity - remaining
	if filled > 0 {
		log.Info().
			Str("uuid", order.UUID).
			Str("side", order.Side.String()).
			Uint64("filled", filled).
			Int64("price", order.LimitPrice).
			Msg("order filled")
		e.reportFill(order, filled)
	}
	return nil
}

// CancelOrder cancels a resting order by the uuid the client knows it by.
// Per spec.md §6, an unknown id is a no-op, not an error — this mirrors
// that at the uuid layer too.
func (e *Engine) CancelOrder(assetType common.AssetType, uuid string) error {
	bk, ok := e.books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	id, ok := e.idByUUID[uuid]
	if !ok {
		return nil
	}
	bk.CancelLimitOrder(id)
	bk.CancelStopOrder(id)
	bk.CancelStopLimitOrder(id)
	e.forgetID(id)
	return nil
}

// ModifyOrder reprices/resizes a resting order by uuid. newLimit/newStop are
// interpreted according to the order's current kind (kindByID): a stop-limit
// order that has triggered and rests is modified as a limit order.
func (e *Engine) ModifyOrder(assetType common.AssetType, uuid string, newQuantity uint64, newLimit, newStop int64) error {
	bk, ok := e.books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	id, ok := e.idByUUID[uuid]
	if !ok {
		return nil
	}

	if _, ok := bk.SearchOrder(id); !ok {
		return nil
	}

	switch e.kindByID[id] {
	case common.LimitOrder:
		bk.ModifyLimitOrder(id, newQuantity, newLimit)
	case common.StopMarketOrder:
		bk.ModifyStopOrder(id, newQuantity, newStop)
	case common.StopLimitOrder:
		bk.ModifyStopLimitOrder(id, newQuantity, newLimit, newStop)
	default:
		return ErrUnknownOrder
	}
	return nil
}

// LogBook logs a one-line summary of every book (best bid/ask and the level
// count of each of the four sequences) through zerolog — spec.md §1 explicitly keeps book-state pretty-printing out of
// the core, so this only ever reads the inspection accessors.
func (e *Engine) LogBook() {
	for assetType, bk := range e.books {
		log.Info().
			Int("assetType", int(assetType)).
			Int64("bestBid", bk.GetBestBidPrice()).
			Int64("bestAsk", bk.GetBestAskPrice()).
			Int("buyLevels", len(bk.GetBuyLimits())).
			Int("sellLevels", len(bk.GetSellLimits())).
			Int("stopBuyLevels", len(bk.GetStopBuyLimits())).
			Int("stopSellLevels", len(bk.GetStopSellLimits())).
			Msg("book snapshot")
	}
}

// Book exposes the underlying book.Book for an asset type, for callers (such
// as tests) that need direct read access to the inspection accessors.
func (e *Engine) Book(assetType common.AssetType) (*book.Book, bool) {
	bk, ok := e.books[assetType]
	return bk, ok
}

func (e *Engine) reportFill(order common.Order, filled uint64) {
	if e.reporter == nil {
		return
	}
	trade := common.Trade{
		Party:     &order,
		Timestamp: time.Now(),
		MatchQty:  filled,
		Price:     order.LimitPrice,
	}
	if err := e.reporter.ReportTrade(trade); err != nil {
		log.Error().Err(err).Str("uuid", order.UUID).Msg("failed to report trade")
	}
}

func toBookSide(s common.Side) book.Side {
	if s == common.Sell {
		return book.Sell
	}
	return book.Buy
}
