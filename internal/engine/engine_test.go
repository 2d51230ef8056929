package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
	"fenrir/internal/engine"
)

type fakeReporter struct {
	trades []common.Trade
	errs   []error
}

func (f *fakeReporter) ReportTrade(trade common.Trade) error {
	f.trades = append(f.trades, trade)
	return nil
}

func (f *fakeReporter) ReportError(owner string, err error) error {
	f.errs = append(f.errs, err)
	return nil
}

func newLimitOrder(uuid string, side common.Side, qty uint64, price int64) common.Order {
	return common.Order{
		UUID:          uuid,
		AssetType:     common.Equities,
		OrderType:     common.LimitOrder,
		Ticker:        "AAPL",
		Side:          side,
		LimitPrice:    price,
		Quantity:      qty,
		TotalQuantity: qty,
		Owner:         uuid,
	}
}

func TestPlaceLimitOrderRests(t *testing.T) {
	e := engine.New(common.Equities)
	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("a", common.Buy, 10, 50)))

	bk, ok := e.Book(common.Equities)
	require.True(t, ok)
	assert.Equal(t, int64(50), bk.GetBestBidPrice())
}

func TestPlaceOrderUnknownAsset(t *testing.T) {
	e := engine.New(common.Equities)
	err := e.PlaceOrder(common.AssetType(99), newLimitOrder("a", common.Buy, 10, 50))
	assert.ErrorIs(t, err, engine.ErrUnknownAsset)
}

func TestPlaceOrderCrossReportsFill(t *testing.T) {
	e := engine.New(common.Equities)
	r := &fakeReporter{}
	e.SetReporter(r)

	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("sell-1", common.Sell, 10, 100)))
	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("buy-1", common.Buy, 4, 100)))

	require.Len(t, r.trades, 1)
	assert.Equal(t, uint64(4), r.trades[0].MatchQty)
	assert.Equal(t, int64(100), r.trades[0].Price)
	assert.Equal(t, "buy-1", r.trades[0].Party.UUID)

	bk, _ := e.Book(common.Equities)
	assert.Equal(t, int64(100), bk.GetBestAskPrice())
	assert.Equal(t, int64(0), bk.GetBestBidPrice())
}

func TestCancelOrderByUUID(t *testing.T) {
	e := engine.New(common.Equities)
	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("a", common.Buy, 10, 50)))
	require.NoError(t, e.CancelOrder(common.Equities, "a"))

	bk, _ := e.Book(common.Equities)
	assert.Equal(t, int64(0), bk.GetBestBidPrice())
}

func TestCancelUnknownUUIDIsNoop(t *testing.T) {
	e := engine.New(common.Equities)
	assert.NoError(t, e.CancelOrder(common.Equities, "does-not-exist"))
}

func TestModifyLimitOrderRepricesByKind(t *testing.T) {
	e := engine.New(common.Equities)
	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("a", common.Buy, 10, 50)))
	require.NoError(t, e.ModifyOrder(common.Equities, "a", 10, 60, 0))

	bk, _ := e.Book(common.Equities)
	assert.Equal(t, int64(60), bk.GetBestBidPrice())
}

func TestModifyStopOrderByKind(t *testing.T) {
	e := engine.New(common.Equities)
	stop := common.Order{
		UUID:          "s",
		AssetType:     common.Equities,
		OrderType:     common.StopMarketOrder,
		Side:          common.Buy,
		StopPrice:     100,
		Quantity:      5,
		TotalQuantity: 5,
		Owner:         "s",
	}
	require.NoError(t, e.PlaceOrder(common.Equities, stop))
	require.NoError(t, e.ModifyOrder(common.Equities, "s", 5, 0, 105))

	bk, _ := e.Book(common.Equities)
	levels := bk.GetStopBuyLimits()
	require.Len(t, levels, 1)
	assert.Equal(t, int64(105), levels[0].Price)
}

func TestStopLimitTriggersAndBecomesLiveLimitOrder(t *testing.T) {
	e := engine.New(common.Equities)
	require.NoError(t, e.PlaceOrder(common.Equities, newLimitOrder("resting-sell", common.Sell, 10, 100)))

	stopLimit := common.Order{
		UUID:          "sl",
		AssetType:     common.Equities,
		OrderType:     common.StopLimitOrder,
		Side:          common.Buy,
		LimitPrice:    101,
		StopPrice:     100,
		Quantity:      15,
		TotalQuantity: 15,
		Owner:         "sl",
	}
	require.NoError(t, e.PlaceOrder(common.Equities, stopLimit))

	bk, _ := e.Book(common.Equities)
	_, isResting := bk.SearchOrder(2) // internal id assigned after the resting sell (id 1)
	require.True(t, isResting)

	// Now modify it — engine must route through ModifyLimitOrder, not
	// ModifyStopLimitOrder, since it converted to a live order on trigger.
	require.NoError(t, e.ModifyOrder(common.Equities, "sl", 5, 102, 0))
	assert.Equal(t, int64(102), bk.GetBestBidPrice())
}

func TestPlaceOrderUnknownOrderTypeIsRejected(t *testing.T) {
	e := engine.New(common.Equities)
	bad := newLimitOrder("a", common.Buy, 10, 50)
	bad.OrderType = common.OrderType(99)
	err := e.PlaceOrder(common.Equities, bad)
	assert.ErrorIs(t, err, engine.ErrUnknownOrderType)
}
