package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// levelPrices extracts the price of each level in sequence order, for
// asserting strict monotonicity without comparing whole order contents.
func levelPrices(levels []*PriceLevel) []int64 {
	prices := make([]int64, len(levels))
	for i, l := range levels {
		prices[i] = l.Price
	}
	return prices
}

// orderIDs extracts ids from a level's FIFO walk, for asserting time
// priority.
func orderIDs(level *PriceLevel) []int64 {
	ids := make([]int64, 0, level.Size)
	for _, o := range level.Orders() {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestBasicCross(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 10, 100)
	b.AddLimitOrder(2, Sell, 5, 101)
	b.AddLimitOrder(3, Buy, 12, 101)

	_, ok := b.SearchOrder(1)
	assert.False(t, ok, "order 1 should be fully filled and erased")

	o2, ok := b.SearchOrder(2)
	require.True(t, ok, "order 2 should be partially filled and resting")
	assert.EqualValues(t, 3, o2.Shares)

	_, ok = b.SearchOrder(3)
	assert.False(t, ok, "order 3 should not be resting")

	assert.EqualValues(t, 0, b.GetBestBidPrice())
	assert.EqualValues(t, 101, b.GetBestAskPrice())
	assert.EqualValues(t, 2, b.ExecutedCount())

	asks := b.GetSellLimits()
	require.Len(t, asks, 1)
	assert.EqualValues(t, 101, asks[0].Price)
	assert.EqualValues(t, 3, asks[0].TotalVolume)
}

func TestFIFOWithinLevel(t *testing.T) {
	b := New()

	b.AddLimitOrder(10, Buy, 5, 50)
	b.AddLimitOrder(11, Buy, 5, 50)
	b.AddLimitOrder(12, Sell, 7, 50)

	_, ok := b.SearchOrder(10)
	assert.False(t, ok, "order 10 should be fully filled")

	o11, ok := b.SearchOrder(11)
	require.True(t, ok)
	assert.EqualValues(t, 3, o11.Shares)

	_, ok = b.SearchOrder(12)
	assert.False(t, ok, "order 12 should not be resting")

	assert.EqualValues(t, 50, b.GetBestBidPrice())
	bids := b.GetBuyLimits()
	require.Len(t, bids, 1)
	assert.Equal(t, 1, bids[0].Size)
	assert.EqualValues(t, 3, bids[0].TotalVolume)
}

func TestModifyLosesTimePriority(t *testing.T) {
	b := New()

	b.AddLimitOrder(20, Buy, 5, 50)
	b.AddLimitOrder(21, Buy, 5, 50)

	b.ModifyLimitOrder(20, 5, 51)
	b.ModifyLimitOrder(20, 5, 50)

	level := b.buyLevels.lookupStrict(50)
	assert.Equal(t, []int64{21, 20}, orderIDs(level), "order 20 must now sit behind order 21")

	b.AddLimitOrder(99, Sell, 5, 50)

	_, ok := b.SearchOrder(21)
	assert.False(t, ok, "order 21 (now at head) should be the one filled")

	o20, ok := b.SearchOrder(20)
	require.True(t, ok, "order 20 should still be resting, untouched")
	assert.EqualValues(t, 5, o20.Shares)
}

func TestImmediateStopTrigger(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 10, 100)
	b.AddStopOrder(2, Buy, 5, 100)

	o1, ok := b.SearchOrder(1)
	require.True(t, ok)
	assert.EqualValues(t, 5, o1.Shares)

	_, ok = b.SearchOrder(2)
	assert.False(t, ok, "stop order converted and fully filled, should not be resting")

	assert.Empty(t, b.GetStopBuyLimits())
}

func TestStopCascadeSnapshotOnce(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 10, 100)
	b.AddLimitOrder(2, Sell, 10, 101)
	b.AddStopOrder(3, Buy, 5, 101)
	b.AddStopOrder(4, Buy, 5, 102)

	b.AddLimitOrder(99, Buy, 10, 100)

	assert.EqualValues(t, 101, b.GetBestAskPrice())

	// Stop@101 triggers (101 <= snapshot ask 101); stop@102 does not, since
	// the cascade reads best ask once at entry and 102 was never <= 101.
	_, ok := b.SearchOrder(3)
	assert.False(t, ok, "stop@101 should have triggered and fully filled")

	o4, ok := b.SearchOrder(4)
	require.True(t, ok, "stop@102 should not have triggered under snapshot-once semantics")
	assert.EqualValues(t, 5, o4.Shares)

	stopBuys := b.GetStopBuyLimits()
	require.Len(t, stopBuys, 1)
	assert.EqualValues(t, 102, stopBuys[0].Price)
}

func TestStopCascadeDoesNotReArmOnMovedAsk(t *testing.T) {
	b := New()

	// The stops go in while the sell side is empty: with no ask to compare
	// against they cannot trigger on arrival, so all three rest.
	b.AddStopOrder(10, Buy, 5, 100)
	b.AddStopOrder(11, Buy, 5, 102)
	b.AddStopOrder(12, Buy, 3, 103)

	b.AddLimitOrder(1, Sell, 5, 100)
	b.AddLimitOrder(2, Sell, 10, 102)
	b.AddLimitOrder(3, Sell, 10, 103)

	// Exhausts level 100 and enters the cascade with best ask pinned at 102.
	// Releasing stop@100 and stop@102 both cross against level 102 (the one
	// snapshotted ask), exhausting it; stop@103 must not fire in this pass
	// even though level 102's exhaustion moves the live best ask to 103.
	b.AddLimitOrder(99, Buy, 5, 100)

	_, ok := b.SearchOrder(10)
	assert.False(t, ok, "stop@100 should have triggered against snapshot ask 102")

	_, ok = b.SearchOrder(11)
	assert.False(t, ok, "stop@102 should have triggered against snapshot ask 102")

	o12, ok := b.SearchOrder(12)
	require.True(t, ok, "stop@103 must not trigger under the single pinned snapshot")
	assert.EqualValues(t, 3, o12.Shares)

	stopBuys := b.GetStopBuyLimits()
	require.Len(t, stopBuys, 1, "stop@100/102 consumed, only stop@103 remains resting")
	assert.EqualValues(t, 103, stopBuys[0].Price)

	assert.EqualValues(t, 103, b.GetBestAskPrice())
}

func TestCancelUnknownIsNoop(t *testing.T) {
	b := New()
	b.AddLimitOrder(1, Buy, 5, 10)

	b.CancelLimitOrder(42)

	assert.EqualValues(t, 0, b.ExecutedCount())
	o1, ok := b.SearchOrder(1)
	require.True(t, ok)
	assert.EqualValues(t, 5, o1.Shares)
}

func TestCancelAfterAddIsIdempotent(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Buy, 5, 10)
	b.CancelLimitOrder(1)

	_, ok := b.SearchOrder(1)
	assert.False(t, ok)
	assert.Empty(t, b.GetBuyLimits())
	assert.EqualValues(t, 0, b.GetBestBidPrice())
}

func TestSequenceOrdering(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Buy, 1, 10)
	b.AddLimitOrder(2, Buy, 1, 12)
	b.AddLimitOrder(3, Buy, 1, 11)
	assert.Equal(t, []int64{12, 11, 10}, levelPrices(b.GetBuyLimits()))

	b.AddLimitOrder(4, Sell, 1, 20)
	b.AddLimitOrder(5, Sell, 1, 18)
	b.AddLimitOrder(6, Sell, 1, 19)
	assert.Equal(t, []int64{18, 19, 20}, levelPrices(b.GetSellLimits()))

	// Buy stops above the best ask (18), so neither triggers on arrival.
	b.AddStopOrder(7, Buy, 1, 25)
	b.AddStopOrder(8, Buy, 1, 23)
	assert.Equal(t, []int64{23, 25}, levelPrices(b.GetStopBuyLimits()))

	b.AddStopOrder(9, Sell, 1, 5)
	b.AddStopOrder(10, Sell, 1, 7)
	assert.Equal(t, []int64{7, 5}, levelPrices(b.GetStopSellLimits()))
}

func TestMarketOrderDiscardsResidualOnExhaustedLiquidity(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 5, 100)
	b.MarketOrder(2, Buy, 10)

	assert.EqualValues(t, 1, b.ExecutedCount())
	assert.Empty(t, b.GetSellLimits())
	_, ok := b.SearchOrder(2)
	assert.False(t, ok, "unfilled residual of a market order is discarded, not rested")
}

func TestPureCrossLeavesOppositeSideEmpty(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 5, 100)
	b.AddLimitOrder(2, Sell, 5, 100)
	b.AddLimitOrder(3, Buy, 10, 100)

	assert.Empty(t, b.GetSellLimits())
	_, ok := b.SearchOrder(3)
	assert.False(t, ok)
}

func TestStopLimitConvertsAndRestsResidual(t *testing.T) {
	b := New()

	b.AddLimitOrder(1, Sell, 5, 100)
	b.AddStopLimitOrder(2, Buy, 8, 105, 100)

	_, ok := b.SearchOrder(1)
	assert.False(t, ok)

	o2, ok := b.SearchOrder(2)
	require.True(t, ok, "residual 3 shares should now rest as a live limit order at 105")
	assert.EqualValues(t, 3, o2.Shares)
	assert.EqualValues(t, 105, b.GetBestBidPrice())
}
