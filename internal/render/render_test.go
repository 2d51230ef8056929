package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"fenrir/internal/book"
	"fenrir/internal/render"
)

func TestDepthShowsBestPricesAndVolume(t *testing.T) {
	b := book.New()
	b.AddLimitOrder(1, book.Sell, 10, 100)
	b.AddLimitOrder(2, book.Sell, 5, 101)
	b.AddLimitOrder(3, book.Buy, 7, 99)

	out := render.Depth(b, 10)

	assert.Contains(t, out, "bid 99 | ask 100")
	assert.Contains(t, out, "10 shares")
	sells := out[strings.Index(out, "-- sells --"):]
	assert.True(t, strings.Index(sells, "101") < strings.Index(sells, "100"), "worse sell price should print above the better one")
	assert.Contains(t, out, "-- buys --")
}

func TestDepthWithNoStopsOmitsStopSections(t *testing.T) {
	b := book.New()
	b.AddLimitOrder(1, book.Buy, 5, 50)

	out := render.Depth(b, 10)

	assert.NotContains(t, out, "stop buys")
	assert.NotContains(t, out, "stop sells")
}

func TestDepthLevelsLimit(t *testing.T) {
	b := book.New()
	for i := int64(0); i < 5; i++ {
		b.AddLimitOrder(i+1, book.Buy, 1, 100-i)
	}

	out := render.Depth(b, 2)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	buyLines := 0
	inBuys := false
	for _, l := range lines {
		if l == "-- buys --" {
			inBuys = true
			continue
		}
		if strings.HasPrefix(l, "--") {
			inBuys = false
		}
		if inBuys {
			buyLines++
		}
	}
	assert.Equal(t, 2, buyLines)
}
