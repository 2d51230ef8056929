// Package render turns a book.Book's read-only inspection accessors into
// depth-of-book text, the pretty-printing spec.md keeps out of the core
// matching logic entirely.
package render

import (
	"fmt"
	"strings"

	"fenrir/internal/book"
)

// Depth renders up to levels price levels on each side of b, each side's
// best price closest to the spread: sells print worst-first, buys
// best-first. Live orders are rendered first, followed
// by the resting stop book (stop levels print the arming price, not a
// tradeable price).
func Depth(b *book.Book, levels int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "bid %d | ask %d\n", b.GetBestBidPrice(), b.GetBestAskPrice())

	sb.WriteString("-- sells --\n")
	writeLevels(&sb, reversed(b.GetSellLimits(), levels))
	sb.WriteString("-- buys --\n")
	writeLevels(&sb, truncated(b.GetBuyLimits(), levels))

	if stopBuys := b.GetStopBuyLimits(); len(stopBuys) > 0 {
		sb.WriteString("-- stop buys --\n")
		writeLevels(&sb, truncated(stopBuys, levels))
	}
	if stopSells := b.GetStopSellLimits(); len(stopSells) > 0 {
		sb.WriteString("-- stop sells --\n")
		writeLevels(&sb, truncated(stopSells, levels))
	}

	return sb.String()
}

func writeLevels(sb *strings.Builder, ls []*book.PriceLevel) {
	for _, l := range ls {
		fmt.Fprintf(sb, "%8d  %6d shares  %2d orders\n", l.Price, l.TotalVolume, l.Size)
	}
}

// truncated returns the first n levels of ls (the sequences are already
// best-first), or all of them if ls is shorter than n.
func truncated(ls []*book.PriceLevel, n int) []*book.PriceLevel {
	if n <= 0 || n > len(ls) {
		return ls
	}
	return ls[:n]
}

// reversed returns the first n levels of ls in reverse order, so the worst
// price prints first and the best (closest to the spread) prints last, right
// above the buy side.
func reversed(ls []*book.PriceLevel, n int) []*book.PriceLevel {
	ls = truncated(ls, n)
	out := make([]*book.PriceLevel, len(ls))
	for i, l := range ls {
		out[len(ls)-1-i] = l
	}
	return out
}
