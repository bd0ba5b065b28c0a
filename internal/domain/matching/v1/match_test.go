package v1

import (
	"math"
	"testing"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func histOffer(id string, price float64, qty int64) *marketv1.Event {
	return marketv1.NewOffer(id, "hist", "VOD.L", marketv1.OrderTypeLimit, price, qty, testTime)
}

func histBid(id string, price float64, qty int64) *marketv1.Event {
	return marketv1.NewBid(id, "hist", "VOD.L", marketv1.OrderTypeLimit, price, qty, testTime)
}

func clientBid(id string, orderType marketv1.OrderType, price float64, qty int64) *marketv1.Event {
	return marketv1.NewBid(id, "client", "VOD.L", orderType, price, qty, testTime)
}

func clientOffer(id string, orderType marketv1.OrderType, price float64, qty int64) *marketv1.Event {
	return marketv1.NewOffer(id, "client", "VOD.L", orderType, price, qty, testTime)
}

func TestMatchBid_PartialFill(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2049, 60))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2049, 100), offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindPartialFill, fill.Kind)
	assert.Equal(t, int64(60), fill.ExecQty)
	assert.Equal(t, int64(60), fill.CumQty)
	assert.Equal(t, int64(40), fill.RemainingQty)
	assert.InDelta(t, 1.2049, fill.ExecPrice, 1e-9)
	assert.InDelta(t, 1.2049, fill.AvgPrice, 1e-9)

	require.Len(t, consumed, 1)
	assert.Equal(t, "o1", consumed[0].Event.ClientOrderID)
	assert.Equal(t, int64(60), consumed[0].Qty)
}

func TestMatchBid_PartialFillHaltsAtWorsePrice(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2049, 60))
	offers.Insert(histOffer("o2", 1.2051, 80))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2050, 100), offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindPartialFill, fill.Kind)
	assert.Equal(t, int64(60), fill.ExecQty)
	assert.Equal(t, int64(40), fill.RemainingQty)
	assert.InDelta(t, 1.2049, fill.ExecPrice, 1e-9)

	require.Len(t, consumed, 1, "the scan stops at the first offer above the bid even with quantity open")
	assert.Equal(t, "o1", consumed[0].Event.ClientOrderID)
}

func TestMatchBid_FullFillLeavesRestingRemainder(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2048, 150))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2048, 100), offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.Equal(t, int64(100), fill.ExecQty)
	assert.Equal(t, int64(0), fill.RemainingQty)
	assert.InDelta(t, 1.2048, fill.ExecPrice, 1e-9)

	require.Len(t, consumed, 1)
	assert.Equal(t, int64(100), consumed[0].Qty, "only the matched quantity is taken from the resting offer")
}

func TestMatchBid_OwnOrderAtBestHaltsScan(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	own := marketv1.NewOffer("own", "client", "VOD.L", marketv1.OrderTypeLimit, 1.2048, 50, testTime)
	offers.Insert(own)
	offers.Insert(histOffer("o1", 1.2049, 100))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2050, 100), offers)

	assert.Nil(t, fill, "scan halts at own order even though a deeper offer crosses")
	assert.Empty(t, consumed)
}

func TestMatchBid_SweepsMultipleLevels(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2048, 40))
	offers.Insert(histOffer("o2", 1.2049, 60))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2049, 100), offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.Equal(t, int64(100), fill.ExecQty)

	// volume weighted across both levels
	wantAvg := (1.2048*40 + 1.2049*60) / 100
	assert.InDelta(t, wantAvg, fill.ExecPrice, 1e-9)
	assert.InDelta(t, wantAvg, fill.AvgPrice, 1e-9)

	require.Len(t, consumed, 2)
	assert.Equal(t, int64(40), consumed[0].Qty)
	assert.Equal(t, int64(60), consumed[1].Qty)

	var total int64
	for _, c := range consumed {
		total += c.Qty
	}
	assert.Equal(t, fill.ExecQty, total, "executed quantity equals quantity taken from resting orders")
}

func TestMatchBid_MarketOrderCrossesAnyPrice(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.9000, 100))

	fill, _ := MatchBid(clientBid("b1", marketv1.OrderTypeMarket, 0, 100), offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.True(t, math.IsInf(fill.OrderPrice, 1), "fill carries the crossing price of the market order")
	assert.InDelta(t, 1.9, fill.ExecPrice, 1e-9, "market bid executes at the resting offer's price")
}

func TestMatchBid_NoCross(t *testing.T) {
	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2050, 100))

	fill, consumed := MatchBid(clientBid("b1", marketv1.OrderTypeLimit, 1.2049, 100), offers)

	assert.Nil(t, fill)
	assert.Empty(t, consumed)
}

func TestMatchOffer_LimitExecutesAtOwnPrice(t *testing.T) {
	bids := marketv1.NewList(marketv1.Descending)
	bids.Insert(histBid("b1", 1.2052, 100))

	fill, _ := MatchOffer(clientOffer("o1", marketv1.OrderTypeLimit, 1.2050, 100), bids)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.InDelta(t, 1.2050, fill.ExecPrice, 1e-9, "limit offer executes at its own price, not the bid's")
}

func TestMatchOffer_MarketExecutesAtBidPrice(t *testing.T) {
	bids := marketv1.NewList(marketv1.Descending)
	bids.Insert(histBid("b1", 1.2052, 40))
	bids.Insert(histBid("b2", 1.2051, 60))

	fill, consumed := MatchOffer(clientOffer("o1", marketv1.OrderTypeMarket, 0, 100), bids)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	wantAvg := (1.2052*40 + 1.2051*60) / 100
	assert.InDelta(t, wantAvg, fill.ExecPrice, 1e-9)
	require.Len(t, consumed, 2)
}

func TestMatchOffer_PartialAgainstThinBook(t *testing.T) {
	bids := marketv1.NewList(marketv1.Descending)
	bids.Insert(histBid("b1", 1.2051, 30))

	fill, consumed := MatchOffer(clientOffer("o1", marketv1.OrderTypeLimit, 1.2050, 100), bids)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindPartialFill, fill.Kind)
	assert.Equal(t, int64(30), fill.ExecQty)
	assert.Equal(t, int64(70), fill.RemainingQty)
	require.Len(t, consumed, 1)
	assert.Equal(t, int64(30), consumed[0].Qty)
}

func TestMatch_AveragePriceFoldsPriorExecutions(t *testing.T) {
	// an order that already executed 60 at 1.2049 matches its last 40 at 1.2048
	order := clientBid("b1", marketv1.OrderTypeLimit, 1.2049, 100)
	order.RemainingQty = 40
	order.CumQty = 60
	order.AvgPrice = 1.2049

	offers := marketv1.NewList(marketv1.Ascending)
	offers.Insert(histOffer("o1", 1.2048, 40))

	fill, _ := Match(order, offers)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.Equal(t, int64(100), fill.CumQty)
	wantAvg := (1.2049*60 + 1.2048*40) / 100
	assert.InDelta(t, wantAvg, fill.AvgPrice, 1e-9)
	assert.InDelta(t, 1.2048, fill.ExecPrice, 1e-9)
}
