package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func offerAt(id string, price float64, qty int64) *Event {
	return NewOffer(id, "hist", "VOD.L", OrderTypeLimit, price, qty, testTime)
}

func bidAt(id string, price float64, qty int64) *Event {
	return NewBid(id, "hist", "VOD.L", OrderTypeLimit, price, qty, testTime)
}

func prices(l *List) []float64 {
	out := make([]float64, 0, l.Len())
	for _, ev := range l.Events() {
		out = append(out, ev.OrderPrice)
	}
	return out
}

func TestList_InsertAscending(t *testing.T) {
	l := NewList(Ascending)
	l.Insert(offerAt("a", 1.2050, 100))
	l.Insert(offerAt("b", 1.2048, 100))
	l.Insert(offerAt("c", 1.2049, 100))

	assert.Equal(t, []float64{1.2048, 1.2049, 1.2050}, prices(l))
	assert.Equal(t, "b", l.Best().ClientOrderID)
}

func TestList_InsertDescending(t *testing.T) {
	l := NewList(Descending)
	l.Insert(bidAt("a", 1.2045, 100))
	l.Insert(bidAt("b", 1.2047, 100))
	l.Insert(bidAt("c", 1.2046, 100))

	assert.Equal(t, []float64{1.2047, 1.2046, 1.2045}, prices(l))
	assert.Equal(t, "b", l.Best().ClientOrderID)
}

func TestList_EqualPricesKeepArrivalOrder(t *testing.T) {
	l := NewList(Ascending)
	l.Insert(offerAt("first", 1.2049, 100))
	l.Insert(offerAt("second", 1.2049, 50))
	l.Insert(offerAt("ahead", 1.2048, 25))
	l.Insert(offerAt("third", 1.2049, 75))

	require.Equal(t, 4, l.Len())
	assert.Equal(t, "ahead", l.At(0).ClientOrderID)
	assert.Equal(t, "first", l.At(1).ClientOrderID)
	assert.Equal(t, "second", l.At(2).ClientOrderID)
	assert.Equal(t, "third", l.At(3).ClientOrderID)
}

func TestList_FindAndRemove(t *testing.T) {
	l := NewList(Ascending)
	l.Insert(offerAt("a", 1.2048, 100))
	l.Insert(offerAt("b", 1.2049, 100))

	found := l.Find("b")
	require.NotNil(t, found)
	assert.Equal(t, 1.2049, found.OrderPrice)

	removed := l.Remove("a")
	require.NotNil(t, removed)
	assert.Equal(t, 1, l.Len())
	assert.Nil(t, l.Find("a"))

	assert.Nil(t, l.Remove("missing"), "removing an unknown id is a no-op")
	assert.Equal(t, 1, l.Len())
}

func TestList_BestOnEmpty(t *testing.T) {
	assert.Nil(t, NewList(Ascending).Best())
}
