package tradelog

import (
	"testing"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	tradelogv1 "github.com/marketsim/exchange/internal/domain/tradelog/v1"
	tradelog_mock "github.com/marketsim/exchange/internal/domain/tradelog/v1/mock"
	"github.com/marketsim/exchange/internal/usecase/portfolio"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testTime = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func newTestRecorder(t *testing.T) (*Recorder, *tradelog_mock.MockPublisher) {
	t.Helper()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	publisher := tradelog_mock.NewMockPublisher(ctrl)
	return NewRecorder(publisher, log), publisher
}

func testFill() *marketv1.Event {
	fill := marketv1.NewBid("c1", "client", "VOD.L", marketv1.OrderTypeLimit, 1.2049, 100, testTime)
	fill.Kind = marketv1.KindFill
	fill.RemainingQty = 0
	fill.ExecQty = 100
	fill.CumQty = 100
	fill.ExecPrice = 1.2049
	fill.AvgPrice = 1.2049
	return fill
}

func TestRecorder_PublishesFills(t *testing.T) {
	recorder, publisher := newTestRecorder(t)

	var published tradelogv1.Trade
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, trade tradelogv1.Trade) error {
			published = trade
			return nil
		},
	)

	recorder.OnClientEvent(portfolio.ClientEvent{Type: portfolio.EventFilled, Event: testFill()})

	assert.Equal(t, "VOD.L", published.Symbol)
	assert.Equal(t, "c1", published.ClientOrderID)
	assert.Equal(t, int64(100), published.ExecQty)
	assert.False(t, published.Partial)
}

func TestRecorder_MarksPartialFills(t *testing.T) {
	recorder, publisher := newTestRecorder(t)

	fill := testFill()
	fill.Kind = marketv1.KindPartialFill
	fill.RemainingQty = 40
	fill.ExecQty = 60
	fill.CumQty = 60

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, trade tradelogv1.Trade) error {
			assert.True(t, trade.Partial)
			assert.Equal(t, int64(60), trade.ExecQty)
			return nil
		},
	)

	recorder.OnClientEvent(portfolio.ClientEvent{Type: portfolio.EventPartialFilled, Event: fill})
}

func TestRecorder_IgnoresNonExecutions(t *testing.T) {
	recorder, _ := newTestRecorder(t)

	order := marketv1.NewBid("c1", "client", "VOD.L", marketv1.OrderTypeLimit, 1.2049, 100, testTime)
	recorder.OnClientEvent(portfolio.ClientEvent{Type: portfolio.EventNew, Event: order})
	recorder.OnClientEvent(portfolio.ClientEvent{Type: portfolio.EventCanceled, Event: order})
}
