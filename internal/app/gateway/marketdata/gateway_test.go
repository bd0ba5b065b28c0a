package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	marketdata_mock "github.com/marketsim/exchange/internal/app/gateway/marketdata/mock"
	"github.com/marketsim/exchange/internal/app/gateway/wire"
	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/pkg/logger"
)

type gatewayFixture struct {
	gateway *Gateway
	book    *marketdata_mock.MockBook
	driver  *marketdata_mock.MockDriver
	sender  *marketdata_mock.MockSender
	session *Session
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	book := marketdata_mock.NewMockBook(ctrl)
	driver := marketdata_mock.NewMockDriver(ctrl)
	sender := marketdata_mock.NewMockSender(ctrl)

	return &gatewayFixture{
		gateway: NewGateway(":0", "VOD.L", book, driver, simclock.New(false), log),
		book:    book,
		driver:  driver,
		sender:  sender,
		session: NewSession(sender),
	}
}

func subscribeRequest(mdReqID string, symbols ...string) *wire.MarketDataRequest {
	return &wire.MarketDataRequest{
		Type:                    wire.TypeMarketDataRequest,
		MDReqID:                 mdReqID,
		SubscriptionRequestType: wire.SubscriptionSnapshotUpdates,
		RelatedSymbols:          symbols,
	}
}

func TestGateway_SubscribeStartsReplay(t *testing.T) {
	f := newGatewayFixture(t)

	gomock.InOrder(
		f.book.EXPECT().Subscribe(gomock.Any()),
		f.driver.EXPECT().Start(gomock.Any()),
	)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))

	assert.True(t, f.session.Subscribed())
}

func TestGateway_SubscribeSymbolIsCaseInsensitive(t *testing.T) {
	f := newGatewayFixture(t)

	f.book.EXPECT().Subscribe(gomock.Any())
	f.driver.EXPECT().Start(gomock.Any())

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "vod.l"))

	assert.True(t, f.session.Subscribed())
}

func TestGateway_SubscribeUnservedSymbolIgnored(t *testing.T) {
	f := newGatewayFixture(t)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "BP.L"))

	assert.False(t, f.session.Subscribed())
}

func TestGateway_SubscribeEvaluatesFirstSymbolOnly(t *testing.T) {
	f := newGatewayFixture(t)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "BP.L", "VOD.L"))

	assert.False(t, f.session.Subscribed(), "the served symbol in second position does not subscribe")
}

func TestGateway_SubscribeEmptySymbolListIgnored(t *testing.T) {
	f := newGatewayFixture(t)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1"))

	assert.False(t, f.session.Subscribed())
}

func TestGateway_ResubscribeSameRequestIsNoOp(t *testing.T) {
	f := newGatewayFixture(t)

	f.book.EXPECT().Subscribe(gomock.Any()).Times(1)
	f.driver.EXPECT().Start(gomock.Any()).Times(1)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))
	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))
}

func TestGateway_ResubscribeNewRequestIsIgnored(t *testing.T) {
	f := newGatewayFixture(t)

	f.book.EXPECT().Subscribe(gomock.Any()).Times(1)
	f.driver.EXPECT().Start(gomock.Any()).Times(1)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))
	first := f.session.reporter
	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-2", "VOD.L"))

	assert.Same(t, first, f.session.reporter, "the active subscription keeps its request id")
}

func TestGateway_DisableStopsReplay(t *testing.T) {
	f := newGatewayFixture(t)

	f.book.EXPECT().Subscribe(gomock.Any())
	f.driver.EXPECT().Start(gomock.Any())
	gomock.InOrder(
		f.driver.EXPECT().Stop(),
		f.book.EXPECT().Unsubscribe(gomock.Any()),
	)

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))
	f.gateway.HandleRequest(context.Background(), f.session, &wire.MarketDataRequest{
		Type:                    wire.TypeMarketDataRequest,
		MDReqID:                 "md-1",
		SubscriptionRequestType: wire.SubscriptionDisablePrevious,
		RelatedSymbols:          []string{"VOD.L"},
	})

	assert.False(t, f.session.Subscribed())
}

func TestGateway_DisableWhenIdleIsIgnored(t *testing.T) {
	f := newGatewayFixture(t)

	f.gateway.HandleRequest(context.Background(), f.session, &wire.MarketDataRequest{
		Type:                    wire.TypeMarketDataRequest,
		MDReqID:                 "md-1",
		SubscriptionRequestType: wire.SubscriptionDisablePrevious,
	})

	assert.False(t, f.session.Subscribed())
}

func TestGateway_TeardownReleasesSubscription(t *testing.T) {
	f := newGatewayFixture(t)

	f.book.EXPECT().Subscribe(gomock.Any())
	f.driver.EXPECT().Start(gomock.Any())
	f.driver.EXPECT().Stop()
	f.book.EXPECT().Unsubscribe(gomock.Any())

	f.gateway.HandleRequest(context.Background(), f.session, subscribeRequest("md-1", "VOD.L"))
	f.gateway.Teardown(f.session)

	assert.False(t, f.session.Subscribed())
}

func TestReporter_SendsIncrementalRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	sender := marketdata_mock.NewMockSender(ctrl)

	var sent *wire.IncrementalRefresh
	sender.EXPECT().Send(gomock.Any()).DoAndReturn(func(msg any) error {
		sent = msg.(*wire.IncrementalRefresh)
		return nil
	})

	reporter := NewReporter("md-1", sender, simclock.New(false), log)
	ev := marketv1.NewBid("o1", "c1", "VOD.L", marketv1.OrderTypeLimit, 1.2048, 100, time.Now())
	reporter.OnBookEvent(ev)

	require.NotNil(t, sent)
	assert.Equal(t, "md-1", sent.MDReqID)
	require.Len(t, sent.Entries, 1)
	assert.Equal(t, wire.EntryTypeBid, sent.Entries[0].EntryType)
	assert.Equal(t, 1.2048, sent.Entries[0].Price)
}

func TestReporter_SendFailureDoesNotPanic(t *testing.T) {
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	sender := marketdata_mock.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(assert.AnError)

	reporter := NewReporter("md-1", sender, simclock.New(false), log)
	reporter.OnBookEvent(marketv1.NewOffer("o2", "c1", "VOD.L", marketv1.OrderTypeLimit, 1.2050, 80, time.Now()))
}
