// Package marketdata serves the market data stream. A client opens a
// websocket, subscribes with a market data request, and receives an
// incremental refresh for every change to the book. The first
// subscription starts the historical replay.
package marketdata

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marketsim/exchange/internal/app/gateway/wire"
	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/marketsim/exchange/pkg/util"
)

// Driver controls the historical replay feeding the book.
//
//go:generate mockgen -source gateway.go -destination=mock/gateway_mock.go -package=marketdata_mock
type Driver interface {
	Start(ctx context.Context)
	Stop()
}

// Book is the subscription surface of the order book.
type Book interface {
	Subscribe(sub orderbook.Subscriber)
	Unsubscribe(sub orderbook.Subscriber)
}

// Sender delivers outbound messages to one client connection.
type Sender interface {
	Send(msg any) error
}

// Gateway accepts market data sessions for one symbol.
type Gateway struct {
	symbol string
	book   Book
	driver Driver
	clock  *simclock.Clock
	log    logger.Interface

	addr     string
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
}

// NewGateway builds a market data gateway listening on addr.
func NewGateway(addr, symbol string, book Book, driver Driver, clock *simclock.Clock, log logger.Interface) *Gateway {
	return &Gateway{
		symbol: symbol,
		book:   book,
		driver: driver,
		clock:  clock,
		log:    log,
		addr:   addr,
	}
}

// Start begins accepting connections. It returns once the listener is
// bound, serving in the background.
func (g *Gateway) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", g.addr)
	if err != nil {
		return errors.NewTracer(string(errors.GeneralInternalServerError)).Wrap(err)
	}
	g.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/marketdata", g.handleConnection)
	g.server = &http.Server{Handler: mux}

	go func() {
		if err := g.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			g.log.Error(err, logger.NewField("gateway", "marketdata"))
		}
	}()

	g.log.Info("market data gateway listening",
		logger.NewField("addr", listener.Addr().String()),
		logger.NewField("symbol", g.symbol),
	)
	return nil
}

// Stop shuts the listener down and closes active sessions.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// Addr reports the bound listener address.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return g.addr
	}
	return g.listener.Addr().String()
}

func (g *Gateway) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error(errors.NewTracer(string(errors.GatewayDecodeError)).Wrap(err))
		return
	}
	defer conn.Close()

	ctx := util.WithSessionID(r.Context(), uuid.NewString())
	log := g.log.WithFields(logger.NewField("session_id", util.GetSessionID(ctx)))
	log.Info("market data session opened", logger.NewField("remote", conn.RemoteAddr().String()))
	defer log.Info("market data session closed")

	session := NewSession(newConnSender(conn))
	defer g.Teardown(session)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		typ, err := wire.PeekType(raw)
		if err != nil {
			log.Error(err)
			continue
		}
		if typ != wire.TypeMarketDataRequest {
			log.Info("unexpected message on market data session", logger.NewField("type", typ))
			continue
		}

		var req wire.MarketDataRequest
		if err := wire.Decode(raw, &req); err != nil {
			log.Error(err)
			continue
		}
		g.HandleRequest(ctx, session, &req)
	}
}

// Session tracks the subscription state of one connection.
type Session struct {
	sender   Sender
	reporter *Reporter
}

// NewSession wraps a sender in an idle session.
func NewSession(sender Sender) *Session {
	return &Session{sender: sender}
}

// Subscribed reports whether the session receives market data.
func (s *Session) Subscribed() bool {
	return s.reporter != nil
}

// HandleRequest applies a market data request to a session. A
// subscription for the served symbol starts the replay and attaches a
// reporter to the book, any subscribe while already subscribed is
// ignored, and disabling stops the replay.
func (g *Gateway) HandleRequest(ctx context.Context, s *Session, req *wire.MarketDataRequest) {
	switch req.SubscriptionRequestType {
	case wire.SubscriptionSnapshotUpdates:
		if !g.serves(req.RelatedSymbols) {
			g.log.Info("market data request for unserved symbol",
				logger.NewField("md_req_id", req.MDReqID),
				logger.NewField("symbols", req.RelatedSymbols),
			)
			return
		}
		if s.reporter != nil {
			if s.reporter.mdReqID != req.MDReqID {
				g.log.Info("subscription already active, request ignored",
					logger.NewField("md_req_id", req.MDReqID),
					logger.NewField("active_md_req_id", s.reporter.mdReqID),
				)
			}
			return
		}
		s.reporter = NewReporter(req.MDReqID, s.sender, g.clock, g.log)
		g.book.Subscribe(s.reporter)
		g.driver.Start(ctx)

	case wire.SubscriptionDisablePrevious:
		if s.reporter == nil {
			return
		}
		g.driver.Stop()
		g.book.Unsubscribe(s.reporter)
		s.reporter = nil

	default:
		g.log.Info("unsupported subscription request type",
			logger.NewField("subscription_request_type", req.SubscriptionRequestType),
		)
	}
}

// Teardown releases a session's subscription when the connection ends.
func (g *Gateway) Teardown(s *Session) {
	if s.reporter == nil {
		return
	}
	g.driver.Stop()
	g.book.Unsubscribe(s.reporter)
	s.reporter = nil
}

// serves evaluates only the first related symbol, matching the FIX
// convention of one instrument per subscription request.
func (g *Gateway) serves(symbols []string) bool {
	return len(symbols) > 0 && strings.EqualFold(symbols[0], g.symbol)
}

// Reporter streams book events to one subscribed session.
type Reporter struct {
	mdReqID string
	sender  Sender
	clock   *simclock.Clock
	log     logger.Interface
}

// NewReporter builds a reporter for one subscription.
func NewReporter(mdReqID string, sender Sender, clock *simclock.Clock, log logger.Interface) *Reporter {
	return &Reporter{
		mdReqID: mdReqID,
		sender:  sender,
		clock:   clock,
		log:     log,
	}
}

// OnBookEvent renders a book event as an incremental refresh and sends
// it. Messages that fail outbound validation are dropped and logged.
func (r *Reporter) OnBookEvent(ev *marketv1.Event) {
	msg := wire.NewIncrementalRefresh(r.mdReqID, ev, r.clock.Now())
	if err := msg.Validate(); err != nil {
		r.log.Error(err, logger.NewField("md_req_id", r.mdReqID))
		return
	}
	if err := r.sender.Send(msg); err != nil {
		r.log.Error(errors.NewTracer(string(errors.GatewaySendError)).Wrap(err),
			logger.NewField("md_req_id", r.mdReqID),
		)
	}
}

// connSender serializes writes to a websocket connection.
type connSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnSender(conn *websocket.Conn) *connSender {
	return &connSender{conn: conn}
}

func (s *connSender) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}
