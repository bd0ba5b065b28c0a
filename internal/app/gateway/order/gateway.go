// Package order serves the order entry stream. A client opens a
// websocket, enters and cancels orders, and receives an execution
// report for every lifecycle transition of its orders.
package order

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
	"github.com/marketsim/exchange/internal/usecase/portfolio"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/marketsim/exchange/pkg/util"
)

// Trader accepts client orders and reports their lifecycle.
//
//go:generate mockgen -source gateway.go -destination=mock/gateway_mock.go -package=order_mock
type Trader interface {
	Submit(order *marketv1.Event) *marketv1.Event
	Cancel(clientOrderID string, side marketv1.Side) (*marketv1.Event, bool)
	Subscribe(sub portfolio.Subscriber)
	Unsubscribe(sub portfolio.Subscriber)
}

// Sender delivers outbound messages to one client connection.
type Sender interface {
	Send(msg any) error
}

// Gateway accepts order entry sessions for one symbol.
type Gateway struct {
	symbol   string
	clientID string
	trader   Trader
	clock    *simclock.Clock
	log      logger.Interface

	addr     string
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
}

// NewGateway builds an order entry gateway listening on addr.
func NewGateway(addr, symbol, clientID string, trader Trader, clock *simclock.Clock, log logger.Interface) *Gateway {
	return &Gateway{
		symbol:   symbol,
		clientID: clientID,
		trader:   trader,
		clock:    clock,
		log:      log,
		addr:     addr,
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
	mux.HandleFunc("/ws/orders", g.handleConnection)
	g.server = &http.Server{Handler: mux}

	go func() {
		if err := g.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			g.log.Error(err, logger.NewField("gateway", "order"))
		}
	}()

	g.log.Info("order gateway listening",
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
	ctx = util.WithClientID(ctx, g.clientID)
	log := g.log.WithFields(logger.NewField("session_id", util.GetSessionID(ctx)))
	log.Info("order session opened", logger.NewField("remote", conn.RemoteAddr().String()))
	defer log.Info("order session closed")

	sender := newConnSender(conn)
	reporter := NewReporter(sender, g.clock, log)
	g.trader.Subscribe(reporter)
	defer g.trader.Unsubscribe(reporter)

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

		switch typ {
		case wire.TypeNewOrderSingle:
			var req wire.NewOrderSingle
			if err := wire.Decode(raw, &req); err != nil {
				log.Error(err)
				continue
			}
			g.HandleOrder(sender, &req)

		case wire.TypeOrderCancelRequest:
			var req wire.OrderCancelRequest
			if err := wire.Decode(raw, &req); err != nil {
				log.Error(err)
				continue
			}
			g.HandleCancel(sender, &req)

		default:
			log.Info("unexpected message on order session", logger.NewField("type", typ))
		}
	}
}

// HandleOrder validates an inbound order and enters it into the
// portfolio. Orders for other symbols, unsupported time in force or a
// malformed side or type are rejected with an execution report.
func (g *Gateway) HandleOrder(sender Sender, req *wire.NewOrderSingle) {
	if !strings.EqualFold(req.Symbol, g.symbol) {
		g.reject(sender, req, wire.RejectReasonUnknownSymbol)
		return
	}
	if req.TimeInForce != "" && req.TimeInForce != wire.TimeInForceGTC {
		g.reject(sender, req, wire.RejectReasonUnknownOrder)
		return
	}

	order, err := g.buildOrder(req)
	if err != nil {
		g.log.Info("rejecting malformed order",
			logger.NewField("cl_ord_id", req.ClOrdID),
			logger.NewField("reason", err.Error()),
		)
		g.reject(sender, req, wire.RejectReasonUnknownOrder)
		return
	}

	g.trader.Submit(order)
}

// HandleCancel cancels an open order. A cancel for an order the
// portfolio does not hold is ignored.
func (g *Gateway) HandleCancel(sender Sender, req *wire.OrderCancelRequest) {
	side := marketv1.SideSell
	if req.Side == wire.SideBuy {
		side = marketv1.SideBuy
	}

	if _, ok := g.trader.Cancel(req.OrigClOrdID, side); !ok {
		g.log.Info("cancel for unknown order ignored",
			logger.NewField("orig_cl_ord_id", req.OrigClOrdID),
			logger.NewField("side", req.Side),
		)
	}
}

func (g *Gateway) buildOrder(req *wire.NewOrderSingle) (*marketv1.Event, error) {
	if req.ClOrdID == "" {
		return nil, errors.NewErrorDetails("order without cl_ord_id", string(errors.GatewayValidationError), "cl_ord_id")
	}
	if req.OrderQty <= 0 {
		return nil, errors.NewErrorDetails("order without positive quantity", string(errors.GatewayValidationError), "order_qty")
	}

	var orderType marketv1.OrderType
	switch req.OrdType {
	case wire.OrdTypeLimit:
		orderType = marketv1.OrderTypeLimit
	case wire.OrdTypeMarket:
		orderType = marketv1.OrderTypeMarket
	default:
		return nil, errors.NewErrorDetails("unsupported order type", string(errors.GatewayValidationError), "ord_type")
	}

	var order *marketv1.Event
	switch req.Side {
	case wire.SideBuy:
		order = marketv1.NewBid(req.ClOrdID, g.clientID, g.symbol, orderType, req.Price, req.OrderQty, g.clock.Now())
	case wire.SideSell:
		order = marketv1.NewOffer(req.ClOrdID, g.clientID, g.symbol, orderType, req.Price, req.OrderQty, g.clock.Now())
	default:
		return nil, errors.NewErrorDetails("unsupported side", string(errors.GatewayValidationError), "side")
	}

	order.Account = req.Account
	return order, nil
}

func (g *Gateway) reject(sender Sender, req *wire.NewOrderSingle, reason string) {
	g.send(sender, wire.NewRejectReport(req, reason, g.clock.Now()))
}

func (g *Gateway) send(sender Sender, report *wire.ExecutionReport) {
	if err := report.Validate(); err != nil {
		g.log.Error(err, logger.NewField("cl_ord_id", report.ClOrdID))
		return
	}
	if err := sender.Send(report); err != nil {
		g.log.Error(errors.NewTracer(string(errors.GatewaySendError)).Wrap(err),
			logger.NewField("cl_ord_id", report.ClOrdID),
		)
	}
}

// Reporter streams execution reports for client order transitions to
// one session.
type Reporter struct {
	sender Sender
	clock  *simclock.Clock
	log    logger.Interface
}

// NewReporter builds a reporter for one session.
func NewReporter(sender Sender, clock *simclock.Clock, log logger.Interface) *Reporter {
	return &Reporter{
		sender: sender,
		clock:  clock,
		log:    log,
	}
}

// OnClientEvent renders a portfolio event as an execution report and
// sends it. Reports that fail outbound validation are dropped and
// logged.
func (r *Reporter) OnClientEvent(ce portfolio.ClientEvent) {
	report := wire.NewExecutionReport(ce, r.clock.Now())
	if err := report.Validate(); err != nil {
		r.log.Error(err, logger.NewField("cl_ord_id", report.ClOrdID))
		return
	}
	if err := r.sender.Send(report); err != nil {
		r.log.Error(errors.NewTracer(string(errors.GatewaySendError)).Wrap(err),
			logger.NewField("cl_ord_id", report.ClOrdID),
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
