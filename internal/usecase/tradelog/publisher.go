// Package tradelog publishes every execution to a Kafka topic so a
// backtest run leaves an auditable trade stream behind.
package tradelog

import (
	"context"
	"encoding/json"

	tradelogv1 "github.com/marketsim/exchange/internal/domain/tradelog/v1"
	"github.com/marketsim/exchange/internal/usecase/portfolio"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher writes trades to Kafka, keyed by symbol so one
// instrument's executions stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	log    logger.Interface
}

var _ tradelogv1.Publisher = (*Publisher)(nil)

// NewPublisher returns a publisher on the given brokers and topic.
func NewPublisher(brokers []string, topic string, log logger.Interface) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		writer: writer,
		log:    log,
	}
}

// Publish writes one trade to the log.
func (p *Publisher) Publish(ctx context.Context, trade tradelogv1.Trade) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return errors.NewTracer(string(errors.TradePublishError)).Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(trade.Symbol),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.NewTracer(string(errors.TradePublishError)).Wrap(err)
	}

	return nil
}

// Close flushes buffered messages and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return errors.NewTracer(string(errors.TradeCloseError)).Wrap(err)
	}
	return nil
}

// Recorder feeds client executions into a trade publisher. It plugs
// into the portfolio as a subscriber.
type Recorder struct {
	publisher tradelogv1.Publisher
	log       logger.Interface
}

// NewRecorder returns a recorder over publisher.
func NewRecorder(publisher tradelogv1.Publisher, log logger.Interface) *Recorder {
	return &Recorder{
		publisher: publisher,
		log:       log,
	}
}

// OnClientEvent publishes fills and partial fills, ignoring other
// lifecycle transitions. Publish failures are logged and do not stall
// the matching path.
func (r *Recorder) OnClientEvent(ev portfolio.ClientEvent) {
	switch ev.Type {
	case portfolio.EventFilled, portfolio.EventPartialFilled:
	default:
		return
	}

	trade := tradelogv1.TradeFromEvent(ev.Event)
	if err := r.publisher.Publish(context.Background(), trade); err != nil {
		r.log.Error(err,
			logger.NewField("client_order_id", trade.ClientOrderID),
			logger.NewField("symbol", trade.Symbol),
		)
	}
}
