// Package marketevent reads and loads the historical market event
// table in QuestDB.
package marketevent

import (
	"context"
	"fmt"
	"strings"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	replayv1 "github.com/marketsim/exchange/internal/domain/replay/v1"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/marketsim/exchange/pkg/questdb"
)

// Config describes which slice of history to replay.
type Config struct {
	Table  string
	Symbol string

	// CounterpartyID is stamped on every historical event so they are
	// distinguishable from client orders.
	CounterpartyID string

	// From and To bound the replayed window. Zero means unbounded.
	From time.Time
	To   time.Time
}

// Repository streams historical events from QuestDB in time order.
type Repository struct {
	client questdb.QuestDBClient
	config Config
	log    logger.Interface

	rows questdb.RowsInterface
}

var _ replayv1.EventSource = (*Repository)(nil)

// NewRepository creates a new market event repository.
func NewRepository(client questdb.QuestDBClient, config Config, log logger.Interface) *Repository {
	if config.CounterpartyID == "" {
		config.CounterpartyID = "hist"
	}
	return &Repository{
		client: client,
		config: config,
		log:    log,
	}
}

// Next returns the next replayable event. Rows that carry nothing
// replayable are skipped. It returns replay.ErrExhausted at the end of
// the window.
func (r *Repository) Next(ctx context.Context) (*marketv1.Event, error) {
	if r.rows == nil {
		if err := r.open(ctx); err != nil {
			return nil, err
		}
	}

	for {
		if !r.rows.Next() {
			if err := r.rows.Err(); err != nil {
				return nil, errors.NewTracer(string(errors.ReplayQueryError)).Wrap(err)
			}
			return nil, replayv1.ErrExhausted
		}

		var row Row
		if err := r.rows.Scan(&row.ClientOrderID, &row.ActionType, &row.Side, &row.Price, &row.OrderQty, &row.EventTime); err != nil {
			return nil, errors.NewTracer(string(errors.ReplayScanError)).Wrap(err)
		}

		if row.skip() {
			continue
		}

		return row.ToEvent(r.config.Symbol, r.config.CounterpartyID), nil
	}
}

// Close releases the open result set.
func (r *Repository) Close() error {
	if r.rows != nil {
		r.rows.Close()
		r.rows = nil
	}
	return nil
}

func (r *Repository) open(ctx context.Context) error {
	query, args := r.buildQuery()

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return errors.NewTracer(string(errors.ReplayQueryError)).Wrap(err)
	}
	r.rows = rows

	r.log.InfoContext(ctx, "opened historical event stream",
		logger.NewField("table", r.config.Table),
		logger.NewField("symbol", r.config.Symbol),
	)
	return nil
}

func (r *Repository) buildQuery() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if !r.config.From.IsZero() {
		args = append(args, r.config.From)
		conds = append(conds, fmt.Sprintf("event_time >= $%d", len(args)))
	}
	if !r.config.To.IsZero() {
		args = append(args, r.config.To)
		conds = append(conds, fmt.Sprintf("event_time <= $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT client_order_id, action_type, side, price, order_qty, event_time FROM %s", r.config.Table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY event_time ASC"

	return query, args
}
