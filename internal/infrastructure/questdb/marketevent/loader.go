package marketevent

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	replayv1 "github.com/marketsim/exchange/internal/domain/replay/v1"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/marketsim/exchange/pkg/questdb"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS %s (
	client_order_id SYMBOL,
	action_type SYMBOL,
	side SYMBOL,
	price DOUBLE,
	order_qty LONG,
	event_time TIMESTAMP
) TIMESTAMP(event_time) PARTITION BY DAY`

// Loader bulk-loads a historical data file into the event table.
// The file is CSV with a header row:
// client_order_id,action_type,side,price,order_qty,event_time
type Loader struct {
	client questdb.QuestDBClient
	table  string
	path   string
	log    logger.Interface
}

var _ replayv1.Loader = (*Loader)(nil)

// NewLoader creates a loader for the given data file.
func NewLoader(client questdb.QuestDBClient, table, path string, log logger.Interface) *Loader {
	return &Loader{
		client: client,
		table:  table,
		path:   path,
		log:    log,
	}
}

// Load creates the event table if needed and batch-inserts the file.
// Malformed lines are logged and skipped.
func (l *Loader) Load(ctx context.Context) error {
	if err := l.client.Exec(ctx, fmt.Sprintf(createTableQuery, l.table)); err != nil {
		return errors.NewTracer(string(errors.ReplayLoadError)).Wrap(err)
	}

	f, err := os.Open(l.path)
	if err != nil {
		return errors.NewTracer(string(errors.ReplayLoadError)).Wrap(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return errors.NewTracer(string(errors.ReplayLoadError)).Wrap(err)
	}

	var (
		records [][]any
		skipped int
	)
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewTracer(string(errors.ReplayLoadError)).Wrap(err)
		}

		record, ok := l.parseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	columns := []string{"client_order_id", "action_type", "side", "price", "order_qty", "event_time"}
	inserted, err := l.client.CopyFrom(ctx, pgx.Identifier{l.table}, columns, pgx.CopyFromRows(records))
	if err != nil {
		return errors.NewTracer(string(errors.ReplayLoadError)).Wrap(err)
	}

	l.log.Info("loaded historical data",
		logger.NewField("table", l.table),
		logger.NewField("rows", inserted),
		logger.NewField("skipped", skipped),
	)
	return nil
}

func (l *Loader) parseLine(line []string) ([]any, bool) {
	if len(line) != 6 {
		l.log.Warn("malformed data line", logger.NewField("fields", len(line)))
		return nil, false
	}

	price, err := strconv.ParseFloat(line[3], 64)
	if err != nil {
		l.log.Warn("malformed price", logger.NewField("value", line[3]))
		return nil, false
	}

	qty, err := strconv.ParseInt(line[4], 10, 64)
	if err != nil {
		l.log.Warn("malformed quantity", logger.NewField("value", line[4]))
		return nil, false
	}

	eventTime, err := time.Parse(time.RFC3339Nano, line[5])
	if err != nil {
		l.log.Warn("malformed timestamp", logger.NewField("value", line[5]))
		return nil, false
	}

	return []any{line[0], line[1], line[2], price, qty, eventTime}, true
}
