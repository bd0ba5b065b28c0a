package v1

import (
	"context"
	"errors"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
)

// ErrExhausted is returned by EventSource.Next when the historical
// stream has no more events.
var ErrExhausted = errors.New("historical event stream exhausted")

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=replay_mock

// EventSource streams historical market events in time order.
type EventSource interface {
	// Next returns the next event. It returns ErrExhausted once the
	// stream ends; any other error applies to a single record and the
	// caller may keep reading.
	Next(ctx context.Context) (*marketv1.Event, error)
	Close() error
}

// Loader ingests raw historical data into the event store.
type Loader interface {
	Load(ctx context.Context) error
}
