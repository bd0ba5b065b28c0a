// Package snapshot persists periodic order book snapshots to Redis so
// a running backtest can be inspected from outside the process.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	snapshotv1 "github.com/marketsim/exchange/internal/domain/snapshot/v1"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/redis"
)

// Store keeps the latest snapshot per symbol in Redis.
type Store struct {
	client redis.Client
	prefix string
	ttl    time.Duration
}

var _ snapshotv1.Store = (*Store)(nil)

// NewStore returns a store writing under prefix with the given TTL.
func NewStore(client redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Store writes snap, replacing any previous snapshot for its symbol.
func (s *Store) Store(ctx context.Context, snap *snapshotv1.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.NewTracer(string(errors.SnapshotMarshalError)).Wrap(err)
	}

	if err := s.client.Set(ctx, s.key(snap.Symbol), payload, s.ttl); err != nil {
		return errors.NewTracer(string(errors.SnapshotStoreError)).Wrap(err)
	}

	return nil
}

// Load reads the latest snapshot for symbol.
func (s *Store) Load(ctx context.Context, symbol string) (*snapshotv1.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(symbol))
	if err != nil {
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}
	if raw == "" {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("no snapshot stored for %s", symbol),
			string(errors.SnapshotNotFoundError),
			"symbol",
		)
	}

	var snap snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, errors.NewTracer(string(errors.SnapshotUnmarshalError)).Wrap(err)
	}

	return &snap, nil
}

func (s *Store) key(symbol string) string {
	return fmt.Sprintf("%sbook:%s", s.prefix, symbol)
}
