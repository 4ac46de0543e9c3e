package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

// StatsQueryInput selects the stats of Owner.
type StatsQueryInput struct {
	Owner uuid.UUID
}

// Type implements gocommand.Message.
func (StatsQueryInput) Type() string {
	return "query.stats.get"
}

// Validate implements gocommand.Message.
func (input StatsQueryInput) Validate() error {
	if input.Owner == uuid.Nil {
		return types.ErrActorRequired
	}
	return nil
}

// StatsQuery fetches stats entries. Stats exist independently of profiles.
type StatsQuery struct {
	store types.StateStore
}

// NewStatsQuery constructs the stats query helper.
func NewStatsQuery(store types.StateStore) *StatsQuery {
	return &StatsQuery{store: store}
}

var _ gocommand.Querier[StatsQueryInput, *types.Stats] = (*StatsQuery)(nil)

// Query returns the stats or nil when none were ever written.
func (q *StatsQuery) Query(ctx context.Context, input StatsQueryInput) (*types.Stats, error) {
	if q.store == nil {
		return nil, types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var stats *types.Stats
	err := q.store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		var err error
		stats, err = tables.Stats().GetStats(ctx, input.Owner)
		return err
	})
	return stats, err
}

// CounterQueryInput reads the global counter.
type CounterQueryInput struct{}

// Type implements gocommand.Message.
func (CounterQueryInput) Type() string {
	return "query.counter.get"
}

// Validate implements gocommand.Message.
func (CounterQueryInput) Validate() error {
	return nil
}

// CounterQuery reads the counter register.
type CounterQuery struct {
	store types.StateStore
}

// NewCounterQuery constructs the counter query helper.
func NewCounterQuery(store types.StateStore) *CounterQuery {
	return &CounterQuery{store: store}
}

var _ gocommand.Querier[CounterQueryInput, uint64] = (*CounterQuery)(nil)

// Query returns the current counter value.
func (q *CounterQuery) Query(ctx context.Context, _ CounterQueryInput) (uint64, error) {
	if q.store == nil {
		return 0, types.ErrMissingStateStore
	}
	var value uint64
	err := q.store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		var err error
		value, err = tables.Counter().LoadCounter(ctx)
		return err
	})
	return value, err
}
