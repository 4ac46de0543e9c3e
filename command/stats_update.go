package command

import (
	"context"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// StatsCommandConfig wires dependencies for update_stats.
type StatsCommandConfig struct {
	Store       types.StateStore
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Clock       types.Clock
	IDGenerator types.IDGenerator
	Logger      types.Logger
	FeatureGate featuregate.FeatureGate
}

// StatsUpdateInput overwrites the present stats fields for the caller.
type StatsUpdateInput struct {
	Actor  types.ActorRef
	Patch  types.StatsPatch
	Result *types.Stats
}

// Type implements gocommand.Message.
func (StatsUpdateInput) Type() string {
	return "command.stats.update"
}

// Validate implements gocommand.Message.
func (input StatsUpdateInput) Validate() error {
	if input.Actor.IsZero() {
		return ErrActorRequired
	}
	return nil
}

// StatsUpdateCommand implements update_stats. Stats never require a profile.
type StatsUpdateCommand struct {
	store       types.StateStore
	featureGate featuregate.FeatureGate
	notify      notifier
}

// NewStatsUpdateCommand constructs the update_stats handler.
func NewStatsUpdateCommand(cfg StatsCommandConfig) *StatsUpdateCommand {
	return &StatsUpdateCommand{
		store:       cfg.Store,
		featureGate: cfg.FeatureGate,
		notify: notifier{
			sink:   cfg.Activity,
			hooks:  cfg.Hooks,
			clock:  safeClock(cfg.Clock),
			ids:    safeIDGenerator(cfg.IDGenerator),
			logger: safeLogger(cfg.Logger),
		},
	}
}

var _ gocommand.Commander[StatsUpdateInput] = (*StatsUpdateCommand)(nil)

// Execute loads or defaults the stats, overwrites present fields and persists.
func (c *StatsUpdateCommand) Execute(ctx context.Context, input StatsUpdateInput) error {
	if c.store == nil {
		return types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	owner := input.Actor.ID
	enabled, err := featureEnabled(ctx, c.featureGate, FeatureStatsUpdate, owner)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrStatsUpdateDisabled
	}

	var (
		stats   types.Stats
		created bool
	)
	err = c.store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		current, isNew, err := loadStatsOrDefault(ctx, tables, owner)
		if err != nil {
			return err
		}
		created = isNew
		stats = input.Patch.Apply(current)
		return tables.Stats().PutStats(ctx, owner, stats)
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = stats
	}

	occurredAt := now(c.notify.clock)
	c.notify.logActivity(ctx, types.ActivityRecord{
		ActorID:    owner,
		Verb:       "stats.updated",
		ObjectType: "stats",
		ObjectID:   owner.String(),
		Data: map[string]any{
			"created":        created,
			"total_races":    stats.TotalRaces,
			"wins":           stats.Wins,
			"total_distance": strconv.FormatUint(stats.TotalDistance, 10),
			"total_rewards":  stats.TotalRewards.String(),
		},
		OccurredAt: occurredAt,
	})
	emitStatsHook(ctx, c.notify.hooks, types.StatsUpdatedEvent{
		Owner:      owner,
		Stats:      stats,
		OccurredAt: occurredAt,
	})
	return nil
}
