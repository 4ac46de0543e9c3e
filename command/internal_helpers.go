package command

import (
	"context"
	"time"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogicalClock(clock types.LogicalClock) types.LogicalClock {
	if clock != nil {
		return clock
	}
	return types.UnixLogicalClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeIDGenerator(gen types.IDGenerator) types.IDGenerator {
	if gen != nil {
		return gen
	}
	return types.UUIDGenerator{}
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

// notifier delivers the post-commit notifications of a call: the activity
// record first, then the typed hook. Sink failures are logged, never returned.
type notifier struct {
	sink   types.ActivitySink
	hooks  types.Hooks
	clock  types.Clock
	ids    types.IDGenerator
	logger types.Logger
}

func (n notifier) logActivity(ctx context.Context, record types.ActivityRecord) {
	if record.ID == uuid.Nil {
		record.ID = n.ids.UUID()
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = now(n.clock)
	}
	if n.sink != nil {
		if err := n.sink.Log(ctx, record); err != nil {
			n.logger.Error("directory activity sink failed", err,
				"verb", record.Verb,
				"object_id", record.ObjectID,
			)
		}
	}
	if n.hooks.AfterActivity != nil {
		n.hooks.AfterActivity(ctx, record)
	}
}

func emitCounterHook(ctx context.Context, hooks types.Hooks, event types.CounterEvent) {
	if hooks.AfterCounterChange == nil {
		return
	}
	hooks.AfterCounterChange(ctx, event)
}

func emitUsernameHook(ctx context.Context, hooks types.Hooks, event types.UsernameSetEvent) {
	if hooks.AfterUsernameSet == nil {
		return
	}
	hooks.AfterUsernameSet(ctx, event)
}

func emitProfileHook(ctx context.Context, hooks types.Hooks, event types.ProfileUpdatedEvent) {
	if hooks.AfterProfileChange == nil {
		return
	}
	hooks.AfterProfileChange(ctx, event)
}

func emitStatsHook(ctx context.Context, hooks types.Hooks, event types.StatsUpdatedEvent) {
	if hooks.AfterStatsChange == nil {
		return
	}
	hooks.AfterStatsChange(ctx, event)
}

// loadProfileOrDefault returns the owner's profile or a fresh one stamped with
// the current logical time. created is the single create-vs-update decision.
func loadProfileOrDefault(ctx context.Context, tables types.Tables, owner uuid.UUID, clock types.LogicalClock) (profile types.Profile, created bool, err error) {
	existing, err := tables.Profiles().GetProfile(ctx, owner)
	if err != nil {
		return types.Profile{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	return types.Profile{
		Owner:     owner,
		CreatedAt: clock.Current(),
	}, true, nil
}

// loadStatsOrDefault returns the owner's stats or zero stats with created set.
func loadStatsOrDefault(ctx context.Context, tables types.Tables, owner uuid.UUID) (stats types.Stats, created bool, err error) {
	existing, err := tables.Stats().GetStats(ctx, owner)
	if err != nil {
		return types.Stats{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	return types.Stats{}, true, nil
}

// ensureStats writes zero stats for owner when none exist. Existing stats are
// never touched.
func ensureStats(ctx context.Context, tables types.Tables, owner uuid.UUID) error {
	stats, created, err := loadStatsOrDefault(ctx, tables, owner)
	if err != nil || !created {
		return err
	}
	return tables.Stats().PutStats(ctx, owner, stats)
}

// rebindUsername moves owner's index entry from previous to next. previous
// may be empty; equal names leave the index untouched.
func rebindUsername(ctx context.Context, tables types.Tables, owner uuid.UUID, previous, next types.Username) error {
	if previous.String() == next.String() {
		return nil
	}
	if !previous.IsEmpty() {
		if err := tables.Usernames().ReleaseUsername(ctx, previous.String()); err != nil {
			return err
		}
	}
	if next.IsEmpty() {
		return nil
	}
	return tables.Usernames().BindUsername(ctx, next.String(), owner)
}

// checkUsernameAvailable fails with ErrUsernameTaken when another identity
// holds name. The empty username is never indexed and always available.
func checkUsernameAvailable(ctx context.Context, tables types.Tables, owner uuid.UUID, name types.Username) error {
	if name.IsEmpty() {
		return nil
	}
	holder, found, err := tables.Usernames().LookupUsername(ctx, name.String())
	if err != nil {
		return err
	}
	if found && holder != owner {
		return types.ErrUsernameTaken
	}
	return nil
}
