package command

import (
	"context"
	"math"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
)

const (
	counterActionIncrement = "increment"
	counterActionReset     = "reset"
)

// CounterCommandConfig wires dependencies for the counter commands.
type CounterCommandConfig struct {
	Store       types.StateStore
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Clock       types.Clock
	IDGenerator types.IDGenerator
	Logger      types.Logger
}

func (cfg CounterCommandConfig) notifier() notifier {
	return notifier{
		sink:   cfg.Activity,
		hooks:  cfg.Hooks,
		clock:  safeClock(cfg.Clock),
		ids:    safeIDGenerator(cfg.IDGenerator),
		logger: safeLogger(cfg.Logger),
	}
}

// CounterIncrementInput requests a checked increment of the global counter.
type CounterIncrementInput struct {
	Actor  types.ActorRef
	Result *uint64
}

// Type implements gocommand.Message.
func (CounterIncrementInput) Type() string {
	return "command.counter.increment"
}

// Validate implements gocommand.Message.
func (input CounterIncrementInput) Validate() error {
	if input.Actor.IsZero() {
		return ErrActorRequired
	}
	return nil
}

// CounterIncrementCommand adds one to the counter, refusing to wrap.
type CounterIncrementCommand struct {
	store  types.StateStore
	notify notifier
}

// NewCounterIncrementCommand constructs the increment handler.
func NewCounterIncrementCommand(cfg CounterCommandConfig) *CounterIncrementCommand {
	return &CounterIncrementCommand{
		store:  cfg.Store,
		notify: cfg.notifier(),
	}
}

var _ gocommand.Commander[CounterIncrementInput] = (*CounterIncrementCommand)(nil)

// Execute increments the register. At math.MaxUint64 it returns
// ErrCounterOverflow and leaves the register unchanged.
func (c *CounterIncrementCommand) Execute(ctx context.Context, input CounterIncrementInput) error {
	if c.store == nil {
		return types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return err
	}

	var next uint64
	err := c.store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		current, err := tables.Counter().LoadCounter(ctx)
		if err != nil {
			return err
		}
		if current == math.MaxUint64 {
			return ErrCounterOverflow
		}
		next = current + 1
		return tables.Counter().StoreCounter(ctx, next)
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = next
	}

	c.notify.counterChanged(ctx, input.Actor, counterActionIncrement, next)
	return nil
}

// CounterResetInput requests the counter be set back to zero.
type CounterResetInput struct {
	Actor types.ActorRef
}

// Type implements gocommand.Message.
func (CounterResetInput) Type() string {
	return "command.counter.reset"
}

// Validate implements gocommand.Message.
func (input CounterResetInput) Validate() error {
	if input.Actor.IsZero() {
		return ErrActorRequired
	}
	return nil
}

// CounterResetCommand unconditionally zeroes the counter.
type CounterResetCommand struct {
	store  types.StateStore
	notify notifier
}

// NewCounterResetCommand constructs the reset handler.
func NewCounterResetCommand(cfg CounterCommandConfig) *CounterResetCommand {
	return &CounterResetCommand{
		store:  cfg.Store,
		notify: cfg.notifier(),
	}
}

var _ gocommand.Commander[CounterResetInput] = (*CounterResetCommand)(nil)

// Execute stores zero.
func (c *CounterResetCommand) Execute(ctx context.Context, input CounterResetInput) error {
	if c.store == nil {
		return types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	err := c.store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		return tables.Counter().StoreCounter(ctx, 0)
	})
	if err != nil {
		return err
	}

	c.notify.counterChanged(ctx, input.Actor, counterActionReset, 0)
	return nil
}

func (n notifier) counterChanged(ctx context.Context, actor types.ActorRef, action string, value uint64) {
	occurredAt := now(n.clock)
	n.logActivity(ctx, types.ActivityRecord{
		ActorID:    actor.ID,
		Verb:       "counter." + action,
		ObjectType: "counter",
		ObjectID:   "global",
		Data: map[string]any{
			"value": strconv.FormatUint(value, 10),
		},
		OccurredAt: occurredAt,
	})
	emitCounterHook(ctx, n.hooks, types.CounterEvent{
		Action:     action,
		Value:      value,
		ActorID:    actor.ID,
		OccurredAt: occurredAt,
	})
}
