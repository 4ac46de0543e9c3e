package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
)

// SetUsernameInput claims Username for the caller, creating the profile on
// first use.
type SetUsernameInput struct {
	Actor    types.ActorRef
	Username string
	Result   *types.Profile
}

// Type implements gocommand.Message.
func (SetUsernameInput) Type() string {
	return "command.profile.username.set"
}

// Validate implements gocommand.Message. Length is checked by the command
// against its configured limits.
func (input SetUsernameInput) Validate() error {
	if input.Actor.IsZero() {
		return ErrActorRequired
	}
	if input.Username == "" {
		return ErrUsernameRequired
	}
	return nil
}

// SetUsernameCommand implements set_username.
type SetUsernameCommand struct {
	store   types.StateStore
	limits  types.Limits
	logical types.LogicalClock
	notify  notifier
}

// NewSetUsernameCommand constructs the set_username handler.
func NewSetUsernameCommand(cfg ProfileCommandConfig) *SetUsernameCommand {
	return &SetUsernameCommand{
		store:   cfg.Store,
		limits:  cfg.Limits.Normalize(),
		logical: safeLogicalClock(cfg.LogicalClock),
		notify:  cfg.notifier(),
	}
}

var _ gocommand.Commander[SetUsernameInput] = (*SetUsernameCommand)(nil)

// Execute validates the name, checks uniqueness, then writes the profile and
// moves the index entry in one unit. Setting the name already held is a no-op
// rename that still succeeds. Avatar and bio are kept.
func (c *SetUsernameCommand) Execute(ctx context.Context, input SetUsernameInput) error {
	if c.store == nil {
		return types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	username, err := types.NewUsername(c.limits, input.Username)
	if err != nil {
		return err
	}

	owner := input.Actor.ID
	var (
		profile  types.Profile
		previous types.Username
		created  bool
	)
	err = c.store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		if err := checkUsernameAvailable(ctx, tables, owner, username); err != nil {
			return err
		}
		var err error
		profile, created, err = loadProfileOrDefault(ctx, tables, owner, c.logical)
		if err != nil {
			return err
		}
		if created {
			if err := ensureStats(ctx, tables, owner); err != nil {
				return err
			}
		}
		previous = profile.Username
		if err := rebindUsername(ctx, tables, owner, previous, username); err != nil {
			return err
		}
		profile.Username = username
		return tables.Profiles().PutProfile(ctx, profile)
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = profile
	}

	occurredAt := now(c.notify.clock)
	data := map[string]any{
		"username": username.String(),
		"created":  created,
	}
	if !previous.IsEmpty() && previous.String() != username.String() {
		data["previous_username"] = previous.String()
	}
	c.notify.logActivity(ctx, types.ActivityRecord{
		ActorID:    owner,
		Verb:       "profile.username_set",
		ObjectType: "profile",
		ObjectID:   owner.String(),
		Data:       data,
		OccurredAt: occurredAt,
	})
	emitUsernameHook(ctx, c.notify.hooks, types.UsernameSetEvent{
		Owner:      owner,
		Username:   username,
		Previous:   previous,
		Created:    created,
		OccurredAt: occurredAt,
	})
	return nil
}
