package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
)

// ProfileUpdateInput carries a partial profile update for the caller.
type ProfileUpdateInput struct {
	Actor  types.ActorRef
	Patch  types.ProfilePatch
	Result *types.Profile
}

// Type implements gocommand.Message.
func (ProfileUpdateInput) Type() string {
	return "command.profile.update"
}

// Validate implements gocommand.Message.
func (input ProfileUpdateInput) Validate() error {
	if input.Actor.IsZero() {
		return ErrActorRequired
	}
	if input.Patch.Username != nil && *input.Patch.Username == "" {
		return ErrUsernameRequired
	}
	if input.Patch.Avatar.Op > types.PatchSet || input.Patch.Bio.Op > types.PatchSet {
		return ErrInvalidPatchOp
	}
	return nil
}

// ProfileUpdateCommand implements update_profile. The call is all-or-nothing:
// every present field is validated and the username checked for uniqueness
// before anything is written.
type ProfileUpdateCommand struct {
	store   types.StateStore
	limits  types.Limits
	logical types.LogicalClock
	notify  notifier
}

// NewProfileUpdateCommand constructs the update_profile handler.
func NewProfileUpdateCommand(cfg ProfileCommandConfig) *ProfileUpdateCommand {
	return &ProfileUpdateCommand{
		store:   cfg.Store,
		limits:  cfg.Limits.Normalize(),
		logical: safeLogicalClock(cfg.LogicalClock),
		notify:  cfg.notifier(),
	}
}

var _ gocommand.Commander[ProfileUpdateInput] = (*ProfileUpdateCommand)(nil)

type validatedProfilePatch struct {
	username *types.Username
	avatar   types.AvatarChange
	bio      types.BioChange
}

func (c *ProfileUpdateCommand) validatePatch(patch types.ProfilePatch) (validatedProfilePatch, error) {
	out := validatedProfilePatch{
		avatar: types.AvatarChange{Op: patch.Avatar.Op},
		bio:    types.BioChange{Op: patch.Bio.Op},
	}
	if patch.Username != nil {
		username, err := types.NewUsername(c.limits, *patch.Username)
		if err != nil {
			return out, err
		}
		out.username = &username
	}
	if patch.Avatar.Op == types.PatchSet {
		avatar, err := types.NewAvatar(c.limits, patch.Avatar.Value)
		if err != nil {
			return out, err
		}
		out.avatar.Value = avatar
	}
	if patch.Bio.Op == types.PatchSet {
		bio, err := types.NewBio(c.limits, patch.Bio.Value)
		if err != nil {
			return out, err
		}
		out.bio.Value = bio
	}
	return out, nil
}

// Execute applies the patch, creating the profile when necessary.
func (c *ProfileUpdateCommand) Execute(ctx context.Context, input ProfileUpdateInput) error {
	if c.store == nil {
		return types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	patch, err := c.validatePatch(input.Patch)
	if err != nil {
		return err
	}

	owner := input.Actor.ID
	var (
		profile types.Profile
		created bool
	)
	err = c.store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		if patch.username != nil {
			if err := checkUsernameAvailable(ctx, tables, owner, *patch.username); err != nil {
				return err
			}
		}
		var err error
		profile, created, err = loadProfileOrDefault(ctx, tables, owner, c.logical)
		if err != nil {
			return err
		}
		if err := ensureStats(ctx, tables, owner); err != nil {
			return err
		}
		if patch.username != nil {
			if err := rebindUsername(ctx, tables, owner, profile.Username, *patch.username); err != nil {
				return err
			}
			profile.Username = *patch.username
		}
		applyProfilePatch(&profile, patch)
		return tables.Profiles().PutProfile(ctx, profile)
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = profile
	}

	occurredAt := now(c.notify.clock)
	c.notify.logActivity(ctx, types.ActivityRecord{
		ActorID:    owner,
		Verb:       "profile.updated",
		ObjectType: "profile",
		ObjectID:   owner.String(),
		Data:       profilePatchData(patch, created),
		OccurredAt: occurredAt,
	})
	emitProfileHook(ctx, c.notify.hooks, types.ProfileUpdatedEvent{
		Owner:      owner,
		Username:   patch.username,
		Avatar:     patch.avatar,
		Bio:        patch.bio,
		Created:    created,
		OccurredAt: occurredAt,
	})
	return nil
}

func applyProfilePatch(profile *types.Profile, patch validatedProfilePatch) {
	switch patch.avatar.Op {
	case types.PatchClear:
		profile.Avatar = nil
	case types.PatchSet:
		profile.Avatar = patch.avatar.Value.Ptr()
	}
	switch patch.bio.Op {
	case types.PatchClear:
		profile.Bio = nil
	case types.PatchSet:
		profile.Bio = patch.bio.Value.Ptr()
	}
}

func profilePatchData(patch validatedProfilePatch, created bool) map[string]any {
	data := map[string]any{
		"created": created,
	}
	if patch.username != nil {
		data["username"] = patch.username.String()
	}
	if patch.avatar.Op != types.PatchUnchanged {
		data["avatar_op"] = patch.avatar.Op.String()
		if patch.avatar.Op == types.PatchSet {
			data["avatar"] = patch.avatar.Value.String()
		}
	}
	if patch.bio.Op != types.PatchUnchanged {
		data["bio_op"] = patch.bio.Op.String()
		if patch.bio.Op == types.PatchSet {
			data["bio"] = patch.bio.Value.String()
		}
	}
	return data
}
