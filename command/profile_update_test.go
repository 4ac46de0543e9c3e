package command

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdateCommand_AliceBobScenario(t *testing.T) {
	h := newHarness()
	setName := NewSetUsernameCommand(h.profileConfig())
	update := NewProfileUpdateCommand(h.profileConfig())
	one, two := actor(), actor()

	require.NoError(t, setName.Execute(context.Background(), SetUsernameInput{Actor: one, Username: "alice"}))
	require.Equal(t, "alice", h.profile(t, one.ID).Username.String())
	holder, _ := h.holder(t, "alice")
	require.Equal(t, one.ID, holder)
	require.Equal(t, types.Stats{}, *h.stats(t, one.ID))
	require.Len(t, h.events, 1)

	err := setName.Execute(context.Background(), SetUsernameInput{Actor: two, Username: "alice"})
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.Len(t, h.events, 1)

	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: one,
		Patch: types.ProfilePatch{
			Username: strPtr("bob"),
			Bio:      types.SetText("hi"),
		},
	}))

	profile := h.profile(t, one.ID)
	require.Equal(t, "bob", profile.Username.String())
	require.NotNil(t, profile.Bio)
	require.Equal(t, "hi", profile.Bio.String())
	_, found := h.holder(t, "alice")
	require.False(t, found)
	holder, found = h.holder(t, "bob")
	require.True(t, found)
	require.Equal(t, one.ID, holder)

	event := h.events[1].(types.ProfileUpdatedEvent)
	require.Equal(t, one.ID, event.Owner)
	require.NotNil(t, event.Username)
	require.Equal(t, "bob", event.Username.String())
	require.Equal(t, types.PatchUnchanged, event.Avatar.Op)
	require.Equal(t, types.PatchSet, event.Bio.Op)
	require.Equal(t, "hi", event.Bio.Value.String())
	require.False(t, event.Created)
}

func TestProfileUpdateCommand_IsAtomic(t *testing.T) {
	h := newHarness()
	setName := NewSetUsernameCommand(h.profileConfig())
	update := NewProfileUpdateCommand(h.profileConfig())
	caller := actor()

	require.NoError(t, setName.Execute(context.Background(), SetUsernameInput{Actor: caller, Username: "alice"}))
	h.reset()

	err := update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{
			Username: strPtr("bob"),
			Avatar:   types.SetText("ipfs://new"),
			Bio:      types.SetText(strings.Repeat("b", int(types.DefaultMaxBioLength)+1)),
		},
	})
	require.ErrorIs(t, err, ErrBioTooLong)

	profile := h.profile(t, caller.ID)
	require.Equal(t, "alice", profile.Username.String())
	require.Nil(t, profile.Avatar)
	_, found := h.holder(t, "bob")
	require.False(t, found)
	holder, found := h.holder(t, "alice")
	require.True(t, found)
	require.Equal(t, caller.ID, holder)
	require.Empty(t, h.sink.records)
	require.Empty(t, h.events)
}

func TestProfileUpdateCommand_TakenUsernameAbortsWholeCall(t *testing.T) {
	h := newHarness()
	setName := NewSetUsernameCommand(h.profileConfig())
	update := NewProfileUpdateCommand(h.profileConfig())
	one, two := actor(), actor()

	require.NoError(t, setName.Execute(context.Background(), SetUsernameInput{Actor: one, Username: "alice"}))
	h.reset()

	err := update.Execute(context.Background(), ProfileUpdateInput{
		Actor: two,
		Patch: types.ProfilePatch{
			Username: strPtr("alice"),
			Bio:      types.SetText("hello"),
		},
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.Nil(t, h.profile(t, two.ID))
	require.Nil(t, h.stats(t, two.ID))
	require.Empty(t, h.events)
}

func TestProfileUpdateCommand_CreatesDefaultProfile(t *testing.T) {
	h := newHarness()
	update := NewProfileUpdateCommand(h.profileConfig())
	caller := actor()

	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{Bio: types.SetText("new here")},
	}))

	profile := h.profile(t, caller.ID)
	require.NotNil(t, profile)
	require.False(t, profile.HasUsername())
	require.Equal(t, uint64(7), profile.CreatedAt)
	require.Equal(t, "new here", profile.Bio.String())
	require.NotNil(t, h.stats(t, caller.ID))

	_, found := h.holder(t, "")
	require.False(t, found, "the default username is never indexed")

	event := h.events[0].(types.ProfileUpdatedEvent)
	require.True(t, event.Created)
	require.Nil(t, event.Username)
	require.Equal(t, true, h.sink.records[0].Data["created"])
	require.Equal(t, "set", h.sink.records[0].Data["bio_op"])
	require.NotContains(t, h.sink.records[0].Data, "avatar_op")
}

func TestProfileUpdateCommand_ClearAndSetFields(t *testing.T) {
	h := newHarness()
	update := NewProfileUpdateCommand(h.profileConfig())
	caller := actor()

	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{
			Avatar: types.SetText("ipfs://a"),
			Bio:    types.SetText("bio"),
		},
	}))
	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{Avatar: types.ClearText()},
	}))

	profile := h.profile(t, caller.ID)
	require.Nil(t, profile.Avatar)
	require.NotNil(t, profile.Bio, "absent fields stay unchanged")
	require.Equal(t, "bio", profile.Bio.String())

	event := h.events[1].(types.ProfileUpdatedEvent)
	require.Equal(t, types.PatchClear, event.Avatar.Op)
	require.Equal(t, types.PatchUnchanged, event.Bio.Op)
}

func TestProfileUpdateCommand_AvatarUsesUsernameBound(t *testing.T) {
	h := newHarness()
	update := NewProfileUpdateCommand(h.profileConfig())

	err := update.Execute(context.Background(), ProfileUpdateInput{
		Actor: actor(),
		Patch: types.ProfilePatch{Avatar: types.SetText(strings.Repeat("a", int(types.DefaultMaxUsernameLength)+1))},
	})
	require.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestProfileUpdateCommand_RenameToOwnNameKeepsIndex(t *testing.T) {
	h := newHarness()
	setName := NewSetUsernameCommand(h.profileConfig())
	update := NewProfileUpdateCommand(h.profileConfig())
	caller := actor()

	require.NoError(t, setName.Execute(context.Background(), SetUsernameInput{Actor: caller, Username: "alice"}))
	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{Username: strPtr("alice")},
	}))

	holder, found := h.holder(t, "alice")
	require.True(t, found)
	require.Equal(t, caller.ID, holder)
}

func TestProfileUpdateCommand_Validation(t *testing.T) {
	h := newHarness()
	update := NewProfileUpdateCommand(h.profileConfig())

	require.ErrorIs(t, update.Execute(context.Background(), ProfileUpdateInput{}), ErrActorRequired)
	require.ErrorIs(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: actor(),
		Patch: types.ProfilePatch{Username: strPtr("")},
	}), ErrUsernameRequired)
	require.ErrorIs(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: actor(),
		Patch: types.ProfilePatch{Bio: types.TextPatch{Op: types.PatchOp(9)}},
	}), ErrInvalidPatchOp)
	require.Empty(t, h.events)
}

func TestProfileUpdateCommand_PreservesStats(t *testing.T) {
	h := newHarness()
	stats := NewStatsUpdateCommand(h.statsConfig(nil))
	update := NewProfileUpdateCommand(h.profileConfig())
	caller := actor()
	races := uint32(12)

	require.NoError(t, stats.Execute(context.Background(), StatsUpdateInput{Actor: caller, Patch: types.StatsPatch{TotalRaces: &races}}))
	require.NoError(t, update.Execute(context.Background(), ProfileUpdateInput{
		Actor: caller,
		Patch: types.ProfilePatch{Username: strPtr("alice")},
	}))

	require.Equal(t, uint32(12), h.stats(t, caller.ID).TotalRaces)
}
