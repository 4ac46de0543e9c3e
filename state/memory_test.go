package state

import (
	"context"
	"testing"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/state/statetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Conformance(t *testing.T) {
	statetest.Run(t, func(*testing.T) types.StateStore {
		return NewMemoryStore()
	})
}

func TestMemoryStore_ReturnedProfilesAreDetached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()
	bio := types.RestoreText[types.BioBound]("original")

	require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		return tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner, Bio: &bio})
	}))

	require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		profile, err := tables.Profiles().GetProfile(ctx, owner)
		require.NoError(t, err)
		*profile.Bio = types.RestoreText[types.BioBound]("mutated")
		return nil
	}))

	require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		profile, err := tables.Profiles().GetProfile(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, "original", profile.Bio.String())
		return nil
	}))
}

func TestMemoryStore_CancelledContextSkipsUnit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	called := false
	err := store.Update(ctx, func(context.Context, types.Tables) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
