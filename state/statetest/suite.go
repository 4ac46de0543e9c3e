// Package statetest holds the conformance suite every types.StateStore
// backend runs from its own tests.
package statetest

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for each subtest.
type Factory func(t *testing.T) types.StateStore

var errAbort = errors.New("statetest: abort")

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("EmptyStore", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			profile, err := tables.Profiles().GetProfile(ctx, owner)
			require.NoError(t, err)
			require.Nil(t, profile)

			stats, err := tables.Stats().GetStats(ctx, owner)
			require.NoError(t, err)
			require.Nil(t, stats)

			_, found, err := tables.Usernames().LookupUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, found)

			value, err := tables.Counter().LoadCounter(ctx)
			require.NoError(t, err)
			require.Zero(t, value)
			return nil
		}))
	})

	t.Run("UpdateCommits", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()
		avatar := types.RestoreText[types.UsernameBound]("ipfs://avatar")
		profile := types.Profile{
			Owner:     owner,
			Username:  types.RestoreText[types.UsernameBound]("alice"),
			Avatar:    &avatar,
			CreatedAt: 42,
		}
		stats := types.Stats{
			TotalRaces:    math.MaxUint32,
			Wins:          3,
			TotalDistance: math.MaxUint64,
			TotalRewards:  types.Uint128{Hi: math.MaxUint64, Lo: 5},
		}

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			require.NoError(t, tables.Profiles().PutProfile(ctx, profile))
			require.NoError(t, tables.Usernames().BindUsername(ctx, "alice", owner))
			require.NoError(t, tables.Stats().PutStats(ctx, owner, stats))
			return tables.Counter().StoreCounter(ctx, math.MaxUint64)
		}))

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			got, err := tables.Profiles().GetProfile(ctx, owner)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, profile, *got)

			holder, found, err := tables.Usernames().LookupUsername(ctx, "alice")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, owner, holder)

			gotStats, err := tables.Stats().GetStats(ctx, owner)
			require.NoError(t, err)
			require.NotNil(t, gotStats)
			require.Equal(t, stats, *gotStats)

			value, err := tables.Counter().LoadCounter(ctx)
			require.NoError(t, err)
			require.Equal(t, uint64(math.MaxUint64), value)
			return nil
		}))
	})

	t.Run("UpdateRollsBackOnError", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()

		err := store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			require.NoError(t, tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner}))
			require.NoError(t, tables.Usernames().BindUsername(ctx, "ghost", owner))
			require.NoError(t, tables.Stats().PutStats(ctx, owner, types.Stats{Wins: 1}))
			require.NoError(t, tables.Counter().StoreCounter(ctx, 9))
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			profile, err := tables.Profiles().GetProfile(ctx, owner)
			require.NoError(t, err)
			require.Nil(t, profile)

			_, found, err := tables.Usernames().LookupUsername(ctx, "ghost")
			require.NoError(t, err)
			require.False(t, found)

			stats, err := tables.Stats().GetStats(ctx, owner)
			require.NoError(t, err)
			require.Nil(t, stats)

			value, err := tables.Counter().LoadCounter(ctx)
			require.NoError(t, err)
			require.Zero(t, value)
			return nil
		}))
	})

	t.Run("UpdateReadsItsOwnWrites", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "alice", owner)
		}))

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			require.NoError(t, tables.Usernames().ReleaseUsername(ctx, "alice"))
			_, found, err := tables.Usernames().LookupUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, tables.Usernames().BindUsername(ctx, "bob", owner))
			holder, found, err := tables.Usernames().LookupUsername(ctx, "bob")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, owner, holder)

			require.NoError(t, tables.Counter().StoreCounter(ctx, 7))
			value, err := tables.Counter().LoadCounter(ctx)
			require.NoError(t, err)
			require.Equal(t, uint64(7), value)

			require.NoError(t, tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner, CreatedAt: 3}))
			profile, err := tables.Profiles().GetProfile(ctx, owner)
			require.NoError(t, err)
			require.NotNil(t, profile)
			require.Equal(t, uint64(3), profile.CreatedAt)
			return nil
		}))

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			_, found, err := tables.Usernames().LookupUsername(ctx, "alice")
			require.NoError(t, err)
			require.False(t, found)
			return nil
		}))
	})

	t.Run("ReleaseUnknownUsernameIsNoop", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().ReleaseUsername(ctx, "nobody")
		}))
	})

	t.Run("BindOverwritesOwner", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		first, second := uuid.New(), uuid.New()

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "shared", first)
		}))
		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			require.NoError(t, tables.Usernames().ReleaseUsername(ctx, "shared"))
			return tables.Usernames().BindUsername(ctx, "shared", second)
		}))

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			holder, found, err := tables.Usernames().LookupUsername(ctx, "shared")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, second, holder)
			return nil
		}))
	})

	t.Run("BindRejectsOtherOwner", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		first, second := uuid.New(), uuid.New()

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "alice", first)
		}))

		err := store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "alice", second)
		})
		require.ErrorIs(t, err, types.ErrUsernameTaken)

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "alice", first)
		}))

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			holder, found, err := tables.Usernames().LookupUsername(ctx, "alice")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, first, holder)
			return nil
		}))
	})

	t.Run("ProfileOverwriteClearsOptionalFields", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()
		bio := types.RestoreText[types.BioBound]("hi")

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner, Bio: &bio, CreatedAt: 1})
		}))
		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner, CreatedAt: 1})
		}))

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			profile, err := tables.Profiles().GetProfile(ctx, owner)
			require.NoError(t, err)
			require.NotNil(t, profile)
			require.Nil(t, profile.Bio)
			require.Nil(t, profile.Avatar)
			return nil
		}))
	})

	t.Run("ViewRejectsWrites", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := uuid.New()

		err := store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner})
		})
		require.ErrorIs(t, err, types.ErrReadOnly)

		err = store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Usernames().BindUsername(ctx, "alice", owner)
		})
		require.ErrorIs(t, err, types.ErrReadOnly)

		err = store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Counter().StoreCounter(ctx, 1)
		})
		require.ErrorIs(t, err, types.ErrReadOnly)
	})

	t.Run("ListProfilesPagesInOwnerOrder", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owners := make([]uuid.UUID, 5)
		for i := range owners {
			owners[i] = uuid.New()
		}

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			for i, owner := range owners {
				profile := types.Profile{Owner: owner, CreatedAt: uint64(i)}
				if err := tables.Profiles().PutProfile(ctx, profile); err != nil {
					return err
				}
			}
			return nil
		}))
		slices.SortFunc(owners, func(a, b uuid.UUID) int {
			return strings.Compare(a.String(), b.String())
		})

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			all, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{})
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Len(t, all, 5)
			for i, profile := range all {
				require.Equal(t, owners[i], profile.Owner)
			}

			page, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{Limit: 2, Offset: 2})
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Len(t, page, 2)
			require.Equal(t, owners[2], page[0].Owner)
			require.Equal(t, owners[3], page[1].Owner)

			tail, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{Limit: 10, Offset: 4})
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Len(t, tail, 1)

			past, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{Limit: 10, Offset: 9})
			require.NoError(t, err)
			require.Equal(t, 5, total)
			require.Empty(t, past)
			return nil
		}))
	})

	t.Run("ListProfilesSeesStagedWrites", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		committed, staged := uuid.New(), uuid.New()

		require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			return tables.Profiles().PutProfile(ctx, types.Profile{Owner: committed})
		}))

		err := store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
			require.NoError(t, tables.Profiles().PutProfile(ctx, types.Profile{Owner: staged, CreatedAt: 7}))
			require.NoError(t, tables.Profiles().PutProfile(ctx, types.Profile{Owner: committed, CreatedAt: 8}))
			profiles, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{})
			require.NoError(t, err)
			require.Equal(t, 2, total)
			require.Len(t, profiles, 2)
			for _, profile := range profiles {
				if profile.Owner == committed {
					require.Equal(t, uint64(8), profile.CreatedAt)
				}
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
			profiles, total, err := tables.Profiles().ListProfiles(ctx, types.Pagination{})
			require.NoError(t, err)
			require.Equal(t, 1, total)
			require.Equal(t, committed, profiles[0].Owner)
			require.Zero(t, profiles[0].CreatedAt)
			return nil
		}))
	})
}
