package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"testing"

	"github.com/goliatone/go-directory/migrations"
	"github.com/goliatone/go-directory/migrations/migrationstest"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/state/statetest"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestStoreConformance(t *testing.T) {
	statetest.Run(t, func(t *testing.T) types.StateStore {
		store, err := New(Config{DB: newTestDB(t)})
		require.NoError(t, err)
		return store
	})
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestStore_UnsignedColumnsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store, err := New(Config{DB: db})
	require.NoError(t, err)
	owner := uuid.New()

	require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		require.NoError(t, tables.Profiles().PutProfile(ctx, types.Profile{Owner: owner, CreatedAt: math.MaxUint64}))
		return tables.Counter().StoreCounter(ctx, math.MaxUint64-1)
	}))

	var raw int64
	require.NoError(t, db.NewSelect().Table("directory_counter").Column("value").Where("id = ?", counterRowID).Scan(ctx, &raw))
	require.Equal(t, int64(-2), raw)

	require.NoError(t, store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		profile, err := tables.Profiles().GetProfile(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, uint64(math.MaxUint64), profile.CreatedAt)
		value, err := tables.Counter().LoadCounter(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(math.MaxUint64-1), value)
		return nil
	}))
}

func TestStore_RewardsPersistAsDecimalText(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store, err := New(Config{DB: db})
	require.NoError(t, err)
	owner := uuid.New()
	rewards, err := types.ParseUint128("340282366920938463463374607431768211455")
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(ctx context.Context, tables types.Tables) error {
		return tables.Stats().PutStats(ctx, owner, types.Stats{TotalRewards: rewards})
	}))

	var raw string
	require.NoError(t, db.NewSelect().Table("directory_stats").Column("total_rewards").Where("owner_id = ?", owner).Scan(ctx, &raw))
	require.Equal(t, "340282366920938463463374607431768211455", raw)
}

func newTestDB(t *testing.T) *bun.DB {
	// a distinct shared-cache name per test keeps subtests isolated
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	require.NoError(t, migrationstest.Apply(context.Background(), db, migrations.DialectSQLite))
	return db
}
