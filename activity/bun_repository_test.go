package activity_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-directory/activity"
	"github.com/goliatone/go-directory/migrations"
	"github.com/goliatone/go-directory/migrations/migrationstest"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	store, err := activity.NewRepository(activity.RepositoryConfig{DB: newTestActivityDB(t)})
	require.NoError(t, err)

	owner := uuid.New()
	require.NoError(t, store.Log(ctx, types.ActivityRecord{
		ActorID:    owner,
		Verb:       "profile.username_set",
		ObjectType: "profile",
		ObjectID:   owner.String(),
		Data: map[string]any{
			"username": "alice",
			"created":  true,
		},
	}))

	page, err := store.ListActivity(ctx, types.ActivityFilter{
		Verbs:      []string{"profile.username_set"},
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, 1, page.Total)
	require.False(t, page.HasMore)
	record := page.Records[0]
	require.NotEqual(t, uuid.Nil, record.ID)
	require.Equal(t, owner, record.ActorID)
	require.Equal(t, "alice", record.Data["username"])
	require.Equal(t, true, record.Data["created"])
	require.False(t, record.OccurredAt.IsZero())
}

func TestRepository_FiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	store, err := activity.NewRepository(activity.RepositoryConfig{DB: newTestActivityDB(t)})
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Log(ctx, types.ActivityRecord{
			ActorID:    alice,
			Verb:       "counter.increment",
			ObjectType: "counter",
			ObjectID:   "global",
			Data:       map[string]any{"value": fmt.Sprint(i + 1)},
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Log(ctx, types.ActivityRecord{
		ActorID:    bob,
		Verb:       "stats.updated",
		ObjectType: "stats",
		ObjectID:   bob.String(),
		OccurredAt: base.Add(time.Hour),
	}))

	page, err := store.ListActivity(ctx, types.ActivityFilter{
		ActorID:    alice,
		Pagination: types.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.True(t, page.HasMore)
	require.Equal(t, 2, page.NextOffset)
	require.Len(t, page.Records, 2)
	require.Equal(t, "3", page.Records[0].Data["value"], "newest first")

	page, err = store.ListActivity(ctx, types.ActivityFilter{
		ActorID:    alice,
		Pagination: types.Pagination{Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.False(t, page.HasMore)

	page, err = store.ListActivity(ctx, types.ActivityFilter{ObjectType: "stats"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, bob, page.Records[0].ActorID)

	since := base.Add(30 * time.Second)
	until := base.Add(90 * time.Second)
	page, err = store.ListActivity(ctx, types.ActivityFilter{Since: &since, Until: &until})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "2", page.Records[0].Data["value"])
}

func TestRepository_CountByVerb(t *testing.T) {
	ctx := context.Background()
	store, err := activity.NewRepository(activity.RepositoryConfig{DB: newTestActivityDB(t)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: uuid.New(), Verb: "counter.increment"}))
	}
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: uuid.New(), Verb: "counter.reset"}))

	counts, err := store.CountByVerb(ctx, types.ActivityFilter{})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"counter.increment": 3, "counter.reset": 1}, counts)
}

func TestNewRepositoryRequiresDB(t *testing.T) {
	_, err := activity.NewRepository(activity.RepositoryConfig{})
	require.Error(t, err)
}

func newTestActivityDB(t *testing.T) *bun.DB {
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
