package bunstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-directory/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Config wires the Bun-backed state store.
type Config struct {
	DB *bun.DB
}

// Store implements types.StateStore on top of a SQL database through Bun.
// Every Update runs in one database transaction.
type Store struct {
	db     *bun.DB
	driver string
}

// New constructs the store. Schema comes from the directory migrations.
func New(cfg Config) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("bunstore: db required")
	}
	return &Store{
		db:     cfg.DB,
		driver: repository.DetectDriver(cfg.DB),
	}, nil
}

var _ types.StateStore = (*Store)(nil)

// Update runs fn inside a transaction and commits when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	return s.run(ctx, true, fn)
}

// View runs fn inside a transaction that rejects writes with types.ErrReadOnly.
func (s *Store) View(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(context.Context, types.Tables) error) error {
	if fn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &tables{db: tx, writable: writable, driver: s.driver})
	})
}

type tables struct {
	db       bun.IDB
	writable bool
	driver   string
}

func (t *tables) Profiles() types.ProfileTable   { return profileTable{t} }
func (t *tables) Usernames() types.UsernameTable { return usernameTable{t} }
func (t *tables) Stats() types.StatsTable        { return statsTable{t} }
func (t *tables) Counter() types.CounterTable    { return counterTable{t} }

func (t *tables) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return repository.MapDatabaseError(err, t.driver)
}

func (t *tables) checkWritable() error {
	if !t.writable {
		return types.ErrReadOnly
	}
	return nil
}

type profileTable struct{ t *tables }

func (p profileTable) GetProfile(ctx context.Context, owner uuid.UUID) (*types.Profile, error) {
	rec := new(ProfileRecord)
	err := p.t.db.NewSelect().Model(rec).Where("owner_id = ?", owner).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, p.t.mapErr(err)
	}
	return profileToDomain(rec), nil
}

func (p profileTable) PutProfile(ctx context.Context, profile types.Profile) error {
	if err := p.t.checkWritable(); err != nil {
		return err
	}
	_, err := p.t.db.NewInsert().
		Model(profileFromDomain(profile)).
		On("CONFLICT (owner_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("avatar = EXCLUDED.avatar").
		Set("bio = EXCLUDED.bio").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return p.t.mapErr(err)
}

func (p profileTable) ListProfiles(ctx context.Context, page types.Pagination) ([]types.Profile, int, error) {
	total, err := p.t.db.NewSelect().Model((*ProfileRecord)(nil)).Count(ctx)
	if err != nil {
		return nil, 0, p.t.mapErr(err)
	}
	var records []ProfileRecord
	query := p.t.db.NewSelect().Model(&records).OrderExpr("owner_id ASC")
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, 0, p.t.mapErr(err)
	}
	out := make([]types.Profile, 0, len(records))
	for i := range records {
		out = append(out, *profileToDomain(&records[i]))
	}
	return out, total, nil
}

type usernameTable struct{ t *tables }

func (u usernameTable) LookupUsername(ctx context.Context, username string) (uuid.UUID, bool, error) {
	rec := new(UsernameRecord)
	err := u.t.db.NewSelect().Model(rec).Where("username = ?", username).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, u.t.mapErr(err)
	}
	return rec.OwnerID, true, nil
}

// BindUsername inserts with DO NOTHING on conflict so a losing writer never
// aborts the surrounding transaction; the holder is then checked explicitly.
func (u usernameTable) BindUsername(ctx context.Context, username string, owner uuid.UUID) error {
	if err := u.t.checkWritable(); err != nil {
		return err
	}
	res, err := u.t.db.NewInsert().
		Model(&UsernameRecord{Username: username, OwnerID: owner}).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return u.t.mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}
	holder, found, err := u.LookupUsername(ctx, username)
	if err != nil {
		return err
	}
	if found && holder != owner {
		return types.ErrUsernameTaken
	}
	return nil
}

func (u usernameTable) ReleaseUsername(ctx context.Context, username string) error {
	if err := u.t.checkWritable(); err != nil {
		return err
	}
	_, err := u.t.db.NewDelete().
		Model((*UsernameRecord)(nil)).
		Where("username = ?", username).
		Exec(ctx)
	return u.t.mapErr(err)
}

type statsTable struct{ t *tables }

func (s statsTable) GetStats(ctx context.Context, owner uuid.UUID) (*types.Stats, error) {
	rec := new(StatsRecord)
	err := s.t.db.NewSelect().Model(rec).Where("owner_id = ?", owner).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.t.mapErr(err)
	}
	return statsToDomain(rec), nil
}

func (s statsTable) PutStats(ctx context.Context, owner uuid.UUID, stats types.Stats) error {
	if err := s.t.checkWritable(); err != nil {
		return err
	}
	_, err := s.t.db.NewInsert().
		Model(statsFromDomain(owner, stats)).
		On("CONFLICT (owner_id) DO UPDATE").
		Set("total_races = EXCLUDED.total_races").
		Set("wins = EXCLUDED.wins").
		Set("total_distance = EXCLUDED.total_distance").
		Set("total_rewards = EXCLUDED.total_rewards").
		Exec(ctx)
	return s.t.mapErr(err)
}

type counterTable struct{ t *tables }

func (c counterTable) LoadCounter(ctx context.Context) (uint64, error) {
	rec := new(CounterRecord)
	err := c.t.db.NewSelect().Model(rec).Where("id = ?", counterRowID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, c.t.mapErr(err)
	}
	return uint64(rec.Value), nil
}

func (c counterTable) StoreCounter(ctx context.Context, value uint64) error {
	if err := c.t.checkWritable(); err != nil {
		return err
	}
	_, err := c.t.db.NewInsert().
		Model(&CounterRecord{ID: counterRowID, Value: int64(value)}).
		On("CONFLICT (id) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return c.t.mapErr(err)
}
