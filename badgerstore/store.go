package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

var (
	counterKey     = []byte("counter")
	profilePrefix  = []byte("profile/")
	usernamePrefix = []byte("username/")
	statsPrefix    = []byte("stats/")
)

// Store implements types.StateStore. Each Update is one Badger read-write
// transaction; concurrent writers touching the same keys fail with
// badger.ErrConflict and may retry.
type Store struct {
	db *badger.DB
}

// New wraps an open BadgerDB handle.
func New(db *badger.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("badgerstore: db required")
	}
	return &Store{db: db}, nil
}

var _ types.StateStore = (*Store)(nil)

// Update runs fn in a read-write transaction committed when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := fn(ctx, &tables{txn: txn, writable: true}); err != nil {
			return err
		}
		return ctx.Err()
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(ctx, &tables{txn: txn})
	})
}

type tables struct {
	txn      *badger.Txn
	writable bool
}

func (t *tables) Profiles() types.ProfileTable   { return profileTable{t} }
func (t *tables) Usernames() types.UsernameTable { return usernameTable{t} }
func (t *tables) Stats() types.StatsTable        { return statsTable{t} }
func (t *tables) Counter() types.CounterTable    { return counterTable{t} }

// get returns nil, nil when key is absent.
func (t *tables) get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *tables) set(key, value []byte) error {
	if !t.writable {
		return types.ErrReadOnly
	}
	return t.txn.Set(key, value)
}

func (t *tables) delete(key []byte) error {
	if !t.writable {
		return types.ErrReadOnly
	}
	return t.txn.Delete(key)
}

func ownerKey(prefix []byte, owner uuid.UUID) []byte {
	return append(append([]byte{}, prefix...), owner.String()...)
}

func usernameKey(username string) []byte {
	return append(append([]byte{}, usernamePrefix...), username...)
}

type profileDocument struct {
	Username  string  `json:"username"`
	Avatar    *string `json:"avatar,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	CreatedAt uint64  `json:"created_at"`
}

type profileTable struct{ t *tables }

func (p profileTable) GetProfile(_ context.Context, owner uuid.UUID) (*types.Profile, error) {
	raw, err := p.t.get(ownerKey(profilePrefix, owner))
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeProfile(owner, raw)
}

func decodeProfile(owner uuid.UUID, raw []byte) (*types.Profile, error) {
	var doc profileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("badgerstore: decode profile %s: %w", owner, err)
	}
	profile := &types.Profile{
		Owner:     owner,
		Username:  types.RestoreText[types.UsernameBound](doc.Username),
		CreatedAt: doc.CreatedAt,
	}
	if doc.Avatar != nil {
		profile.Avatar = types.RestoreText[types.UsernameBound](*doc.Avatar).Ptr()
	}
	if doc.Bio != nil {
		profile.Bio = types.RestoreText[types.BioBound](*doc.Bio).Ptr()
	}
	return profile, nil
}

func (p profileTable) ListProfiles(_ context.Context, page types.Pagination) ([]types.Profile, int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = profilePrefix
	it := p.t.txn.NewIterator(opts)
	defer it.Close()

	var (
		out   []types.Profile
		total int
	)
	offset := max(page.Offset, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		index := total
		total++
		if index < offset || (page.Limit > 0 && index >= offset+page.Limit) {
			continue
		}
		item := it.Item()
		owner, err := uuid.ParseBytes(item.Key()[len(profilePrefix):])
		if err != nil {
			return nil, 0, fmt.Errorf("badgerstore: decode profile key %q: %w", item.Key(), err)
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, 0, err
		}
		profile, err := decodeProfile(owner, raw)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *profile)
	}
	return out, total, nil
}

func (p profileTable) PutProfile(_ context.Context, profile types.Profile) error {
	doc := profileDocument{
		Username:  profile.Username.String(),
		CreatedAt: profile.CreatedAt,
	}
	if profile.Avatar != nil {
		value := profile.Avatar.String()
		doc.Avatar = &value
	}
	if profile.Bio != nil {
		value := profile.Bio.String()
		doc.Bio = &value
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return p.t.set(ownerKey(profilePrefix, profile.Owner), raw)
}

type usernameTable struct{ t *tables }

func (u usernameTable) LookupUsername(_ context.Context, username string) (uuid.UUID, bool, error) {
	raw, err := u.t.get(usernameKey(username))
	if err != nil || raw == nil {
		return uuid.Nil, false, err
	}
	owner, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("badgerstore: decode username %q: %w", username, err)
	}
	return owner, true, nil
}

func (u usernameTable) BindUsername(ctx context.Context, username string, owner uuid.UUID) error {
	if !u.t.writable {
		return types.ErrReadOnly
	}
	holder, found, err := u.LookupUsername(ctx, username)
	if err != nil {
		return err
	}
	if found {
		if holder != owner {
			return types.ErrUsernameTaken
		}
		return nil
	}
	return u.t.set(usernameKey(username), owner[:])
}

func (u usernameTable) ReleaseUsername(_ context.Context, username string) error {
	return u.t.delete(usernameKey(username))
}

type statsDocument struct {
	TotalRaces    uint32        `json:"total_races"`
	Wins          uint32        `json:"wins"`
	TotalDistance uint64        `json:"total_distance"`
	TotalRewards  types.Uint128 `json:"total_rewards"`
}

type statsTable struct{ t *tables }

func (s statsTable) GetStats(_ context.Context, owner uuid.UUID) (*types.Stats, error) {
	raw, err := s.t.get(ownerKey(statsPrefix, owner))
	if err != nil || raw == nil {
		return nil, err
	}
	var doc statsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("badgerstore: decode stats %s: %w", owner, err)
	}
	return &types.Stats{
		TotalRaces:    doc.TotalRaces,
		Wins:          doc.Wins,
		TotalDistance: doc.TotalDistance,
		TotalRewards:  doc.TotalRewards,
	}, nil
}

func (s statsTable) PutStats(_ context.Context, owner uuid.UUID, stats types.Stats) error {
	raw, err := json.Marshal(statsDocument{
		TotalRaces:    stats.TotalRaces,
		Wins:          stats.Wins,
		TotalDistance: stats.TotalDistance,
		TotalRewards:  stats.TotalRewards,
	})
	if err != nil {
		return err
	}
	return s.t.set(ownerKey(statsPrefix, owner), raw)
}

type counterTable struct{ t *tables }

func (c counterTable) LoadCounter(context.Context) (uint64, error) {
	raw, err := c.t.get(counterKey)
	if err != nil || raw == nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("badgerstore: counter value has %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (c counterTable) StoreCounter(_ context.Context, value uint64) error {
	return c.t.set(counterKey, binary.BigEndian.AppendUint64(nil, value))
}
