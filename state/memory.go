package state

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

// MemoryStore keeps the directory tables in process memory. Update units stage
// writes on an overlay that is merged only when fn returns nil.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[uuid.UUID]types.Profile
	usernames map[string]uuid.UUID
	stats     map[uuid.UUID]types.Stats
	counter   uint64
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[uuid.UUID]types.Profile),
		usernames: make(map[string]uuid.UUID),
		stats:     make(map[uuid.UUID]types.Stats),
	}
}

var _ types.StateStore = (*MemoryStore)(nil)

// Update runs fn against a staged overlay and commits it when fn succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemoryTx(s, true)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn against the committed tables. Writes fail with types.ErrReadOnly.
func (s *MemoryStore) View(ctx context.Context, fn func(context.Context, types.Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, newMemoryTx(s, false))
}

type memoryTx struct {
	store     *MemoryStore
	writable  bool
	profiles  map[uuid.UUID]types.Profile
	usernames map[string]*uuid.UUID
	stats     map[uuid.UUID]types.Stats
	counter   *uint64
}

func newMemoryTx(store *MemoryStore, writable bool) *memoryTx {
	return &memoryTx{
		store:     store,
		writable:  writable,
		profiles:  make(map[uuid.UUID]types.Profile),
		usernames: make(map[string]*uuid.UUID),
		stats:     make(map[uuid.UUID]types.Stats),
	}
}

func (tx *memoryTx) commit() {
	for owner, profile := range tx.profiles {
		tx.store.profiles[owner] = profile
	}
	for name, owner := range tx.usernames {
		if owner == nil {
			delete(tx.store.usernames, name)
			continue
		}
		tx.store.usernames[name] = *owner
	}
	for owner, stats := range tx.stats {
		tx.store.stats[owner] = stats
	}
	if tx.counter != nil {
		tx.store.counter = *tx.counter
	}
}

func (tx *memoryTx) Profiles() types.ProfileTable   { return memoryProfiles{tx} }
func (tx *memoryTx) Usernames() types.UsernameTable { return memoryUsernames{tx} }
func (tx *memoryTx) Stats() types.StatsTable        { return memoryStats{tx} }
func (tx *memoryTx) Counter() types.CounterTable    { return memoryCounter{tx} }

type memoryProfiles struct{ tx *memoryTx }

func (t memoryProfiles) GetProfile(_ context.Context, owner uuid.UUID) (*types.Profile, error) {
	if profile, ok := t.tx.profiles[owner]; ok {
		return cloneProfile(profile), nil
	}
	if profile, ok := t.tx.store.profiles[owner]; ok {
		return cloneProfile(profile), nil
	}
	return nil, nil
}

func (t memoryProfiles) PutProfile(_ context.Context, profile types.Profile) error {
	if !t.tx.writable {
		return types.ErrReadOnly
	}
	t.tx.profiles[profile.Owner] = *cloneProfile(profile)
	return nil
}

func (t memoryProfiles) ListProfiles(ctx context.Context, page types.Pagination) ([]types.Profile, int, error) {
	owners := make([]uuid.UUID, 0, len(t.tx.store.profiles)+len(t.tx.profiles))
	for owner := range t.tx.store.profiles {
		owners = append(owners, owner)
	}
	for owner := range t.tx.profiles {
		if _, committed := t.tx.store.profiles[owner]; !committed {
			owners = append(owners, owner)
		}
	}
	slices.SortFunc(owners, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	total := len(owners)
	start := min(max(page.Offset, 0), total)
	end := total
	if page.Limit > 0 {
		end = min(start+page.Limit, total)
	}
	out := make([]types.Profile, 0, end-start)
	for _, owner := range owners[start:end] {
		profile, _ := t.GetProfile(ctx, owner)
		out = append(out, *profile)
	}
	return out, total, nil
}

type memoryUsernames struct{ tx *memoryTx }

func (t memoryUsernames) LookupUsername(_ context.Context, username string) (uuid.UUID, bool, error) {
	if owner, staged := t.tx.usernames[username]; staged {
		if owner == nil {
			return uuid.Nil, false, nil
		}
		return *owner, true, nil
	}
	owner, ok := t.tx.store.usernames[username]
	return owner, ok, nil
}

func (t memoryUsernames) BindUsername(ctx context.Context, username string, owner uuid.UUID) error {
	if !t.tx.writable {
		return types.ErrReadOnly
	}
	holder, found, _ := t.LookupUsername(ctx, username)
	if found && holder != owner {
		return types.ErrUsernameTaken
	}
	id := owner
	t.tx.usernames[username] = &id
	return nil
}

func (t memoryUsernames) ReleaseUsername(_ context.Context, username string) error {
	if !t.tx.writable {
		return types.ErrReadOnly
	}
	t.tx.usernames[username] = nil
	return nil
}

type memoryStats struct{ tx *memoryTx }

func (t memoryStats) GetStats(_ context.Context, owner uuid.UUID) (*types.Stats, error) {
	if stats, ok := t.tx.stats[owner]; ok {
		return &stats, nil
	}
	if stats, ok := t.tx.store.stats[owner]; ok {
		return &stats, nil
	}
	return nil, nil
}

func (t memoryStats) PutStats(_ context.Context, owner uuid.UUID, stats types.Stats) error {
	if !t.tx.writable {
		return types.ErrReadOnly
	}
	t.tx.stats[owner] = stats
	return nil
}

type memoryCounter struct{ tx *memoryTx }

func (t memoryCounter) LoadCounter(context.Context) (uint64, error) {
	if t.tx.counter != nil {
		return *t.tx.counter, nil
	}
	return t.tx.store.counter, nil
}

func (t memoryCounter) StoreCounter(_ context.Context, value uint64) error {
	if !t.tx.writable {
		return types.ErrReadOnly
	}
	t.tx.counter = &value
	return nil
}

func cloneProfile(profile types.Profile) *types.Profile {
	out := profile
	if profile.Avatar != nil {
		out.Avatar = profile.Avatar.Ptr()
	}
	if profile.Bio != nil {
		out.Bio = profile.Bio.Ptr()
	}
	return &out
}
