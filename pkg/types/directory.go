package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUsernameTaken indicates another identity already holds the username.
	ErrUsernameTaken = errors.New("go-directory: username taken")
	// ErrUsernameRequired indicates an empty username was supplied where a
	// name must be set.
	ErrUsernameRequired = errors.New("go-directory: username required")
	// ErrUsernameNotFound indicates no identity holds the username.
	ErrUsernameNotFound = errors.New("go-directory: username not found")
	// ErrCounterOverflow indicates the counter register is saturated.
	ErrCounterOverflow = errors.New("go-directory: counter overflow")
	// ErrStatsUpdateDisabled indicates stats updates are switched off via feature gate.
	ErrStatsUpdateDisabled = errors.New("go-directory: stats update disabled")
)

// Profile is the per-identity directory record. Username is empty until the
// owner picks one; the empty username is never indexed.
type Profile struct {
	Owner     uuid.UUID
	Username  Username
	Avatar    *Avatar
	Bio       *Bio
	CreatedAt uint64
}

// HasUsername reports whether the profile holds an indexed username.
func (p Profile) HasUsername() bool {
	return !p.Username.IsEmpty()
}

// Stats carries per-identity race counters. It lives independently of Profile.
type Stats struct {
	TotalRaces    uint32
	Wins          uint32
	TotalDistance uint64
	TotalRewards  Uint128
}

// PatchOp selects how an optional profile field is changed.
type PatchOp uint8

const (
	// PatchUnchanged leaves the field as is.
	PatchUnchanged PatchOp = iota
	// PatchClear removes the field.
	PatchClear
	// PatchSet replaces the field with Value.
	PatchSet
)

// String returns the op name used in activity payloads.
func (op PatchOp) String() string {
	switch op {
	case PatchClear:
		return "clear"
	case PatchSet:
		return "set"
	default:
		return "unchanged"
	}
}

// TextPatch is a tri-state change for a nullable text field.
type TextPatch struct {
	Op    PatchOp
	Value string
}

// SetText returns a patch that sets the field to value.
func SetText(value string) TextPatch {
	return TextPatch{Op: PatchSet, Value: value}
}

// ClearText returns a patch that clears the field.
func ClearText() TextPatch {
	return TextPatch{Op: PatchClear}
}

// Present reports whether the patch touches the field.
func (p TextPatch) Present() bool {
	return p.Op == PatchClear || p.Op == PatchSet
}

// ProfilePatch represents a partial update. Username is never nullable so a
// nil pointer means "unchanged".
type ProfilePatch struct {
	Username *string
	Avatar   TextPatch
	Bio      TextPatch
}

// StatsPatch overwrites the non-nil fields.
type StatsPatch struct {
	TotalRaces    *uint32
	Wins          *uint32
	TotalDistance *uint64
	TotalRewards  *Uint128
}

// Apply returns stats with the patch applied.
func (p StatsPatch) Apply(stats Stats) Stats {
	if p.TotalRaces != nil {
		stats.TotalRaces = *p.TotalRaces
	}
	if p.Wins != nil {
		stats.Wins = *p.Wins
	}
	if p.TotalDistance != nil {
		stats.TotalDistance = *p.TotalDistance
	}
	if p.TotalRewards != nil {
		stats.TotalRewards = *p.TotalRewards
	}
	return stats
}

// CounterEvent is emitted after the counter changes.
type CounterEvent struct {
	Action     string
	Value      uint64
	ActorID    uuid.UUID
	OccurredAt time.Time
}

// UsernameSetEvent is emitted after set_username commits.
type UsernameSetEvent struct {
	Owner      uuid.UUID
	Username   Username
	Previous   Username
	Created    bool
	OccurredAt time.Time
}

// AvatarChange mirrors an applied avatar patch.
type AvatarChange struct {
	Op    PatchOp
	Value Avatar
}

// BioChange mirrors an applied bio patch.
type BioChange struct {
	Op    PatchOp
	Value Bio
}

// ProfileUpdatedEvent reflects only the fields present in the call.
type ProfileUpdatedEvent struct {
	Owner      uuid.UUID
	Username   *Username
	Avatar     AvatarChange
	Bio        BioChange
	Created    bool
	OccurredAt time.Time
}

// ProfilePage is one page of the profile inventory.
type ProfilePage struct {
	Profiles   []Profile
	Total      int
	NextOffset int
	HasMore    bool
}

// StatsUpdatedEvent carries all four current values.
type StatsUpdatedEvent struct {
	Owner      uuid.UUID
	Stats      Stats
	OccurredAt time.Time
}

// Hooks groups optional callbacks invoked after a call commits.
type Hooks struct {
	AfterCounterChange func(context.Context, CounterEvent)
	AfterUsernameSet   func(context.Context, UsernameSetEvent)
	AfterProfileChange func(context.Context, ProfileUpdatedEvent)
	AfterStatsChange   func(context.Context, StatsUpdatedEvent)
	AfterActivity      func(context.Context, ActivityRecord)
}

// ProfileTable is the identity -> profile record store.
type ProfileTable interface {
	// GetProfile returns nil, nil when the owner has no profile.
	GetProfile(ctx context.Context, owner uuid.UUID) (*Profile, error)
	PutProfile(ctx context.Context, profile Profile) error
	// ListProfiles returns one page of profiles ordered by the owner's
	// canonical string form, plus the total profile count. A non-positive
	// Limit returns every profile from Offset.
	ListProfiles(ctx context.Context, page Pagination) ([]Profile, int, error)
}

// UsernameTable is the username -> identity index.
type UsernameTable interface {
	LookupUsername(ctx context.Context, username string) (uuid.UUID, bool, error)
	// BindUsername fails with ErrUsernameTaken when another owner holds the
	// name and is a no-op when owner already holds it.
	BindUsername(ctx context.Context, username string, owner uuid.UUID) error
	ReleaseUsername(ctx context.Context, username string) error
}

// StatsTable is the identity -> stats store.
type StatsTable interface {
	// GetStats returns nil, nil when the owner has no stats entry.
	GetStats(ctx context.Context, owner uuid.UUID) (*Stats, error)
	PutStats(ctx context.Context, owner uuid.UUID, stats Stats) error
}

// CounterTable holds the global counter register.
type CounterTable interface {
	LoadCounter(ctx context.Context) (uint64, error)
	StoreCounter(ctx context.Context, value uint64) error
}

// Tables exposes the four directory tables bound to one unit of work.
type Tables interface {
	Profiles() ProfileTable
	Usernames() UsernameTable
	Stats() StatsTable
	Counter() CounterTable
}

// StateStore runs units of work over the directory tables. Update commits every
// write made by fn or none of them; View is read-only.
type StateStore interface {
	Update(ctx context.Context, fn func(ctx context.Context, tables Tables) error) error
	View(ctx context.Context, fn func(ctx context.Context, tables Tables) error) error
}
