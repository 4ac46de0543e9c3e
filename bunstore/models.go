package bunstore

import (
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// counterRowID is the primary key of the single directory_counter row.
const counterRowID = 1

// ProfileRecord models the directory_profiles row.
type ProfileRecord struct {
	bun.BaseModel `bun:"table:directory_profiles"`

	OwnerID   uuid.UUID `bun:"owner_id,pk,type:uuid"`
	Username  string    `bun:"username"`
	Avatar    *string   `bun:"avatar"`
	Bio       *string   `bun:"bio"`
	CreatedAt int64     `bun:"created_at"`
}

// UsernameRecord models the directory_usernames index row.
type UsernameRecord struct {
	bun.BaseModel `bun:"table:directory_usernames"`

	Username string    `bun:"username,pk"`
	OwnerID  uuid.UUID `bun:"owner_id,type:uuid"`
}

// StatsRecord models the directory_stats row.
type StatsRecord struct {
	bun.BaseModel `bun:"table:directory_stats"`

	OwnerID       uuid.UUID     `bun:"owner_id,pk,type:uuid"`
	TotalRaces    uint32        `bun:"total_races"`
	Wins          uint32        `bun:"wins"`
	TotalDistance int64         `bun:"total_distance"`
	TotalRewards  types.Uint128 `bun:"total_rewards"`
}

// CounterRecord models the directory_counter row.
type CounterRecord struct {
	bun.BaseModel `bun:"table:directory_counter"`

	ID    int   `bun:"id,pk"`
	Value int64 `bun:"value"`
}

func profileFromDomain(profile types.Profile) *ProfileRecord {
	rec := &ProfileRecord{
		OwnerID:   profile.Owner,
		Username:  profile.Username.String(),
		CreatedAt: int64(profile.CreatedAt),
	}
	if profile.Avatar != nil {
		value := profile.Avatar.String()
		rec.Avatar = &value
	}
	if profile.Bio != nil {
		value := profile.Bio.String()
		rec.Bio = &value
	}
	return rec
}

func profileToDomain(rec *ProfileRecord) *types.Profile {
	if rec == nil {
		return nil
	}
	profile := &types.Profile{
		Owner:     rec.OwnerID,
		Username:  types.RestoreText[types.UsernameBound](rec.Username),
		CreatedAt: uint64(rec.CreatedAt),
	}
	if rec.Avatar != nil {
		profile.Avatar = types.RestoreText[types.UsernameBound](*rec.Avatar).Ptr()
	}
	if rec.Bio != nil {
		profile.Bio = types.RestoreText[types.BioBound](*rec.Bio).Ptr()
	}
	return profile
}

func statsFromDomain(owner uuid.UUID, stats types.Stats) *StatsRecord {
	return &StatsRecord{
		OwnerID:       owner,
		TotalRaces:    stats.TotalRaces,
		Wins:          stats.Wins,
		TotalDistance: int64(stats.TotalDistance),
		TotalRewards:  stats.TotalRewards,
	}
}

func statsToDomain(rec *StatsRecord) *types.Stats {
	if rec == nil {
		return nil
	}
	return &types.Stats{
		TotalRaces:    rec.TotalRaces,
		Wins:          rec.Wins,
		TotalDistance: uint64(rec.TotalDistance),
		TotalRewards:  rec.TotalRewards,
	}
}
