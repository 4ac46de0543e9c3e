package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

// ProfileQueryInput selects the profile of Owner.
type ProfileQueryInput struct {
	Owner uuid.UUID
}

// Type implements gocommand.Message.
func (ProfileQueryInput) Type() string {
	return "query.profile.get"
}

// Validate implements gocommand.Message.
func (input ProfileQueryInput) Validate() error {
	if input.Owner == uuid.Nil {
		return types.ErrActorRequired
	}
	return nil
}

// ProfileQuery fetches profile records.
type ProfileQuery struct {
	store types.StateStore
}

// NewProfileQuery constructs the profile query helper.
func NewProfileQuery(store types.StateStore) *ProfileQuery {
	return &ProfileQuery{store: store}
}

var _ gocommand.Querier[ProfileQueryInput, *types.Profile] = (*ProfileQuery)(nil)

// Query returns the profile or nil when the owner never created one.
func (q *ProfileQuery) Query(ctx context.Context, input ProfileQueryInput) (*types.Profile, error) {
	if q.store == nil {
		return nil, types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var profile *types.Profile
	err := q.store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		var err error
		profile, err = tables.Profiles().GetProfile(ctx, input.Owner)
		return err
	})
	return profile, err
}

// UsernameLookupInput resolves Username to its holder.
type UsernameLookupInput struct {
	Username string
}

// Type implements gocommand.Message.
func (UsernameLookupInput) Type() string {
	return "query.username.lookup"
}

// Validate implements gocommand.Message.
func (input UsernameLookupInput) Validate() error {
	if input.Username == "" {
		return types.ErrUsernameRequired
	}
	return nil
}

// UsernameLookupQuery reads the username index.
type UsernameLookupQuery struct {
	store types.StateStore
}

// NewUsernameLookupQuery constructs the lookup helper.
func NewUsernameLookupQuery(store types.StateStore) *UsernameLookupQuery {
	return &UsernameLookupQuery{store: store}
}

var _ gocommand.Querier[UsernameLookupInput, uuid.UUID] = (*UsernameLookupQuery)(nil)

// Query returns the holder of the username or types.ErrUsernameNotFound.
func (q *UsernameLookupQuery) Query(ctx context.Context, input UsernameLookupInput) (uuid.UUID, error) {
	if q.store == nil {
		return uuid.Nil, types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}
	var (
		owner uuid.UUID
		found bool
	)
	err := q.store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		var err error
		owner, found, err = tables.Usernames().LookupUsername(ctx, input.Username)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, types.ErrUsernameNotFound
	}
	return owner, nil
}
