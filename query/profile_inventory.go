package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/pkg/types"
)

const (
	defaultInventoryLimit = 50
	maxInventoryLimit     = 200
)

// ProfileInventoryInput pages through every profile in owner order.
type ProfileInventoryInput struct {
	Actor      types.ActorRef
	Pagination types.Pagination
}

// Type implements gocommand.Message.
func (ProfileInventoryInput) Type() string {
	return "query.profile.inventory"
}

// Validate implements gocommand.Message.
func (input ProfileInventoryInput) Validate() error {
	if input.Actor.IsZero() {
		return types.ErrActorRequired
	}
	return nil
}

// ProfileInventoryQuery lists profiles for directory pages.
type ProfileInventoryQuery struct {
	store  types.StateStore
	logger types.Logger
}

// NewProfileInventoryQuery constructs the query helper.
func NewProfileInventoryQuery(store types.StateStore, logger types.Logger) *ProfileInventoryQuery {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &ProfileInventoryQuery{
		store:  store,
		logger: logger,
	}
}

var _ gocommand.Querier[ProfileInventoryInput, types.ProfilePage] = (*ProfileInventoryQuery)(nil)

// Query reads one normalized page of the identity -> profile table.
func (q *ProfileInventoryQuery) Query(ctx context.Context, input ProfileInventoryInput) (types.ProfilePage, error) {
	if q.store == nil {
		return types.ProfilePage{}, types.ErrMissingStateStore
	}
	if err := input.Validate(); err != nil {
		return types.ProfilePage{}, err
	}
	pagination := normalizeInventoryPagination(input.Pagination)

	var (
		profiles []types.Profile
		total    int
	)
	err := q.store.View(ctx, func(ctx context.Context, tables types.Tables) error {
		var err error
		profiles, total, err = tables.Profiles().ListProfiles(ctx, pagination)
		return err
	})
	if err != nil {
		q.logger.Error("profile inventory failed", err, "offset", pagination.Offset, "limit", pagination.Limit)
		return types.ProfilePage{}, err
	}
	if profiles == nil {
		profiles = []types.Profile{}
	}
	return types.ProfilePage{
		Profiles:   profiles,
		Total:      total,
		NextOffset: pagination.Offset + len(profiles),
		HasMore:    pagination.Offset+len(profiles) < total,
	}, nil
}

func normalizeInventoryPagination(p types.Pagination) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultInventoryLimit
	}
	if p.Limit > maxInventoryLimit {
		p.Limit = maxInventoryLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
