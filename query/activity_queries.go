package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/activity"
	"github.com/goliatone/go-directory/pkg/types"
)

// ActivityFeedQuery renders paginated activity feeds.
type ActivityFeedQuery struct {
	repo   types.ActivityRepository
	policy activity.AccessPolicy
}

// NewActivityFeedQuery constructs the feed query helper. A nil policy uses
// activity.NewDefaultAccessPolicy.
func NewActivityFeedQuery(repo types.ActivityRepository, policy activity.AccessPolicy) *ActivityFeedQuery {
	return &ActivityFeedQuery{
		repo:   repo,
		policy: safeAccessPolicy(policy),
	}
}

var _ gocommand.Querier[types.ActivityFilter, types.ActivityPage] = (*ActivityFeedQuery)(nil)

// Query fetches a page of sanitized activity the caller is allowed to read.
func (q *ActivityFeedQuery) Query(ctx context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	if q.repo == nil {
		return types.ActivityPage{}, types.ErrMissingActivityRepository
	}
	if err := filter.Validate(); err != nil {
		return types.ActivityPage{}, err
	}
	filter, err := q.policy.Apply(filter.Actor, filter)
	if err != nil {
		return types.ActivityPage{}, err
	}
	page, err := q.repo.ListActivity(ctx, filter)
	if err != nil {
		return types.ActivityPage{}, err
	}
	page.Records = q.policy.Sanitize(page.Records)
	return page, nil
}

// ActivityStatsQuery aggregates the visible feed per verb.
type ActivityStatsQuery struct {
	repo   types.ActivityRepository
	policy activity.AccessPolicy
}

// NewActivityStatsQuery constructs the stats helper.
func NewActivityStatsQuery(repo types.ActivityRepository, policy activity.AccessPolicy) *ActivityStatsQuery {
	return &ActivityStatsQuery{
		repo:   repo,
		policy: safeAccessPolicy(policy),
	}
}

var _ gocommand.Querier[types.ActivityFilter, types.ActivityStats] = (*ActivityStatsQuery)(nil)

// Query returns per-verb counts under the same access rules as the feed.
func (q *ActivityStatsQuery) Query(ctx context.Context, filter types.ActivityFilter) (types.ActivityStats, error) {
	if q.repo == nil {
		return types.ActivityStats{}, types.ErrMissingActivityRepository
	}
	if err := filter.Validate(); err != nil {
		return types.ActivityStats{}, err
	}
	filter, err := q.policy.Apply(filter.Actor, filter)
	if err != nil {
		return types.ActivityStats{}, err
	}
	counts, err := q.repo.CountByVerb(ctx, filter)
	if err != nil {
		return types.ActivityStats{}, err
	}
	stats := types.ActivityStats{ByVerb: counts}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

func safeAccessPolicy(policy activity.AccessPolicy) activity.AccessPolicy {
	if policy == nil {
		return activity.NewDefaultAccessPolicy()
	}
	return policy
}
