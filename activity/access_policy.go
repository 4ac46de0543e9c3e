package activity

import (
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-masker"
	"github.com/google/uuid"
)

// AccessPolicy decides which activity a caller may read and how the records
// are exposed.
type AccessPolicy interface {
	Apply(actor types.ActorRef, filter types.ActivityFilter) (types.ActivityFilter, error)
	Sanitize(records []types.ActivityRecord) []types.ActivityRecord
}

// AccessPolicyOption customizes the default access policy.
type AccessPolicyOption func(*DefaultAccessPolicy)

// DefaultAccessPolicy confines callers to their own records. Actor types
// registered through WithOperatorTypes may read any identity's feed.
type DefaultAccessPolicy struct {
	masker    *masker.Masker
	operators map[string]struct{}
}

var _ AccessPolicy = (*DefaultAccessPolicy)(nil)

// NewDefaultAccessPolicy returns the self-only policy.
func NewDefaultAccessPolicy(opts ...AccessPolicyOption) *DefaultAccessPolicy {
	policy := &DefaultAccessPolicy{
		operators: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(policy)
		}
	}
	if policy.masker == nil {
		policy.masker = DefaultMasker()
	}
	return policy
}

// WithPolicyMasker overrides the masker used for sanitization.
func WithPolicyMasker(mask *masker.Masker) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.masker = mask
	}
}

// WithOperatorTypes lists actor types allowed to read every identity's feed.
func WithOperatorTypes(actorTypes ...string) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		for _, actorType := range actorTypes {
			if actorType != "" {
				policy.operators[actorType] = struct{}{}
			}
		}
	}
}

// Apply pins the filter to the caller. A filter naming another identity fails
// with types.ErrActivityAccessDenied unless the caller is an operator.
func (p *DefaultAccessPolicy) Apply(actor types.ActorRef, filter types.ActivityFilter) (types.ActivityFilter, error) {
	if actor.IsZero() {
		return types.ActivityFilter{}, types.ErrActorRequired
	}
	filter.Actor = actor
	if p.isOperator(actor) {
		return filter, nil
	}
	switch filter.ActorID {
	case uuid.Nil:
		filter.ActorID = actor.ID
	case actor.ID:
	default:
		return types.ActivityFilter{}, types.ErrActivityAccessDenied
	}
	return filter, nil
}

// Sanitize masks sensitive payload values.
func (p *DefaultAccessPolicy) Sanitize(records []types.ActivityRecord) []types.ActivityRecord {
	return SanitizeRecords(p.masker, records)
}

func (p *DefaultAccessPolicy) isOperator(actor types.ActorRef) bool {
	if actor.Type == "" {
		return false
	}
	_, ok := p.operators[actor.Type]
	return ok
}
