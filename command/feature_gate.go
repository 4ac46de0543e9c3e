package command

import (
	"context"

	"github.com/goliatone/go-directory/pkg/authctx"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const (
	// FeatureStatsUpdate gates update_stats. With no gate configured the call
	// is always enabled.
	FeatureStatsUpdate = "directory.stats.update"
)

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	chain := featureScopeChain(authctx.TenancyFromContext(ctx), userID)
	if len(chain) == 0 {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeChain(chain))
}

// featureScopeChain orders scopes from most to least specific, ending with
// the system scope.
func featureScopeChain(tenancy authctx.Tenancy, userID uuid.UUID) featuregate.ScopeChain {
	tenantID := ""
	orgID := ""
	if tenancy.TenantID != uuid.Nil {
		tenantID = tenancy.TenantID.String()
	}
	if tenancy.OrgID != uuid.Nil {
		orgID = tenancy.OrgID.String()
	}
	if tenantID == "" && orgID == "" && userID == uuid.Nil {
		return nil
	}

	chain := make(featuregate.ScopeChain, 0, 4)
	if userID != uuid.Nil {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeUser,
			ID:       userID.String(),
			TenantID: tenantID,
			OrgID:    orgID,
		})
	}
	if orgID != "" {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeOrg,
			ID:       orgID,
			TenantID: tenantID,
			OrgID:    orgID,
		})
	}
	if tenantID != "" {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeTenant,
			ID:       tenantID,
			TenantID: tenantID,
		})
	}
	return append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeSystem})
}
