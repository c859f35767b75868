package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/pkg/metrics"
)

// AccessMode classifies how much of a resource an allowed request may see.
type AccessMode int

const (
	// ModeUnrestricted grants the full resource set (superusers and roles
	// whose grants carry no ownership restriction).
	ModeUnrestricted AccessMode = iota
	// ModeOwnership restricts the request to the id sets in Scope.
	ModeOwnership
)

// ScopedResource names the resource kind a request targets, so the gate knows
// which assignment edges to resolve.
type ScopedResource string

const (
	ResourceNone      ScopedResource = ""
	ResourceBuildings ScopedResource = "buildings"
	ResourceVillas    ScopedResource = "villas"
	ResourceTenants   ScopedResource = "tenants"
)

// Scope carries the entity-id sets an ownership-scoped request may touch.
// Only the sets for the requested resource are populated.
type Scope struct {
	BuildingIDs []string
	VillaIDs    []string
	TenantIDs   []string
}

// ContainsBuilding reports membership of a building id in the scope.
func (s Scope) ContainsBuilding(id string) bool { return contains(s.BuildingIDs, id) }

// ContainsVilla reports membership of a villa id in the scope.
func (s Scope) ContainsVilla(id string) bool { return contains(s.VillaIDs, id) }

// ContainsTenant reports membership of a tenant id in the scope.
func (s Scope) ContainsTenant(id string) bool { return contains(s.TenantIDs, id) }

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Context is the single typed authorization value produced by the gate for an
// allowed request. Query layers intersect their results against Scope when
// Mode is ModeOwnership; an empty scope is a valid state meaning "no assigned
// entities", never a denial.
type Context struct {
	Identity Identity
	Mode     AccessMode
	Scope    Scope
}

// Restricted reports whether downstream queries must filter by Scope.
func (c *Context) Restricted() bool {
	return c != nil && c.Mode == ModeOwnership
}

// Gate is the contract every handler calls before executing business logic.
// It composes the superuser bypass, the grant-matrix resolver, and the
// ownership scope resolver, and fails closed on any store error.
type Gate struct {
	resolver *Resolver
	scopes   *ScopeResolver
}

// NewGate constructs the authorization gate from a shared database handle.
func NewGate(db *gorm.DB) (*Gate, error) {
	if db == nil {
		return nil, errors.New("authz gate: db is required")
	}

	resolver, err := NewResolver(db)
	if err != nil {
		return nil, err
	}
	scopes, err := NewScopeResolver(db)
	if err != nil {
		return nil, err
	}
	return &Gate{resolver: resolver, scopes: scopes}, nil
}

// Resolver exposes the underlying permission resolver for read-only consumers
// such as the sidebar endpoint.
func (g *Gate) Resolver() *Resolver {
	return g.resolver
}

// Authorize decides whether the identity may perform permType on the page at
// pageURL. On success the returned Context carries the ownership scope for
// the hinted resource when the role is ownership-scoped. Any resolver error
// yields a deny decision alongside the error.
func (g *Gate) Authorize(ctx context.Context, identity Identity, pageURL, permType string, resource ScopedResource) (*Context, Decision, error) {
	ctx = ensureContext(ctx)

	if identity.Superuser {
		return &Context{Identity: identity, Mode: ModeUnrestricted}, Allow(ReasonSuperuser), nil
	}

	decision, err := g.resolver.HasPermission(ctx, identity, pageURL, permType)
	if err != nil {
		return nil, Deny(ReasonStoreError), err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	authzCtx := &Context{Identity: identity, Mode: ModeUnrestricted}
	if resource == ResourceNone || !identity.OwnershipScoped {
		return authzCtx, decision, nil
	}

	authzCtx.Mode = ModeOwnership
	switch resource {
	case ResourceBuildings:
		ids, err := g.scopes.OwnerBuildings(ctx, identity.UserID)
		if err != nil {
			metrics.ScopeResolutions.WithLabelValues(string(resource), "error").Inc()
			return nil, Deny(ReasonStoreError), err
		}
		authzCtx.Scope.BuildingIDs = ids
	case ResourceVillas:
		ids, err := g.scopes.OwnerVillas(ctx, identity.UserID)
		if err != nil {
			metrics.ScopeResolutions.WithLabelValues(string(resource), "error").Inc()
			return nil, Deny(ReasonStoreError), err
		}
		authzCtx.Scope.VillaIDs = ids
	case ResourceTenants:
		filter, err := g.scopes.ResolveTenantFilter(ctx, identity.UserID)
		if err != nil {
			metrics.ScopeResolutions.WithLabelValues(string(resource), "error").Inc()
			return nil, Deny(ReasonStoreError), err
		}
		authzCtx.Scope.BuildingIDs = filter.BuildingIDs
		authzCtx.Scope.TenantIDs = filter.TenantIDs
	}
	metrics.ScopeResolutions.WithLabelValues(string(resource), "success").Inc()

	return authzCtx, decision, nil
}
