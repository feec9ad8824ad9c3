// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package access provides utilities for access control

Access control has two parts. A TokenService binds an identity, the caller's email,
to a signed bearer token. The authorization policy then compares the verified identity
against the owner of a resource (CheckSelf) or against the user's role (RequireAdmin).

The verified identity is added to a request context with

	ctx = access.ContextWithIdentity(ctx, identity)

and retrieved with

	identity := access.IdentityFromContext(ctx)
*/
package access

import (
	"context"

	"github.com/relabs-tech/bistroboss/core"
)

// RoleAdmin is the role of users who may manage the menu, users and bookings
const RoleAdmin = "admin"

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context keys
const (
	contextKeyAuthorization contextKey = "_authorization_"
	contextKeyIdentity      contextKey = "_identity_"
)

// Authorization is a context object which stores the roles of the caller. It is
// only present after RequireAdmin has looked them up.
type Authorization struct {
	Roles []string `json:"roles"`
}

// HasRole returns true if the authorization contains the requested role;
// otherwise it returns false.
func (a *Authorization) HasRole(role string) bool {
	if a == nil || a.Roles == nil {
		return false
	}
	for _, hasRole := range a.Roles {
		if role == hasRole {
			return true
		}
	}
	return false
}

// ContextWithAuthorization returns a new context with the authorization added to it
func ContextWithAuthorization(ctx context.Context, auth *Authorization) context.Context {
	return context.WithValue(ctx, contextKeyAuthorization, auth)
}

// AuthorizationFromContext retrieves an authorization from the context
func AuthorizationFromContext(ctx context.Context) *Authorization {
	a, ok := ctx.Value(contextKeyAuthorization).(*Authorization)
	if ok {
		return a
	}
	return nil
}

// ContextWithIdentity returns a new context with the verified identity added to it
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext retrieves the verified identity from the context. It returns
// the empty string if the request was not authenticated.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(contextKeyIdentity).(string)
	return identity
}

// Accounts looks up the role stored for an identity. A missing account is not an
// error, it yields the empty role.
type Accounts interface {
	AccountRole(ctx context.Context, identity string) (string, error)
}

// CheckSelf denies access unless the verified identity equals owner.
func CheckSelf(ctx context.Context, owner string) error {
	identity := IdentityFromContext(ctx)
	if identity == "" {
		return core.ErrTokenMissing
	}
	if identity != owner {
		return core.ErrForbidden
	}
	return nil
}

// RequireAdmin looks up the role of the verified identity and denies access unless
// it is RoleAdmin. The lookup happens on every call, so a revoked role takes effect
// with the next request. On success the returned context carries the authorization.
func RequireAdmin(ctx context.Context, accounts Accounts) (context.Context, error) {
	identity := IdentityFromContext(ctx)
	if identity == "" {
		return ctx, core.ErrTokenMissing
	}
	role, err := accounts.AccountRole(ctx, identity)
	if err != nil {
		return ctx, err
	}
	auth := &Authorization{}
	if role != "" {
		auth.Roles = []string{role}
	}
	if !auth.HasRole(RoleAdmin) {
		return ctx, core.ErrAdminRequired
	}
	return ContextWithAuthorization(ctx, auth), nil
}
