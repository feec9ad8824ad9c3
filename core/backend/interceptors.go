// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/logger"
)

// requireToken verifies the bearer token and attaches the identity to the request
// context and the request logger
func (b *Backend) requireToken(r *http.Request) (*http.Request, error) {
	token, err := access.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return r, err
	}
	identity, err := b.tokens.Verify(token)
	if err != nil {
		return r, err
	}
	ctx := access.ContextWithIdentity(r.Context(), identity)
	ctx, _ = logger.ContextWithLoggerIdentity(ctx, identity)
	return r.WithContext(ctx), nil
}

// requireAdmin looks up the caller's role. It must run after requireToken.
func (b *Backend) requireAdmin(r *http.Request) (*http.Request, error) {
	ctx, err := access.RequireAdmin(r.Context(), b.store)
	if err != nil {
		// authorization errors keep their status through the wrap
		return r, internal(4103, err)
	}
	return r.WithContext(ctx), nil
}

// selfFromQuery requires the query parameter key to equal the caller's identity
func selfFromQuery(key string) interceptor {
	return func(r *http.Request) (*http.Request, error) {
		return r, access.CheckSelf(r.Context(), r.URL.Query().Get(key))
	}
}

// selfFromPath requires the path variable key to equal the caller's identity
func selfFromPath(key string) interceptor {
	return func(r *http.Request) (*http.Request, error) {
		return r, access.CheckSelf(r.Context(), mux.Vars(r)[key])
	}
}

// deleteInterceptors are the interceptors of the public delete routes
func (b *Backend) deleteInterceptors() []interceptor {
	if b.protectDeletes {
		return []interceptor{b.requireToken}
	}
	return nil
}
