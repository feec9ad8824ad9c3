// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/schema"
	"github.com/relabs-tech/bistroboss/core/store"
)

func (b *Backend) handleUsers() {
	b.handle(http.MethodGet, "/user", func(r *http.Request) (interface{}, error) {
		users, err := b.store.ListUsers(r.Context())
		if err != nil {
			return nil, internal(4201, err)
		}
		return users, nil
	})

	b.handle(http.MethodPost, "/user", b.createUser)

	b.handle(http.MethodPatch, "/users/admin/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		res, err := b.store.PromoteUser(r.Context(), id)
		if err != nil {
			return nil, internal(4202, err)
		}
		return res, nil
	}, b.requireToken, b.requireAdmin)

	b.handle(http.MethodDelete, "/users/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		res, err := b.store.DeleteUser(r.Context(), id)
		if err != nil {
			return nil, internal(4203, err)
		}
		return res, nil
	}, b.requireToken, b.requireAdmin)
}

// createUser registers a user on first sign in. The role of the body is ignored.
func (b *Backend) createUser(r *http.Request) (interface{}, error) {
	ctx := r.Context()
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if err := b.validateDocument(body, schema.User); err != nil {
		return nil, err
	}
	user := &store.User{}
	if err := unmarshalRequest(body, user); err != nil {
		return nil, err
	}

	existing, err := b.store.FindUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, internal(4204, err)
	}
	if existing != nil {
		return nil, withMessage(core.ErrConflict, "User already exists")
	}
	res, err := b.store.InsertUser(ctx, user)
	if errors.Is(err, core.ErrConflict) {
		return nil, withMessage(err, "User already exists")
	}
	if err != nil {
		return nil, internal(4205, err)
	}
	b.notify(ctx, "user", core.OperationCreate, user)
	return res, nil
}
