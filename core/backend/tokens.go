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
)

type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (b *Backend) handleTokens() {
	b.handle(http.MethodPost, "/userToken", func(r *http.Request) (interface{}, error) {
		var req tokenRequest
		if err := decodeRequest(r, &req); err != nil {
			return nil, err
		}
		token, err := b.tokens.Issue(req.Email)
		if err != nil {
			return nil, internal(4101, err)
		}
		return map[string]string{"token": token}, nil
	})

	b.handle(http.MethodGet, "/user/admin/{email}", func(r *http.Request) (interface{}, error) {
		user, err := b.store.FindUserByEmail(r.Context(), mux.Vars(r)["email"])
		if err != nil {
			return nil, internal(4102, err)
		}
		return map[string]bool{"admin": user != nil && user.Role == access.RoleAdmin}, nil
	}, b.requireToken, selfFromPath("email"))
}
