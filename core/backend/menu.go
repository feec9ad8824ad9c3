// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/schema"
	"github.com/relabs-tech/bistroboss/core/store"
)

// menuItemPatch is the body of PATCH /menu/{id}. The dashboard sends the dish name as
// recipeName and the recipe as details.
type menuItemPatch struct {
	RecipeName *string  `json:"recipeName" validate:"omitempty,min=1"`
	Details    *string  `json:"details"`
	Category   *string  `json:"category" validate:"omitempty,min=1"`
	Price      *float64 `json:"price" validate:"omitempty,gte=0"`
	Image      *string  `json:"image"`
}

func (p menuItemPatch) toStore() store.MenuItemPatch {
	return store.MenuItemPatch{
		Name:     p.RecipeName,
		Recipe:   p.Details,
		Category: p.Category,
		Price:    p.Price,
		Image:    p.Image,
	}
}

func (b *Backend) handleMenu() {
	b.handle(http.MethodGet, "/menu", func(r *http.Request) (interface{}, error) {
		items, err := b.store.ListMenu(r.Context())
		if err != nil {
			return nil, internal(4301, err)
		}
		return items, nil
	})

	b.handle(http.MethodGet, "/menu/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		item, err := b.store.GetMenuItem(r.Context(), id)
		if err != nil {
			return nil, internal(4302, err)
		}
		return item, nil
	})

	b.handle(http.MethodGet, "/menu/category/{category}", func(r *http.Request) (interface{}, error) {
		var limit int64
		if s := r.URL.Query().Get("limit"); s != "" {
			var err error
			if limit, err = strconv.ParseInt(s, 10, 64); err != nil {
				return nil, withMessage(core.ErrInvalidBody, "invalid limit")
			}
		}
		items, err := b.store.ListMenuByCategory(r.Context(), mux.Vars(r)["category"], limit)
		if err != nil {
			return nil, internal(4303, err)
		}
		return items, nil
	})

	b.handle(http.MethodGet, "/menu/length/{category}", func(r *http.Request) (interface{}, error) {
		count, err := b.store.CountMenuByCategory(r.Context(), mux.Vars(r)["category"])
		if err != nil {
			return nil, internal(4304, err)
		}
		return map[string]int64{"items": count}, nil
	})

	b.handle(http.MethodPost, "/menu", func(r *http.Request) (interface{}, error) {
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		if err := b.validateDocument(body, schema.MenuItem); err != nil {
			return nil, err
		}
		item := &store.MenuItem{}
		if err := unmarshalRequest(body, item); err != nil {
			return nil, err
		}
		res, err := b.store.InsertMenuItem(r.Context(), item)
		if err != nil {
			return nil, internal(4305, err)
		}
		return res, nil
	}, b.requireToken, b.requireAdmin)

	b.handle(http.MethodPatch, "/menu/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		var patch menuItemPatch
		if err := decodeRequest(r, &patch); err != nil {
			return nil, err
		}
		if patch.toStore().Empty() {
			return nil, withMessage(core.ErrInvalidBody, "nothing to update")
		}
		res, err := b.store.UpdateMenuItem(r.Context(), id, patch.toStore())
		if err != nil {
			return nil, internal(4306, err)
		}
		return res, nil
	}, b.requireToken, b.requireAdmin)

	b.handle(http.MethodDelete, "/menu/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		res, err := b.store.DeleteMenuItem(r.Context(), id)
		if err != nil {
			return nil, internal(4307, err)
		}
		return res, nil
	}, b.requireToken, b.requireAdmin)
}
