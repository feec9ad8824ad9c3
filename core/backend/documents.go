// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/schema"
	"github.com/relabs-tech/bistroboss/core/store"
)

// ownedDocument reads a free-form document from the body. The property ownerField must
// equal the caller's identity, then the document is validated against schemaID.
func (b *Backend) ownedDocument(r *http.Request, ownerField string, schemaID string) (store.Document, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not an object", core.ErrInvalidBody)
	}
	owner, _ := doc[ownerField].(string)
	if err := access.CheckSelf(r.Context(), owner); err != nil {
		return nil, err
	}
	if err := b.validateDocument(body, schemaID); err != nil {
		return nil, err
	}
	return store.Document(doc), nil
}

func (b *Backend) handleReviews() {
	b.handle(http.MethodGet, "/reviews", func(r *http.Request) (interface{}, error) {
		reviews, err := b.store.ListReviews(r.Context())
		if err != nil {
			return nil, internal(4401, err)
		}
		return reviews, nil
	})

	b.handle(http.MethodPost, "/reviews", func(r *http.Request) (interface{}, error) {
		review, err := b.ownedDocument(r, "userEmail", schema.Review)
		if err != nil {
			return nil, err
		}
		res, err := b.store.InsertReview(r.Context(), review)
		if err != nil {
			return nil, internal(4402, err)
		}
		return res, nil
	}, b.requireToken)
}

func (b *Backend) handleOrders() {
	b.handle(http.MethodGet, "/orders", func(r *http.Request) (interface{}, error) {
		orders, err := b.store.ListOrders(r.Context(), r.URL.Query().Get("email"))
		if err != nil {
			return nil, internal(4411, err)
		}
		return orders, nil
	}, b.requireToken, selfFromQuery("email"))

	b.handle(http.MethodPost, "/orders", func(r *http.Request) (interface{}, error) {
		order, err := b.ownedDocument(r, "email", schema.Order)
		if err != nil {
			return nil, err
		}
		res, err := b.store.InsertOrder(r.Context(), order)
		if err != nil {
			return nil, internal(4412, err)
		}
		return res, nil
	}, b.requireToken)

	b.handle(http.MethodDelete, "/order/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		res, err := b.store.DeleteOrder(r.Context(), id)
		if err != nil {
			return nil, internal(4413, err)
		}
		return res, nil
	}, b.deleteInterceptors()...)
}

func (b *Backend) handleBookings() {
	b.handle(http.MethodGet, "/bookings", func(r *http.Request) (interface{}, error) {
		bookings, err := b.store.ListBookings(r.Context(), r.URL.Query().Get("email"))
		if err != nil {
			return nil, internal(4421, err)
		}
		return bookings, nil
	}, b.requireToken, selfFromQuery("email"))

	b.handle(http.MethodPost, "/bookings", func(r *http.Request) (interface{}, error) {
		booking, err := b.ownedDocument(r, "userEmail", schema.Booking)
		if err != nil {
			return nil, err
		}
		res, err := b.store.InsertBooking(r.Context(), booking)
		if err != nil {
			return nil, internal(4422, err)
		}
		return res, nil
	}, b.requireToken)

	b.handle(http.MethodDelete, "/bookings/{id}", func(r *http.Request) (interface{}, error) {
		id, err := store.ParseID(mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		res, err := b.store.DeleteBooking(r.Context(), id)
		if err != nil {
			return nil, internal(4423, err)
		}
		return res, nil
	}, b.deleteInterceptors()...)

	b.handle(http.MethodGet, "/allBookings", func(r *http.Request) (interface{}, error) {
		bookings, err := b.store.ListAllBookings(r.Context())
		if err != nil {
			return nil, internal(4424, err)
		}
		return bookings, nil
	}, b.requireToken, b.requireAdmin)
}
