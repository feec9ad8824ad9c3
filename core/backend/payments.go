// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/payment"
	"github.com/relabs-tech/bistroboss/core/schema"
	"github.com/relabs-tech/bistroboss/core/store"
)

type intentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type paymentRequest struct {
	Email         string   `json:"email"`
	Price         float64  `json:"price"`
	TransactionID string   `json:"transactionId"`
	Date          string   `json:"date"`
	Status        string   `json:"status"`
	CartIDs       []string `json:"cartIds"`
	MenuItemIDs   []string `json:"menuItemIds"`
}

func (b *Backend) handlePayments() {
	b.handle(http.MethodPost, "/create-payment-intent", func(r *http.Request) (interface{}, error) {
		var req intentRequest
		if err := decodeRequest(r, &req); err != nil {
			return nil, err
		}
		if b.payments == nil {
			return nil, &core.ExternalServiceError{
				Service: payment.ServiceName,
				Status:  http.StatusInternalServerError,
				Message: "payments are not configured",
			}
		}
		return b.payments.CreateIntent(r.Context(), req.Price)
	}, b.requireToken)

	b.handle(http.MethodPost, "/payments", b.recordPayment, b.requireToken)

	b.handle(http.MethodGet, "/payments", func(r *http.Request) (interface{}, error) {
		payments, err := b.store.ListPayments(r.Context(), r.URL.Query().Get("email"))
		if err != nil {
			return nil, internal(4601, err)
		}
		return payments, nil
	}, b.requireToken, selfFromQuery("email"))
}

// recordPayment stores a completed payment of the caller and consumes the paid orders
func (b *Backend) recordPayment(r *http.Request) (interface{}, error) {
	ctx := r.Context()
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var req paymentRequest
	if err := unmarshalRequest(body, &req); err != nil {
		return nil, err
	}
	if err := access.CheckSelf(ctx, req.Email); err != nil {
		return nil, err
	}
	if err := b.validateDocument(body, schema.Payment); err != nil {
		return nil, err
	}

	cartIDs, err := store.ParseIDs(req.CartIDs)
	if err != nil {
		return nil, err
	}
	menuItemIDs, err := store.ParseIDs(req.MenuItemIDs)
	if err != nil {
		return nil, err
	}
	p := &store.Payment{
		Email:         req.Email,
		Price:         req.Price,
		TransactionID: req.TransactionID,
		Date:          req.Date,
		Status:        req.Status,
		CartIDs:       cartIDs,
		MenuItemIDs:   menuItemIDs,
	}
	res, err := b.store.RecordPayment(ctx, p)
	if err != nil {
		return nil, internal(4602, err)
	}
	b.notify(ctx, "payment", core.OperationCreate, p)
	return res, nil
}
