// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/captcha"
	"github.com/relabs-tech/bistroboss/core/store"
)

type contactRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Message      string `json:"message" validate:"required"`
	CaptchaToken string `json:"captchaToken"`
}

type contactResponse struct {
	Message string              `json:"message"`
	Result  *store.InsertResult `json:"result"`
}

func (b *Backend) handleContact() {
	b.handle(http.MethodPost, "/contactus", func(r *http.Request) (interface{}, error) {
		ctx := r.Context()
		var req contactRequest
		body, err := readBody(r)
		if err != nil {
			return nil, err
		}
		if err := unmarshalRequest(body, &req); err != nil {
			return nil, err
		}
		if b.captcha == nil {
			return nil, &core.ExternalServiceError{
				Service: captcha.ServiceName,
				Status:  http.StatusInternalServerError,
				Message: "reCAPTCHA is not configured",
			}
		}
		if _, err := b.captcha.Verify(ctx, req.CaptchaToken); err != nil {
			return nil, err
		}
		if err := validateRequest(&req); err != nil {
			return nil, err
		}

		message := &store.ContactMessage{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Message: req.Message,
		}
		res, err := b.store.InsertContactMessage(ctx, message)
		if err != nil {
			return nil, internal(4501, err)
		}
		b.notify(ctx, "contact", core.OperationCreate, message)
		return &contactResponse{Message: "reCAPTCHA verified successfully", Result: res}, nil
	})
}
