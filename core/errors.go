// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"errors"
	"fmt"
)

// Authorization errors. ErrTokenMissing, ErrTokenInvalid and ErrForbidden map to
// http.StatusUnauthorized, ErrAdminRequired maps to http.StatusForbidden.
var (
	ErrTokenMissing  = errors.New("invalid authorization")
	ErrTokenInvalid  = errors.New("authorization failed")
	ErrForbidden     = errors.New("invalid authorization")
	ErrAdminRequired = errors.New("unauthorized access")
)

// Validation errors, all mapping to http.StatusBadRequest.
var (
	ErrBadID       = errors.New("invalid id")
	ErrInvalidBody = errors.New("invalid request body")
	ErrConflict    = errors.New("already exists")
)

// ExternalServiceError is returned when a third party service, the payment
// provider or the CAPTCHA verification, rejects a request or cannot be reached.
type ExternalServiceError struct {
	// Service is the name of the external service, e.g. "stripe"
	Service string
	// Status is the HTTP status the backend should respond with
	Status int
	// Message is the provider's message, it is surfaced to the caller
	Message string
	// Codes are optional provider error codes
	Codes []string
	Err   error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
