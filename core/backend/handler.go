// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/logger"
)

const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// handlerFunc answers a request. The result is written as JSON with status 200.
type handlerFunc func(r *http.Request) (interface{}, error)

// interceptor runs before a handler. It may return the request with an extended context.
type interceptor func(r *http.Request) (*http.Request, error)

type errorBody struct {
	Error   bool     `json:"error,omitempty"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// requestError carries the message the caller sees for a failed request
type requestError struct {
	message string
	err     error
}

func (e *requestError) Error() string {
	return e.message + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func withMessage(err error, message string) error {
	return &requestError{message: message, err: err}
}

// internalError is an unexpected failure. It is logged with its number, the caller only
// sees the number.
type internalError struct {
	code int
	err  error
}

func (e *internalError) Error() string {
	return fmt.Sprintf("Error %d: %v", e.code, e.err)
}

func (e *internalError) Unwrap() error {
	return e.err
}

func internal(code int, err error) error {
	return &internalError{code: code, err: err}
}

func (b *Backend) handle(method string, path string, handler handlerFunc, interceptors ...interceptor) {
	logger.Default().Debugf("  handle route: %s %s", path, method)
	b.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.FromContext(r.Context()).Errorf("Error 4002: recovered from panic: %v\n%s", p, debug.Stack())
				writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Error 4002"})
			}
		}()
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)

		for _, intercept := range interceptors {
			next, err := intercept(r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			r = next
		}

		result, err := handler(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}).Methods(http.MethodOptions, method)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Default().WithError(err).Errorln("Error 4003: cannot marshal response")
		status = http.StatusInternalServerError
		data = []byte(`{"message":"Error 4003"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	rlog := logger.FromContext(r.Context())
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		rlog.WithError(err).Errorln(body.Message)
	} else {
		rlog.WithError(err).Infof("request failed with status %d", status)
	}
	writeJSON(w, status, body)
}

// errorResponse maps err to a status and the body the caller sees
func errorResponse(err error) (int, errorBody) {
	var reqErr *requestError
	var serviceErr *core.ExternalServiceError
	var intErr *internalError

	switch {
	case errors.Is(err, core.ErrTokenMissing), errors.Is(err, core.ErrForbidden):
		return http.StatusUnauthorized, errorBody{Message: "Invalid authorization"}
	case errors.Is(err, core.ErrTokenInvalid):
		return http.StatusUnauthorized, errorBody{Message: "Authorization Failed"}
	case errors.Is(err, core.ErrAdminRequired):
		return http.StatusForbidden, errorBody{Error: true, Message: "unauthorized access"}
	case errors.As(err, &serviceErr):
		return serviceErr.Status, errorBody{Message: serviceErr.Message, Errors: serviceErr.Codes}
	case errors.Is(err, core.ErrBadID), errors.Is(err, core.ErrInvalidBody), errors.Is(err, core.ErrConflict):
		message := err.Error()
		if errors.As(err, &reqErr) {
			message = reqErr.message
		}
		return http.StatusBadRequest, errorBody{Message: message}
	case errors.As(err, &intErr):
		return http.StatusInternalServerError, errorBody{Message: fmt.Sprintf("Error %d", intErr.code)}
	default:
		return http.StatusInternalServerError, errorBody{Message: "Error 4000"}
	}
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("%w: empty body", core.ErrInvalidBody)
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body too large", core.ErrInvalidBody)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", core.ErrInvalidBody)
	}
	return body, nil
}

// decodeRequest reads the body into v and validates v's struct tags
func decodeRequest(r *http.Request, v interface{}) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := unmarshalRequest(body, v); err != nil {
		return err
	}
	return validateRequest(v)
}

func unmarshalRequest(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	return nil
}

func validateRequest(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	return nil
}

// validateDocument validates the raw body against the JSON schema schemaID
func (b *Backend) validateDocument(body []byte, schemaID string) error {
	if err := b.validator.ValidateString(string(body), schemaID); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	return nil
}
