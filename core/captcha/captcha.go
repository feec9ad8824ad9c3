// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package captcha verifies reCAPTCHA tokens sent with the contact form
package captcha

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/logger"
)

// DefaultURL is Google's siteverify endpoint
const DefaultURL = "https://www.google.com/recaptcha/api/siteverify"

// ServiceName is used in ExternalServiceError
const ServiceName = "recaptcha"

// Result is the answer of the siteverify endpoint
type Result struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verifier verifies reCAPTCHA tokens
type Verifier struct {
	secret string
	url    string
	client *http.Client
}

// Builder is a builder helper for the Verifier
type Builder struct {
	// Secret is the reCAPTCHA secret key. This is mandatory.
	Secret string
	// URL overrides DefaultURL. This is optional.
	URL string
	// HTTPClient is optional, defaults to a client with a 10 second timeout
	HTTPClient *http.Client
}

// New returns a new verifier
func New(vb *Builder) *Verifier {
	if vb.Secret == "" {
		panic("Secret is missing")
	}
	v := &Verifier{
		secret: vb.Secret,
		url:    vb.URL,
		client: vb.HTTPClient,
	}
	if v.url == "" {
		v.url = DefaultURL
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: 10 * time.Second}
	}
	return v
}

// Verify checks token with the siteverify endpoint. A missing token or a negative
// answer fails with status 400, the error codes of the provider are passed on. A
// failing provider fails with status 500.
func (v *Verifier) Verify(ctx context.Context, token string) (*Result, error) {
	if token == "" {
		return nil, &core.ExternalServiceError{
			Service: ServiceName,
			Status:  http.StatusBadRequest,
			Message: "reCAPTCHA token is missing",
		}
	}

	form := url.Values{"secret": {v.secret}, "response": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rlog := logger.FromContext(ctx)
	res, err := v.client.Do(req)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4901: siteverify request failed")
		return nil, v.providerError(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("siteverify returned status %d", res.StatusCode)
		rlog.WithError(err).Errorln("Error 4902: siteverify request failed")
		return nil, v.providerError(err)
	}

	result := &Result{}
	if err := json.NewDecoder(res.Body).Decode(result); err != nil {
		rlog.WithError(err).Errorln("Error 4903: cannot decode siteverify response")
		return nil, v.providerError(err)
	}
	if !result.Success {
		return nil, &core.ExternalServiceError{
			Service: ServiceName,
			Status:  http.StatusBadRequest,
			Message: "reCAPTCHA verification failed",
			Codes:   result.ErrorCodes,
		}
	}
	return result, nil
}

func (v *Verifier) providerError(err error) error {
	return &core.ExternalServiceError{
		Service: ServiceName,
		Status:  http.StatusInternalServerError,
		Message: "Error verifying reCAPTCHA",
		Err:     err,
	}
}
