// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestVerifySuccess(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"success":true,"hostname":"localhost"}`)
	defer server.Close()

	v := New(&Builder{Secret: "s3cret", URL: server.URL})
	result, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "localhost", result.Hostname)
}

func TestVerifyFailed(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`)
	defer server.Close()

	v := New(&Builder{Secret: "s3cret", URL: server.URL})
	_, err := v.Verify(context.Background(), "tok")
	var serviceErr *core.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusBadRequest, serviceErr.Status)
	assert.Equal(t, []string{"invalid-input-response"}, serviceErr.Codes)
}

func TestVerifyProviderError(t *testing.T) {
	server := newServer(t, http.StatusBadGateway, "")
	defer server.Close()

	v := New(&Builder{Secret: "s3cret", URL: server.URL})
	_, err := v.Verify(context.Background(), "tok")
	var serviceErr *core.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusInternalServerError, serviceErr.Status)
	assert.Equal(t, "Error verifying reCAPTCHA", serviceErr.Message)
}

func TestVerifyMissingToken(t *testing.T) {
	v := New(&Builder{Secret: "s3cret", URL: "http://127.0.0.1:1"})
	_, err := v.Verify(context.Background(), "")
	var serviceErr *core.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusBadRequest, serviceErr.Status)
	assert.Equal(t, "reCAPTCHA token is missing", serviceErr.Message)
}
