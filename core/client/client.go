// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to the BistroBoss REST api

Instead of marshalling HTTP, the client talks directly to the mux router. This makes it
perfectly suited for unit tests. Created with NewWithURL, the same client talks to a
running service over the network.

	c := client.NewWithRouter(router).WithToken(token)
	var orders []map[string]interface{}
	status, err := c.RawGet(client.Path("orders").WithParameter("email", "ann@x.io").String(), &orders)
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	token      string
	ctx        context.Context

	defaultHeaders map[string]string
}

// StatusError is returned for every response with a status other than http.StatusOK
type StatusError struct {
	Status int
	// Message is the "message" property of the error body, if any
	Message string
	// Errors is the "errors" property of the error body, if any
	Errors []string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("handler returned wrong status code: got %v want %v. Error: %s", e.Status, http.StatusOK, e.Body)
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which sends token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the request context of the client
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// RequestPath builds a request path with escaped segments and query parameters
type RequestPath struct {
	segments   []string
	parameters []string
}

// Path returns a new request path from segments
func Path(segments ...string) RequestPath {
	return RequestPath{segments: segments}
}

// WithParameter returns a new request path with a URL parameter added.
func (p RequestPath) WithParameter(key string, value string) RequestPath {
	parameter := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	return RequestPath{
		segments: p.segments,
		// we want a true copy to avoid side effects
		parameters: append(append([]string{}, p.parameters...), parameter),
	}
}

func (p RequestPath) String() string {
	escaped := make([]string, len(p.segments))
	for i, s := range p.segments {
		escaped[i] = url.PathEscape(s)
	}
	path := "/" + strings.Join(escaped, "/")
	if len(p.parameters) > 0 {
		path += "?" + strings.Join(p.parameters, "&")
	}
	return path
}

// RawGet gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag a *StatusError. Returns the actual http status code.
//
// result can be a raw *[]byte. result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	return c.do(http.MethodGet, path, nil, result)
}

// RawPost posts body to path. Expects http.StatusOK as response, otherwise it will
// flag a *StatusError. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	return c.do(http.MethodPost, path, body, result)
}

// RawPatch patches the resource at path, see RawPost
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	return c.do(http.MethodPatch, path, body, result)
}

// RawDelete deletes the resource at path, see RawGet
func (c Client) RawDelete(path string, result interface{}) (int, error) {
	return c.do(http.MethodDelete, path, nil, result)
}

func (c Client) do(method, path string, body interface{}, result interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			var err error
			j, err = json.Marshal(body)
			if err != nil {
				return http.StatusBadRequest, fmt.Errorf("%s to %s: %w", method, path, err)
			}
		}
		reader = bytes.NewBuffer(j)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	if c.token != "" {
		r.Header.Add("Authorization", "Bearer "+c.token)
	}

	var status int
	var resBody []byte
	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		status = rec.Code
		resBody = rec.Body.Bytes()
	} else {
		res, err := c.httpClient.Do(r)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		defer res.Body.Close()
		status = res.StatusCode
		resBody, _ = io.ReadAll(res.Body)
	}

	if status != http.StatusOK {
		statusErr := &StatusError{Status: status, Body: strings.TrimSpace(string(resBody))}
		var errorBody struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		}
		if json.Unmarshal(resBody, &errorBody) == nil {
			statusErr.Message = errorBody.Message
			statusErr.Errors = errorBody.Errors
		}
		return status, statusErr
	}

	if len(resBody) > 0 && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = resBody
		} else {
			err = json.Unmarshal(resBody, result)
		}
	}
	return status, err
}
