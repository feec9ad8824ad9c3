// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/relabs-tech/bistroboss/core/logger"
)

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	logger.Default().Errorln(append([]interface{}{"Error 4001: recovered from panic:"}, v...)...)
}

func (b *Backend) handleRecovery() {
	b.router.Use(handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	))
}

func (b *Backend) handleCORS() {
	b.router.Use(handlers.CORS(
		handlers.AllowedOrigins(b.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.ExposedHeaders([]string{"X-Request-Id"}),
		handlers.MaxAge(86400),
	))
}

// handleTimeout gives every request a deadline. Store and provider calls inherit it.
func (b *Backend) handleTimeout() {
	timeoutMiddleware := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), b.requestTimeout)
			defer cancel()
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	b.router.Use(timeoutMiddleware)
}

func (b *Backend) handleCompression() {
	compressionMiddleware := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlers.CompressHandler(h).ServeHTTP(w, r)
		})
	}
	b.router.Use(compressionMiddleware)
}
