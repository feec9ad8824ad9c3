// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/captcha"
	"github.com/relabs-tech/bistroboss/core/logger"
	"github.com/relabs-tech/bistroboss/core/payment"
	"github.com/relabs-tech/bistroboss/core/schema"
	"github.com/relabs-tech/bistroboss/core/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRequestTimeout is the deadline of a request if Builder.RequestTimeout is not set
const DefaultRequestTimeout = 10 * time.Second

// Store is the resource access layer of the backend. It is implemented by store.Store.
type Store interface {
	access.Accounts

	ListUsers(ctx context.Context) ([]store.User, error)
	FindUserByEmail(ctx context.Context, email string) (*store.User, error)
	InsertUser(ctx context.Context, user *store.User) (*store.InsertResult, error)
	PromoteUser(ctx context.Context, id primitive.ObjectID) (*store.UpdateResult, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error)

	ListMenu(ctx context.Context) ([]store.MenuItem, error)
	GetMenuItem(ctx context.Context, id primitive.ObjectID) (*store.MenuItem, error)
	ListMenuByCategory(ctx context.Context, category string, limit int64) ([]store.MenuItem, error)
	CountMenuByCategory(ctx context.Context, category string) (int64, error)
	InsertMenuItem(ctx context.Context, item *store.MenuItem) (*store.InsertResult, error)
	UpdateMenuItem(ctx context.Context, id primitive.ObjectID, patch store.MenuItemPatch) (*store.UpdateResult, error)
	DeleteMenuItem(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error)

	ListReviews(ctx context.Context) ([]store.Document, error)
	InsertReview(ctx context.Context, review store.Document) (*store.InsertResult, error)

	ListOrders(ctx context.Context, email string) ([]store.Document, error)
	InsertOrder(ctx context.Context, order store.Document) (*store.InsertResult, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error)

	ListBookings(ctx context.Context, email string) ([]store.Document, error)
	ListAllBookings(ctx context.Context) ([]store.Document, error)
	InsertBooking(ctx context.Context, booking store.Document) (*store.InsertResult, error)
	DeleteBooking(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error)

	InsertContactMessage(ctx context.Context, message *store.ContactMessage) (*store.InsertResult, error)

	ListPayments(ctx context.Context, email string) ([]store.Payment, error)
	RecordPayment(ctx context.Context, payment *store.Payment) (*store.InsertResult, error)

	AdminStats(ctx context.Context) (*store.AdminStats, error)
	OrderStats(ctx context.Context) ([]store.CategoryStats, error)
}

// PaymentGateway creates payment intents. It is implemented by payment.Gateway.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, price float64) (*payment.Intent, error)
}

// CaptchaVerifier verifies CAPTCHA tokens. It is implemented by captcha.Verifier.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) (*captcha.Result, error)
}

// Backend is the BistroBoss rest backend
type Backend struct {
	store          Store
	router         *mux.Router
	tokens         *access.TokenService
	payments       PaymentGateway
	captcha        CaptchaVerifier
	notifier       core.Notifier
	validator      *schema.Validator
	requestTimeout time.Duration
	protectDeletes bool
	allowedOrigins []string
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Store is the resource access layer. This is mandatory.
	Store Store
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Tokens issues and verifies bearer tokens. This is mandatory.
	Tokens *access.TokenService
	// Payments creates payment intents. Without it, POST /create-payment-intent fails
	// with 500. This is optional.
	Payments PaymentGateway
	// Captcha verifies contact form submissions. Without it, POST /contactus fails with
	// 500. This is optional.
	Captcha CaptchaVerifier
	// Notifier receives an event for every created user, recorded payment and received
	// contact message. This is optional.
	Notifier core.Notifier
	// Validator validates free-form documents. This is optional, defaults to schema.Default().
	Validator *schema.Validator
	// RequestTimeout is the deadline of a request. This is optional, defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
	// ProtectDeletes requires a valid bearer token for DELETE /order/{id} and
	// DELETE /bookings/{id}. By default these routes are public.
	ProtectDeletes bool
	// AllowedOrigins are the CORS origins. This is optional, defaults to all origins.
	AllowedOrigins []string
}

// New realizes the actual backend and adds all routes to the router
func New(bb *Builder) *Backend {
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Tokens == nil {
		panic("Tokens is missing")
	}

	validator := bb.Validator
	if validator == nil {
		var err error
		if validator, err = schema.Default(); err != nil {
			panic(err)
		}
	}

	b := &Backend{
		store:          bb.Store,
		router:         bb.Router,
		tokens:         bb.Tokens,
		payments:       bb.Payments,
		captcha:        bb.Captcha,
		notifier:       bb.Notifier,
		validator:      validator,
		requestTimeout: bb.RequestTimeout,
		protectDeletes: bb.ProtectDeletes,
		allowedOrigins: bb.AllowedOrigins,
	}
	if b.requestTimeout <= 0 {
		b.requestTimeout = DefaultRequestTimeout
	}
	if len(b.allowedOrigins) == 0 {
		b.allowedOrigins = []string{"*"}
	}

	logger.AddRequestID(b.router)
	b.handleRecovery()
	b.handleCORS()
	b.handleTimeout()
	b.handleCompression()
	b.handleRoutes()
	return b
}

func (b *Backend) handleRoutes() {
	logger.Default().Debugln("backend: handle routes")

	b.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Server is running"))
	}).Methods(http.MethodOptions, http.MethodGet)

	b.handleTokens()
	b.handleUsers()
	b.handleMenu()
	b.handleReviews()
	b.handleOrders()
	b.handleBookings()
	b.handleContact()
	b.handlePayments()
	b.handleStatistics()
}

func (b *Backend) notify(ctx context.Context, resource string, operation core.Operation, payload interface{}) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(ctx, resource, operation, payload)
}
