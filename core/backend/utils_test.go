// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend_test

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/backend"
	"github.com/relabs-tech/bistroboss/core/captcha"
	"github.com/relabs-tech/bistroboss/core/client"
	"github.com/relabs-tech/bistroboss/core/payment"
	"github.com/relabs-tech/bistroboss/core/store"
)

const testSecret = "test-secret"

// fakeStore is an in-memory backend.Store. Every call is counted, so tests can assert
// that rejected requests never reached the store.
type fakeStore struct {
	mu     sync.Mutex
	calls  int
	err    error
	panics bool

	users    []store.User
	menu     []store.MenuItem
	reviews  []store.Document
	orders   []store.Document
	bookings []store.Document
	contact  []store.ContactMessage
	payments []store.Payment
}

func (f *fakeStore) enter() error {
	f.calls++
	if f.panics {
		panic("store exploded")
	}
	return f.err
}

func (f *fakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) AccountRole(ctx context.Context, identity string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return "", err
	}
	for _, u := range f.users {
		if u.Email == identity {
			return u.Role, nil
		}
	}
	return "", nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]store.User{}, f.users...), nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertUser(ctx context.Context, user *store.User) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, core.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.Role = ""
	f.users = append(f.users, *user)
	return &store.InsertResult{Acknowledged: true, InsertedID: user.ID}, nil
}

func (f *fakeStore) PromoteUser(ctx context.Context, id primitive.ObjectID) (*store.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Role = access.RoleAdmin
			return &store.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &store.UpdateResult{Acknowledged: true}, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return &store.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return &store.DeleteResult{Acknowledged: true}, nil
}

func (f *fakeStore) ListMenu(ctx context.Context) ([]store.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]store.MenuItem{}, f.menu...), nil
}

func (f *fakeStore) GetMenuItem(ctx context.Context, id primitive.ObjectID) (*store.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for _, m := range f.menu {
		if m.ID == id {
			item := m
			return &item, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListMenuByCategory(ctx context.Context, category string, limit int64) ([]store.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	items := []store.MenuItem{}
	for _, m := range f.menu {
		if m.Category == category && (limit <= 0 || int64(len(items)) < limit) {
			items = append(items, m)
		}
	}
	return items, nil
}

func (f *fakeStore) CountMenuByCategory(ctx context.Context, category string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return 0, err
	}
	var count int64
	for _, m := range f.menu {
		if m.Category == category {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertMenuItem(ctx context.Context, item *store.MenuItem) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	item.ID = primitive.NewObjectID()
	f.menu = append(f.menu, *item)
	return &store.InsertResult{Acknowledged: true, InsertedID: item.ID}, nil
}

func (f *fakeStore) UpdateMenuItem(ctx context.Context, id primitive.ObjectID, patch store.MenuItemPatch) (*store.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for i := range f.menu {
		if f.menu[i].ID != id {
			continue
		}
		m := &f.menu[i]
		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Recipe != nil {
			m.Recipe = *patch.Recipe
		}
		if patch.Image != nil {
			m.Image = *patch.Image
		}
		if patch.Category != nil {
			m.Category = *patch.Category
		}
		if patch.Price != nil {
			m.Price = *patch.Price
		}
		return &store.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &store.UpdateResult{Acknowledged: true}, nil
}

func (f *fakeStore) DeleteMenuItem(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	for i := range f.menu {
		if f.menu[i].ID == id {
			f.menu = append(f.menu[:i], f.menu[i+1:]...)
			return &store.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return &store.DeleteResult{Acknowledged: true}, nil
}

func insertDocument(documents *[]store.Document, doc store.Document) *store.InsertResult {
	id := primitive.NewObjectID()
	doc["_id"] = id
	*documents = append(*documents, doc)
	return &store.InsertResult{Acknowledged: true, InsertedID: id}
}

func deleteDocument(documents *[]store.Document, id primitive.ObjectID) *store.DeleteResult {
	for i, doc := range *documents {
		if doc["_id"] == id {
			*documents = append((*documents)[:i], (*documents)[i+1:]...)
			return &store.DeleteResult{Acknowledged: true, DeletedCount: 1}
		}
	}
	return &store.DeleteResult{Acknowledged: true}
}

func filterDocuments(documents []store.Document, match func(store.Document) bool) []store.Document {
	result := []store.Document{}
	for _, doc := range documents {
		if match(doc) {
			result = append(result, doc)
		}
	}
	return result
}

func (f *fakeStore) ListReviews(ctx context.Context) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]store.Document{}, f.reviews...), nil
}

func (f *fakeStore) InsertReview(ctx context.Context, review store.Document) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return insertDocument(&f.reviews, review), nil
}

func (f *fakeStore) ListOrders(ctx context.Context, email string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return filterDocuments(f.orders, func(doc store.Document) bool { return doc["email"] == email }), nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, order store.Document) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return insertDocument(&f.orders, order), nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return deleteDocument(&f.orders, id), nil
}

func (f *fakeStore) ListBookings(ctx context.Context, email string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return filterDocuments(f.bookings, func(doc store.Document) bool {
		return doc["userEmail"] == email || doc["email"] == email
	}), nil
}

func (f *fakeStore) ListAllBookings(ctx context.Context) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return append([]store.Document{}, f.bookings...), nil
}

func (f *fakeStore) InsertBooking(ctx context.Context, booking store.Document) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return insertDocument(&f.bookings, booking), nil
}

func (f *fakeStore) DeleteBooking(ctx context.Context, id primitive.ObjectID) (*store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	return deleteDocument(&f.bookings, id), nil
}

func (f *fakeStore) InsertContactMessage(ctx context.Context, message *store.ContactMessage) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	message.ID = primitive.NewObjectID()
	f.contact = append(f.contact, *message)
	return &store.InsertResult{Acknowledged: true, InsertedID: message.ID}, nil
}

func (f *fakeStore) ListPayments(ctx context.Context, email string) ([]store.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	payments := []store.Payment{}
	for _, p := range f.payments {
		if p.Email == email {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

// RecordPayment behaves like the store without transactions: insert, then consume
func (f *fakeStore) RecordPayment(ctx context.Context, p *store.Payment) (*store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	p.ID = primitive.NewObjectID()
	f.payments = append(f.payments, *p)
	for _, id := range p.CartIDs {
		deleteDocument(&f.orders, id)
	}
	return &store.InsertResult{Acknowledged: true, InsertedID: p.ID}, nil
}

func (f *fakeStore) AdminStats(ctx context.Context) (*store.AdminStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	stats := &store.AdminStats{
		Users:     int64(len(f.users)),
		MenuItems: int64(len(f.menu)),
		Orders:    int64(len(f.payments)),
	}
	for _, p := range f.payments {
		stats.Revenue += p.Price
	}
	return stats, nil
}

// OrderStats mirrors the aggregation: unwind menu item ids, join the menu, group by category
func (f *fakeStore) OrderStats(ctx context.Context) ([]store.CategoryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	byCategory := map[string]*store.CategoryStats{}
	for _, p := range f.payments {
		for _, id := range p.MenuItemIDs {
			for _, m := range f.menu {
				if m.ID != id {
					continue
				}
				s, ok := byCategory[m.Category]
				if !ok {
					s = &store.CategoryStats{Category: m.Category}
					byCategory[m.Category] = s
				}
				s.Quantity++
				s.Revenue += m.Price
			}
		}
	}
	stats := []store.CategoryStats{}
	for _, s := range byCategory {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Category < stats[j].Category })
	return stats, nil
}

type event struct {
	resource  string
	operation core.Operation
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *fakeNotifier) Notify(ctx context.Context, resource string, operation core.Operation, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{resource: resource, operation: operation})
}

func (n *fakeNotifier) Events() []event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]event{}, n.events...)
}

type fakePayments struct {
	prices []float64
}

func (p *fakePayments) CreateIntent(ctx context.Context, price float64) (*payment.Intent, error) {
	p.prices = append(p.prices, price)
	return &payment.Intent{ClientSecret: "pi_secret"}, nil
}

type fakeCaptcha struct{}

func (fakeCaptcha) Verify(ctx context.Context, token string) (*captcha.Result, error) {
	switch token {
	case "good":
		return &captcha.Result{Success: true}, nil
	case "":
		return nil, &core.ExternalServiceError{Service: captcha.ServiceName, Status: http.StatusBadRequest, Message: "reCAPTCHA token is missing"}
	case "down":
		return nil, &core.ExternalServiceError{Service: captcha.ServiceName, Status: http.StatusInternalServerError,
			Message: "Error verifying reCAPTCHA", Err: errors.New("connection refused")}
	default:
		return nil, &core.ExternalServiceError{Service: captcha.ServiceName, Status: http.StatusBadRequest,
			Message: "reCAPTCHA verification failed", Codes: []string{"invalid-input-response"}}
	}
}

// testService is a backend on a fake store, driven through the in-process client
type testService struct {
	Store    *fakeStore
	Notifier *fakeNotifier
	Payments *fakePayments
	Tokens   *access.TokenService
	Router   *mux.Router
	Client   client.Client
}

func createTestService(t *testing.T, modify ...func(*backend.Builder)) *testService {
	t.Helper()
	s := &testService{
		Store:    &fakeStore{},
		Notifier: &fakeNotifier{},
		Payments: &fakePayments{},
		Tokens:   access.NewTokenService(testSecret),
		Router:   mux.NewRouter(),
	}
	builder := &backend.Builder{
		Store:    s.Store,
		Router:   s.Router,
		Tokens:   s.Tokens,
		Payments: s.Payments,
		Captcha:  fakeCaptcha{},
		Notifier: s.Notifier,
	}
	for _, m := range modify {
		m(builder)
	}
	require.NotNil(t, backend.New(builder))
	s.Client = client.NewWithRouter(s.Router)
	return s
}

// As returns a client with a valid token for email
func (s *testService) As(t *testing.T, email string) client.Client {
	t.Helper()
	token, err := s.Tokens.Issue(email)
	require.NoError(t, err)
	return s.Client.WithToken(token)
}

func (s *testService) addUser(email, role string) store.User {
	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	u := store.User{ID: primitive.NewObjectID(), Name: email, Email: email, Role: role}
	s.Store.users = append(s.Store.users, u)
	return u
}

func (s *testService) addMenuItem(name, category string, price float64) store.MenuItem {
	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	m := store.MenuItem{ID: primitive.NewObjectID(), Name: name, Category: category, Price: price}
	s.Store.menu = append(s.Store.menu, m)
	return m
}

func (s *testService) addOrder(email string) primitive.ObjectID {
	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	return insertDocument(&s.Store.orders, store.Document{"email": email}).InsertedID
}

func (s *testService) orderCount() int {
	s.Store.mu.Lock()
	defer s.Store.mu.Unlock()
	return len(s.Store.orders)
}

func statusMessage(err error) string {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}
