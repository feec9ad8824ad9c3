// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListReviews returns all reviews
func (s *Store) ListReviews(ctx context.Context) ([]Document, error) {
	return findDocuments(ctx, s.reviews, bson.M{})
}

// InsertReview inserts a review. Any _id in the document is replaced.
func (s *Store) InsertReview(ctx context.Context, review Document) (*InsertResult, error) {
	return s.insertDocument(ctx, s.reviews, review)
}

// ListOrders returns the orders of the user with email
func (s *Store) ListOrders(ctx context.Context, email string) ([]Document, error) {
	return findDocuments(ctx, s.orders, bson.M{"email": bson.M{"$eq": email}})
}

// InsertOrder inserts an order. Any _id in the document is replaced.
func (s *Store) InsertOrder(ctx context.Context, order Document) (*InsertResult, error) {
	return s.insertDocument(ctx, s.orders, order)
}

// DeleteOrder deletes the order with id
func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	return s.deleteByID(ctx, s.orders, id)
}

// ListBookings returns the bookings of the user with email. Bookings are owned
// by "userEmail", older bookings by "email", both match.
func (s *Store) ListBookings(ctx context.Context, email string) ([]Document, error) {
	return findDocuments(ctx, s.bookings, bson.M{"$or": bson.A{
		bson.M{"userEmail": bson.M{"$eq": email}},
		bson.M{"email": bson.M{"$eq": email}},
	}})
}

// ListAllBookings returns the bookings of all users
func (s *Store) ListAllBookings(ctx context.Context) ([]Document, error) {
	return findDocuments(ctx, s.bookings, bson.M{})
}

// InsertBooking inserts a booking. Any _id in the document is replaced.
func (s *Store) InsertBooking(ctx context.Context, booking Document) (*InsertResult, error) {
	return s.insertDocument(ctx, s.bookings, booking)
}

// DeleteBooking deletes the booking with id
func (s *Store) DeleteBooking(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	return s.deleteByID(ctx, s.bookings, id)
}

// InsertContactMessage stores a message from the contact form
func (s *Store) InsertContactMessage(ctx context.Context, message *ContactMessage) (*InsertResult, error) {
	message.ID = primitive.NewObjectID()
	res, err := s.contact.InsertOne(ctx, message)
	if err != nil {
		return nil, err
	}
	return insertResult(res), nil
}
