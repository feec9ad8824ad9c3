// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"context"
	"fmt"

	"github.com/relabs-tech/bistroboss/core/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListPayments returns the payments of the user with email
func (s *Store) ListPayments(ctx context.Context, email string) ([]Payment, error) {
	cursor, err := s.payments.Find(ctx, bson.M{"email": bson.M{"$eq": email}})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", CollectionPayments, err)
	}
	payments := []Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CollectionPayments, err)
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, nil
}

// RecordPayment inserts the payment and then deletes the orders listed in its CartIDs.
//
// Without transactions the two steps are independent. If the process dies or the
// delete fails after the insert, the payment is recorded but the orders remain. Two
// concurrent submissions of the same cart both get recorded.
func (s *Store) RecordPayment(ctx context.Context, payment *Payment) (*InsertResult, error) {
	payment.ID = primitive.NewObjectID()
	if payment.CartIDs == nil {
		payment.CartIDs = []primitive.ObjectID{}
	}
	if payment.MenuItemIDs == nil {
		payment.MenuItemIDs = []primitive.ObjectID{}
	}

	var inserted *InsertResult
	consume := func(ctx context.Context) error {
		res, err := s.payments.InsertOne(ctx, payment)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		inserted = insertResult(res)
		if len(payment.CartIDs) == 0 {
			return nil
		}
		deleted, err := s.orders.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": payment.CartIDs}})
		if err != nil {
			return fmt.Errorf("consume orders: %w", err)
		}
		logger.FromContext(ctx).Debugf("payment %s consumed %d of %d orders", payment.ID.Hex(), deleted.DeletedCount, len(payment.CartIDs))
		return nil
	}

	if !s.transactions {
		if err := consume(ctx); err != nil {
			if inserted != nil {
				logger.FromContext(ctx).WithError(err).Errorf("Error 4861: payment %s recorded but orders not consumed", payment.ID.Hex())
			}
			return nil, err
		}
		return inserted, nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, consume(sc)
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}
