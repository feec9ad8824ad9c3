// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package store is the resource access layer of the BistroBoss backend.

It maps each logical operation, list, get, count, insert, update, delete and the two
statistics aggregations, onto exactly one MongoDB collection. Identifiers are parsed into
ObjectIDs with ParseID before they reach the store, malformed identifiers fail with
core.ErrBadID.

Collections:

	users     User documents, unique index on email
	menu      MenuItem documents
	reviews   free-form review documents, owned by "userEmail"
	orders    free-form order documents, owned by "email"
	bookings  free-form booking documents, owned by "userEmail" (legacy: "email")
	payment   Payment documents, owned by "email"
	contact   ContactMessage documents
*/
package store

import (
	"context"
	"fmt"

	"github.com/relabs-tech/bistroboss/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollectionUsers    = "users"
	CollectionMenu     = "menu"
	CollectionReviews  = "reviews"
	CollectionOrders   = "orders"
	CollectionBookings = "bookings"
	CollectionPayments = "payment"
	CollectionContact  = "contact"
)

// Store provides access to the BistroBoss collections
type Store struct {
	client       *mongo.Client
	transactions bool

	users    *mongo.Collection
	menu     *mongo.Collection
	reviews  *mongo.Collection
	orders   *mongo.Collection
	bookings *mongo.Collection
	payments *mongo.Collection
	contact  *mongo.Collection
}

// Builder is a builder helper for the Store
type Builder struct {
	// DB is the mongo database. This is mandatory.
	DB *mongo.Database
	// Transactions makes RecordPayment insert the payment and consume the orders in one
	// transaction. This requires a replica set. This is optional.
	Transactions bool
}

// New returns a store for the given database
func New(sb *Builder) *Store {
	if sb.DB == nil {
		panic("DB is missing")
	}
	db := sb.DB
	return &Store{
		client:       db.Client(),
		transactions: sb.Transactions,
		users:        db.Collection(CollectionUsers),
		menu:         db.Collection(CollectionMenu),
		reviews:      db.Collection(CollectionReviews),
		orders:       db.Collection(CollectionOrders),
		bookings:     db.Collection(CollectionBookings),
		payments:     db.Collection(CollectionPayments),
		contact:      db.Collection(CollectionContact),
	}
}

// Connect connects to the mongo deployment at uri and pings it
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the store relies on, if they do not exist yet
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	})
	if err != nil {
		return fmt.Errorf("cannot create index on %s.email: %w", CollectionUsers, err)
	}
	return nil
}

// ParseID parses a hex encoded ObjectID. Malformed ids wrap core.ErrBadID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", core.ErrBadID, id)
	}
	return oid, nil
}

// ParseIDs parses a list of hex encoded ObjectIDs, see ParseID.
func ParseIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

func insertResult(res *mongo.InsertOneResult) *InsertResult {
	id, _ := res.InsertedID.(primitive.ObjectID)
	return &InsertResult{Acknowledged: true, InsertedID: id}
}

func updateResult(res *mongo.UpdateResult) *UpdateResult {
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}
}

func deleteResult(res *mongo.DeleteResult) *DeleteResult {
	return &DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

func (s *Store) insertDocument(ctx context.Context, collection *mongo.Collection, doc Document) (*InsertResult, error) {
	doc["_id"] = primitive.NewObjectID()
	res, err := collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection.Name(), err)
	}
	return insertResult(res), nil
}

func (s *Store) deleteByID(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) (*DeleteResult, error) {
	res, err := collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", collection.Name(), err)
	}
	return deleteResult(res), nil
}

func findDocuments(ctx context.Context, collection *mongo.Collection, filter interface{}) ([]Document, error) {
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection.Name(), err)
	}
	documents := []Document{}
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection.Name(), err)
	}
	if documents == nil {
		documents = []Document{}
	}
	return documents, nil
}
