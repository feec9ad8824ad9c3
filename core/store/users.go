// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/access"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListUsers returns all users
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", CollectionUsers, err)
	}
	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CollectionUsers, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// FindUserByEmail returns the user with the given email. The match is exact and
// case sensitive. If there is no such user, it returns nil and no error.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"email": bson.M{"$eq": email}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// AccountRole returns the role of the user with email identity. A missing user has
// the empty role.
func (s *Store) AccountRole(ctx context.Context, identity string) (string, error) {
	user, err := s.FindUserByEmail(ctx, identity)
	if err != nil || user == nil {
		return "", err
	}
	return user.Role, nil
}

// InsertUser inserts a new user. It fails with core.ErrConflict if a user with the same
// email exists already. The role of new users is always empty.
func (s *Store) InsertUser(ctx context.Context, user *User) (*InsertResult, error) {
	user.ID = primitive.NewObjectID()
	user.Role = ""
	res, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return nil, core.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return insertResult(res), nil
}

// PromoteUser sets the role of the user with id to admin
func (s *Store) PromoteUser(ctx context.Context, id primitive.ObjectID) (*UpdateResult, error) {
	res, err := s.users.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{"role": access.RoleAdmin}})
	if err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	return updateResult(res), nil
}

// DeleteUser deletes the user with id
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	return s.deleteByID(ctx, s.users, id)
}
