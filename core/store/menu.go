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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) findMenuItems(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]MenuItem, error) {
	cursor, err := s.menu.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", CollectionMenu, err)
	}
	items := []MenuItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CollectionMenu, err)
	}
	if items == nil {
		items = []MenuItem{}
	}
	return items, nil
}

// ListMenu returns the entire menu
func (s *Store) ListMenu(ctx context.Context) ([]MenuItem, error) {
	return s.findMenuItems(ctx, bson.M{})
}

// GetMenuItem returns the menu item with id, or nil if there is no such item
func (s *Store) GetMenuItem(ctx context.Context, id primitive.ObjectID) (*MenuItem, error) {
	var item MenuItem
	err := s.menu.FindOne(ctx, byID(id)).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find menu item: %w", err)
	}
	return &item, nil
}

// ListMenuByCategory returns the menu items of category. A positive limit caps the
// number of returned items.
func (s *Store) ListMenuByCategory(ctx context.Context, category string, limit int64) ([]MenuItem, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.findMenuItems(ctx, bson.M{"category": bson.M{"$eq": category}}, opts)
}

// CountMenuByCategory returns the number of menu items of category
func (s *Store) CountMenuByCategory(ctx context.Context, category string) (int64, error) {
	count, err := s.menu.CountDocuments(ctx, bson.M{"category": bson.M{"$eq": category}})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", CollectionMenu, err)
	}
	return count, nil
}

// InsertMenuItem adds an item to the menu
func (s *Store) InsertMenuItem(ctx context.Context, item *MenuItem) (*InsertResult, error) {
	item.ID = primitive.NewObjectID()
	res, err := s.menu.InsertOne(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}
	return insertResult(res), nil
}

// UpdateMenuItem sets the fields of patch on the menu item with id. An empty patch
// fails with core.ErrInvalidBody.
func (s *Store) UpdateMenuItem(ctx context.Context, id primitive.ObjectID, patch MenuItemPatch) (*UpdateResult, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", core.ErrInvalidBody)
	}
	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *patch.Category})
	}
	if patch.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *patch.Price})
	}
	if patch.Recipe != nil {
		set = append(set, bson.E{Key: "recipe", Value: *patch.Recipe})
	}
	if patch.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *patch.Image})
	}
	res, err := s.menu.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	return updateResult(res), nil
}

// DeleteMenuItem removes the item with id from the menu
func (s *Store) DeleteMenuItem(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	return s.deleteByID(ctx, s.menu, id)
}
