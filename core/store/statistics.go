// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminStats returns the number of users, menu items and payments together with the
// revenue, the sum of all payment prices. Without payments the revenue is 0.
func (s *Store) AdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error
	if stats.Users, err = s.users.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("count %s: %w", CollectionUsers, err)
	}
	if stats.MenuItems, err = s.menu.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("count %s: %w", CollectionMenu, err)
	}
	if stats.Orders, err = s.payments.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("count %s: %w", CollectionPayments, err)
	}

	cursor, err := s.payments.Aggregate(ctx, revenuePipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate revenue: %w", err)
	}
	var result []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode revenue: %w", err)
	}
	if len(result) > 0 {
		stats.Revenue = result[0].TotalRevenue
	}
	return stats, nil
}

// OrderStats expands every payment into one row per menu item, joins the rows with the
// menu and returns quantity and revenue per menu category.
func (s *Store) OrderStats(ctx context.Context) ([]CategoryStats, error) {
	cursor, err := s.payments.Aggregate(ctx, orderStatsPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate order stats: %w", err)
	}
	stats := []CategoryStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode order stats: %w", err)
	}
	if stats == nil {
		stats = []CategoryStats{}
	}
	return stats, nil
}

func revenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalRevenue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	}
}

func orderStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$menuItemIds"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollectionMenu},
			{Key: "localField", Value: "menuItemIds"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "menuItems"},
		}}},
		{{Key: "$unwind", Value: "$menuItems"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$menuItems.category"},
			{Key: "quantity", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$menuItems.price"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "quantity", Value: "$quantity"},
			{Key: "revenue", Value: "$revenue"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "category", Value: 1}}}},
	}
}
