// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a free-form document as sent by the frontend, used for reviews,
// orders and bookings
type Document = bson.M

// User is a registered user. Role is either empty or "admin".
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	Email    string             `bson:"email" json:"email"`
	PhotoURL string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role     string             `bson:"role,omitempty" json:"role,omitempty"`
}

// MenuItem is a dish on the menu
type MenuItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Recipe   string             `bson:"recipe,omitempty" json:"recipe,omitempty"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	Category string             `bson:"category" json:"category"`
	Price    float64            `bson:"price" json:"price"`
}

// MenuItemPatch is a partial update of a menu item, nil fields stay untouched
type MenuItemPatch struct {
	Name     *string
	Recipe   *string
	Image    *string
	Category *string
	Price    *float64
}

// Empty returns true if the patch does not change anything
func (p MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Recipe == nil && p.Image == nil && p.Category == nil && p.Price == nil
}

// Payment is a completed payment. Recording it consumes the orders in CartIDs.
type Payment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	Email         string               `bson:"email" json:"email"`
	Price         float64              `bson:"price" json:"price"`
	TransactionID string               `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Date          string               `bson:"date,omitempty" json:"date,omitempty"`
	Status        string               `bson:"status,omitempty" json:"status,omitempty"`
	CartIDs       []primitive.ObjectID `bson:"cartIds" json:"cartIds"`
	MenuItemIDs   []primitive.ObjectID `bson:"menuItemIds" json:"menuItemIds"`
}

// ContactMessage is a message sent through the contact form
type ContactMessage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name    string             `bson:"name" json:"name"`
	Email   string             `bson:"email" json:"email"`
	Phone   string             `bson:"phone" json:"phone"`
	Message string             `bson:"message" json:"message"`
}

// AdminStats is the result of the admin statistics
type AdminStats struct {
	Users     int64   `json:"users"`
	MenuItems int64   `json:"menuItems"`
	Orders    int64   `json:"orders"`
	Revenue   float64 `json:"revenue"`
}

// CategoryStats is one row of the order statistics
type CategoryStats struct {
	Category string  `bson:"category" json:"category"`
	Quantity int64   `bson:"quantity" json:"quantity"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
}

// InsertResult is returned by all insert operations
type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

// UpdateResult is returned by all update operations
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult is returned by all delete operations
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
