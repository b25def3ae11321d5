package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImagePath   string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	SalesCount  int                `bson:"salesCount" json:"salesCount"`
	IsAvailable bool               `bson:"isAvailable" json:"isAvailable"`
	// Fallback marks a product synthesized from the static snapshot or the
	// generic placeholder; it carries no durable identity.
	Fallback  bool      `bson:"-" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
