package models

import "time"

// Label is the shape shared by tags and ingredients: a short name owned by
// a single user.
type Label struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Tag categorizes recipes, e.g. "Vegan" or "Dessert".
type Tag Label

// Ingredient is a named component that recipes can reference.
type Ingredient Label

// Taxon is satisfied by the label kinds that share storage and service code.
type Taxon interface {
	Tag | Ingredient
}
