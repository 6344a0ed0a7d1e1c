package testhelpers

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/models"
)

// DefaultPassword is the plaintext password of users made by CreateUser
const DefaultPassword = "secret123"

// CreateUser inserts an active user with DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        email,
		EmailKey:     strings.ToLower(email),
		PasswordHash: string(hash),
		Name:         "Test User",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateTag inserts a tag owned by user.
func CreateTag(t *testing.T, db *gorm.DB, user *models.User, name string) models.Tag {
	t.Helper()
	tag := models.Tag{UserID: user.ID, Name: name}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

// CreateIngredient inserts an ingredient owned by user.
func CreateIngredient(t *testing.T, db *gorm.DB, user *models.User, name string) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{UserID: user.ID, Name: name}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ing
}

// CreateRecipe inserts a recipe owned by user and links the given tags
// and ingredients.
func CreateRecipe(t *testing.T, db *gorm.DB, user *models.User, title string, tags []models.Tag, ingredients []models.Ingredient) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		UserID:      user.ID,
		Title:       title,
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("5.00"),
		Tags:        tags,
		Ingredients: ingredients,
	}
	if err := db.Omit("Tags.*", "Ingredients.*").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}
