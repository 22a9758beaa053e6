package database

import (
	"context"
	"fmt"

	"cafeassist/internal/models"

	"github.com/jinzhu/gorm"
)

// Users resolves accounts for token subjects
type Users struct {
	db *gorm.DB
}

// NewUsers creates a user store backed by db
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// ByID returns the user with the given id
func (u *Users) ByID(ctx context.Context, id uint) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user models.User
	err := u.db.Where("id = ?", id).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// Ensure returns the user with username, creating it when absent
func (u *Users) Ensure(ctx context.Context, username, email, fullName string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user := models.User{Username: username, Email: email, FullName: fullName}
	err := u.db.Where("username = ?", username).FirstOrCreate(&user).Error
	if isUniqueViolation(err) {
		// Lost a race with a concurrent create; the row exists now.
		user = models.User{}
		err = u.db.Where("username = ?", username).First(&user).Error
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", username, err)
	}
	return &user, nil
}
