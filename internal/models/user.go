package models

import (
	"github.com/jinzhu/gorm"
)

// User is an account known to the storefront. Login itself happens elsewhere;
// the assistant only needs to resolve a token subject to a row.
type User struct {
	gorm.Model
	Username string `gorm:"size:150;unique_index;not null"`
	Email    string `gorm:"size:254"`
	FullName string `gorm:"size:150"`
}
