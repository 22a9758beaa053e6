package models

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Category groups menu items for browsing
type Category struct {
	gorm.Model
	Name         string `gorm:"size:100;unique_index;not null"`
	Description  string
	DisplayOrder int
}

// TableName sets the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Item represents a dish or drink that can be ordered
type Item struct {
	gorm.Model
	Name        string          `gorm:"size:150;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive    bool            `gorm:"not null"`
	CategoryID  *uint           `gorm:"index"`
}

// TableName sets the table name for Item
func (Item) TableName() string {
	return "items"
}

// ValidateItem validates a menu item before it is stored
func ValidateItem(item *Item) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if !item.Price.IsPositive() {
		return fmt.Errorf("menu item price must be greater than 0")
	}
	return nil
}
