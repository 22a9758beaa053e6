package database

import (
	"context"
	"fmt"

	"cafeassist/internal/assistant"

	"github.com/jinzhu/gorm"
)

// Catalog reads the active menu and sales ranking for the assistant
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a catalog backed by db
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ActiveItems returns every active item with its category name, ordered by
// category display order then item name. Uncategorized items come last.
func (c *Catalog) ActiveItems(ctx context.Context) ([]assistant.MenuEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []assistant.MenuEntry
	err := c.db.Table("items").
		Select("items.id, items.name, items.price, items.description, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = items.category_id AND categories.deleted_at IS NULL").
		Where("items.is_active = ? AND items.deleted_at IS NULL", true).
		Order("CASE WHEN categories.id IS NULL THEN 1 ELSE 0 END, categories.display_order, items.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query active items: %w", err)
	}
	return rows, nil
}

// TopSellers returns up to limit items ranked by total quantity ordered
func (c *Catalog) TopSellers(ctx context.Context, limit int) ([]assistant.TopSeller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []assistant.TopSeller
	err := c.db.Table("order_items").
		Select("items.id AS item_id, items.name AS name, SUM(order_items.quantity) AS total_quantity_sold").
		Joins("JOIN items ON items.id = order_items.item_id").
		Where("order_items.deleted_at IS NULL").
		Group("items.id, items.name").
		Order("total_quantity_sold DESC, items.name").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query top sellers: %w", err)
	}
	return rows, nil
}
