package database

import (
	"fmt"

	"cafeassist/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type seedItem struct {
	name        string
	price       int64
	description string
}

type seedCategory struct {
	name        string
	description string
	order       int
	items       []seedItem
}

var defaultMenu = []seedCategory{
	{
		name: "Beverages", description: "Hot and cold drinks", order: 1,
		items: []seedItem{
			{"Filter Coffee", 60, "South Indian filter coffee"},
			{"Cappuccino", 80, "Classic Italian cappuccino"},
			{"Cold Coffee", 90, "Chilled coffee with ice cream"},
			{"Masala Chai", 40, "Indian spiced tea"},
			{"Mango Mocktail", 120, "Fresh mango mocktail"},
			{"Virgin Mojito", 110, "Minty lime mocktail"},
			{"Blue Lagoon", 130, "Blue curacao mocktail"},
			{"Fresh Lime Soda", 50, "Sweet or salted lime soda"},
		},
	},
	{
		name: "Snacks", description: "Quick bites and appetizers", order: 2,
		items: []seedItem{
			{"Spring Rolls", 120, "Crispy vegetable spring rolls"},
			{"Samosa", 30, "Classic Indian samosa"},
			{"Paneer Tikka", 180, "Grilled cottage cheese cubes"},
			{"French Fries", 80, "Crispy golden fries"},
			{"Veg Manchurian", 140, "Indo-Chinese veggie balls"},
			{"Chilli Paneer", 160, "Spicy paneer in Chinese style"},
			{"Garlic Bread", 100, "Toasted bread with garlic butter"},
			{"Onion Rings", 90, "Crispy battered onion rings"},
		},
	},
	{
		name: "Rice", description: "Rice dishes and biryanis", order: 3,
		items: []seedItem{
			{"Veg Biryani", 180, "Aromatic vegetable biryani"},
			{"Paneer Biryani", 220, "Biryani with cottage cheese"},
			{"Jeera Rice", 100, "Cumin flavored rice"},
			{"Veg Fried Rice", 140, "Chinese style fried rice"},
			{"Schezwan Rice", 160, "Spicy Schezwan fried rice"},
			{"Curd Rice", 90, "Rice with yogurt and tempering"},
			{"Pulao", 130, "Mildly spiced rice"},
			{"Hyderabadi Biryani", 250, "Authentic Hyderabadi style biryani"},
		},
	},
}

// Seed ensures the default categories and items exist. Rows already present
// are left alone, so it is safe to run on every start. It returns the number
// of items created.
func Seed(db *gorm.DB) (int, error) {
	return seedMenu(db, defaultMenu)
}

func seedMenu(db *gorm.DB, menu []seedCategory) (int, error) {
	created := 0
	err := WithTransaction(db, func(tx *gorm.DB) error {
		for _, sc := range menu {
			category := models.Category{
				Name:         sc.name,
				Description:  sc.description,
				DisplayOrder: sc.order,
			}
			if err := tx.Where("name = ?", sc.name).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", sc.name, err)
			}

			for _, si := range sc.items {
				var count int
				err := tx.Model(&models.Item{}).
					Where("name = ? AND category_id = ?", si.name, category.ID).
					Count(&count).Error
				if err != nil {
					return fmt.Errorf("seed item %s: %w", si.name, err)
				}
				if count > 0 {
					continue
				}

				categoryID := category.ID
				item := models.Item{
					Name:        si.name,
					Description: si.description,
					Price:       decimal.NewFromInt(si.price),
					IsActive:    true,
					CategoryID:  &categoryID,
				}
				if err := models.ValidateItem(&item); err != nil {
					return fmt.Errorf("seed item %q: %w", si.name, err)
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("seed item %s: %w", si.name, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
