package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// OtherCategory groups menu entries that have no category
const OtherCategory = "Others"

// MenuEntry is a read-only view of one active catalog item
type MenuEntry struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	CategoryName *string         `json:"category_name"`
}

// Category returns the entry's category name, or OtherCategory when unset
func (m MenuEntry) Category() string {
	if m.CategoryName == nil || *m.CategoryName == "" {
		return OtherCategory
	}
	return *m.CategoryName
}

// TopSeller is one row of the sales ranking
type TopSeller struct {
	ItemID            uint   `json:"item_id"`
	Name              string `json:"name"`
	TotalQuantitySold int64  `json:"total_quantity_sold"`
}

// Catalog is the storefront's read side the assistant depends on
type Catalog interface {
	ActiveItems(ctx context.Context) ([]MenuEntry, error)
	TopSellers(ctx context.Context, limit int) ([]TopSeller, error)
}

// Snapshot is the menu and ranking as read at the start of one turn
type Snapshot struct {
	Menu       []MenuEntry
	TopSellers []TopSeller
}

// LoadSnapshot reads a fresh snapshot. Nothing is cached between turns.
func LoadSnapshot(ctx context.Context, catalog Catalog, topLimit int) (Snapshot, error) {
	menu, err := catalog.ActiveItems(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: load menu: %v", ErrCatalogUnavailable, err)
	}
	top, err := catalog.TopSellers(ctx, topLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: load top sellers: %v", ErrCatalogUnavailable, err)
	}
	return Snapshot{Menu: menu, TopSellers: top}, nil
}

// Item looks up a menu entry by id
func (s Snapshot) Item(id uint) (MenuEntry, bool) {
	for _, m := range s.Menu {
		if m.ID == id {
			return m, true
		}
	}
	return MenuEntry{}, false
}

// ItemByName looks up a menu entry by case-insensitive name
func (s Snapshot) ItemByName(name string) (MenuEntry, bool) {
	for _, m := range s.Menu {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return MenuEntry{}, false
}

// Categories returns the distinct category names in sorted order
func (s Snapshot) Categories() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range s.Menu {
		c := m.Category()
		if !seen[c] {
			seen[c] = true
			names = append(names, c)
		}
	}
	sort.Strings(names)
	return names
}

// InCategory returns the entries of a category, matched case-insensitively
func (s Snapshot) InCategory(category string) []MenuEntry {
	var out []MenuEntry
	for _, m := range s.Menu {
		if strings.EqualFold(m.Category(), category) {
			out = append(out, m)
		}
	}
	return out
}

// MostExpensive returns the highest priced entry; the first one wins ties
func (s Snapshot) MostExpensive() (MenuEntry, bool) {
	if len(s.Menu) == 0 {
		return MenuEntry{}, false
	}
	best := s.Menu[0]
	for _, m := range s.Menu[1:] {
		if m.Price.GreaterThan(best.Price) {
			best = m
		}
	}
	return best, true
}

// AtOrBelow returns entries priced at or below the ceiling, in menu order
func (s Snapshot) AtOrBelow(ceiling decimal.Decimal) []MenuEntry {
	var out []MenuEntry
	for _, m := range s.Menu {
		if m.Price.LessThanOrEqual(ceiling) {
			out = append(out, m)
		}
	}
	return out
}
