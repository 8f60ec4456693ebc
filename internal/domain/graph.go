package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrItemNotFound     = errors.New("inventory item not found")
	ErrInvalidGraph     = errors.New("invalid content graph")
	ErrContentNotFound  = errors.New("content not found")
)

// Graph is the read-only content of one published slyde
type Graph struct {
	OrganizationSlug string     `json:"organization_slug"`
	SlydePublicID    string     `json:"slyde_public_id"`
	Categories       []Category `json:"categories"`
}

func (g *Graph) Category(id string) (*Category, bool) {
	if g == nil || id == "" {
		return nil, false
	}
	for i := range g.Categories {
		if g.Categories[i].ID == id {
			return &g.Categories[i], true
		}
	}
	return nil, false
}

func (g *Graph) Item(categoryID, itemID string) (*InventoryItem, bool) {
	category, ok := g.Category(categoryID)
	if !ok {
		return nil, false
	}
	return category.Item(itemID)
}

// Validate checks the structural invariants the navigation engine relies on.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidGraph)
	}

	seen := make(map[string]struct{}, len(g.Categories))
	for _, category := range g.Categories {
		if category.ID == "" {
			return fmt.Errorf("%w: category without id", ErrInvalidGraph)
		}
		if _, dup := seen[category.ID]; dup {
			return fmt.Errorf("%w: duplicate category %s", ErrInvalidGraph, category.ID)
		}
		seen[category.ID] = struct{}{}

		if len(category.Frames) == 0 {
			return fmt.Errorf("%w: category %s has no frames", ErrInvalidGraph, category.ID)
		}

		items := make(map[string]struct{}, len(category.Inventory))
		for _, item := range category.Inventory {
			if item.ID == "" {
				return fmt.Errorf("%w: item without id in category %s", ErrInvalidGraph, category.ID)
			}
			if _, dup := items[item.ID]; dup {
				return fmt.Errorf("%w: duplicate item %s in category %s", ErrInvalidGraph, item.ID, category.ID)
			}
			items[item.ID] = struct{}{}

			if item.PriceCents < 0 {
				return fmt.Errorf("%w: item %s has negative price", ErrInvalidGraph, item.ID)
			}
		}
	}

	return nil
}
