package domain

type CartItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

func (c CartItem) LineTotal() int64 {
	return c.PriceCents * int64(c.Quantity)
}

// CartItemFrom builds a cart line for an inventory item with quantity 1
func CartItemFrom(item *InventoryItem) CartItem {
	return CartItem{
		ID:         item.ID,
		Title:      item.Title,
		Subtitle:   item.Subtitle,
		PriceCents: item.PriceCents,
		Quantity:   1,
	}
}
