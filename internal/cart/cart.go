package cart

import (
	"fmt"

	"slydes/viewer/internal/domain"
)

// Formatter renders an amount in minor units for display.
type Formatter interface {
	Format(cents int64) string
}

// CurrencyFormatter renders cents with a currency symbol and two decimals.
type CurrencyFormatter struct {
	Symbol string
}

func (f CurrencyFormatter) Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, f.Symbol, cents/100, cents%100)
}

// Store is the in-memory cart of one viewer. Lines keep insertion order and are
// unique by item id. Quantities never drop below 1; only Remove and Clear
// take a line out.
type Store struct {
	items     []domain.CartItem
	formatter Formatter
}

func NewStore(formatter Formatter) *Store {
	if formatter == nil {
		formatter = CurrencyFormatter{Symbol: "$"}
	}
	return &Store{formatter: formatter}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add creates the line or increments its quantity by one.
func (s *Store) Add(item domain.CartItem) {
	if i := s.indexOf(item.ID); i >= 0 {
		s.items[i].Quantity++
		return
	}
	item.Quantity = 1
	s.items = append(s.items, item)
}

// SetQuantity sets the line quantity, clamping anything below 1 to 1.
// It reports false when the item is not in the cart.
func (s *Store) SetQuantity(id string, n int) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items[i].Quantity = max(n, 1)
	return true
}

// Decrement lowers the quantity by one, stopping at 1.
func (s *Store) Decrement(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items[i].Quantity = max(s.items[i].Quantity-1, 1)
	return true
}

func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *Store) Clear() {
	s.items = nil
}

func (s *Store) Get(id string) (domain.CartItem, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return domain.CartItem{}, false
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total number of units, as shown on the floating cart badge.
func (s *Store) Count() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) Total() int64 {
	var total int64
	for _, item := range s.items {
		total += item.LineTotal()
	}
	return total
}

func (s *Store) FormattedTotal() string {
	return s.formatter.Format(s.Total())
}

func (s *Store) Format(cents int64) string {
	return s.formatter.Format(cents)
}
