package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one purchasable vehicle as published by the catalog document.
type Item struct {
	Code      int64           `json:"codigo"`
	Brand     string          `json:"marca"`
	Model     string          `json:"modelo"`
	Category  string          `json:"categoria"`
	Type      string          `json:"tipo"`
	SalePrice decimal.Decimal `json:"precio_venta"`
	ImageURL  string          `json:"imagen"`
	LogoURL   string          `json:"logo"`
}

// Title is the display name used by cards, cart lines and invoices.
func (i Item) Title() string {
	return strings.TrimSpace(i.Brand + " " + i.Model)
}

// Catalog is an immutable, ordered set of items indexed by code.
type Catalog struct {
	items  []Item
	byCode map[int64]int
}

// New builds a catalog. When codes repeat, lookups resolve to the first occurrence.
func New(items []Item) *Catalog {
	c := &Catalog{
		items:  make([]Item, len(items)),
		byCode: make(map[int64]int, len(items)),
	}
	copy(c.items, items)
	for idx, item := range c.items {
		if _, exists := c.byCode[item.Code]; exists {
			continue
		}
		c.byCode[item.Code] = idx
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items returns a copy of every item in document order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds an item by code.
func (c *Catalog) Lookup(code int64) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	idx, ok := c.byCode[code]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Search returns items whose "brand model" or category contains query,
// ignoring case. A blank query matches everything.
func (c *Catalog) Search(query string) []Item {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return c.Items()
	}
	out := []Item{}
	if c == nil {
		return out
	}
	for _, item := range c.items {
		title := strings.ToLower(item.Brand + " " + item.Model)
		category := strings.ToLower(item.Category)
		if strings.Contains(title, needle) || strings.Contains(category, needle) {
			out = append(out, item)
		}
	}
	return out
}
