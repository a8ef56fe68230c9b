package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownItem = errors.New("unknown item")

// Entry is a purchasable item and its unit price.
type Entry struct {
	ID        string  `json:"id" yaml:"id"`
	UnitPrice float64 `json:"price" yaml:"price"`
}

// Catalog is the fixed set of item identifiers and prices. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	entries []Entry
	prices  map[string]float64
}

func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		prices:  make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		id := normalize(strings.TrimSpace(e.ID))
		if id == "" {
			return nil, errors.New("catalog entry without id")
		}
		if e.UnitPrice < 0 {
			return nil, fmt.Errorf("catalog entry %q: negative price", id)
		}
		if _, dup := c.prices[id]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", id)
		}
		c.prices[id] = e.UnitPrice
		c.entries = append(c.entries, Entry{ID: id, UnitPrice: e.UnitPrice})
	}
	return c, nil
}

// Default returns the built-in clothing catalog.
func Default() *Catalog {
	c, err := New(
		Entry{ID: "shirt", UnitPrice: 20},
		Entry{ID: "pants", UnitPrice: 25},
		Entry{ID: "jeans", UnitPrice: 30},
		Entry{ID: "tshirt", UnitPrice: 15},
		Entry{ID: "shoes", UnitPrice: 50},
		Entry{ID: "jacket", UnitPrice: 60},
		Entry{ID: "hat", UnitPrice: 10},
		Entry{ID: "socks", UnitPrice: 5},
		Entry{ID: "scarf", UnitPrice: 12},
		Entry{ID: "blazer", UnitPrice: 45},
		Entry{ID: "skirt", UnitPrice: 22},
		Entry{ID: "sweater", UnitPrice: 35},
		Entry{ID: "shorts", UnitPrice: 18},
		Entry{ID: "watch", UnitPrice: 80},
		Entry{ID: "belt", UnitPrice: 15},
		Entry{ID: "sunglasses", UnitPrice: 25},
		Entry{ID: "handbag", UnitPrice: 55},
		Entry{ID: "boots", UnitPrice: 65},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) PriceOf(id string) (float64, error) {
	price, ok := c.prices[normalize(id)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return price, nil
}

func (c *Catalog) IsValidItem(id string) bool {
	_, ok := c.prices[normalize(id)]
	return ok
}

// Entries returns a copy of the catalog in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Len() int { return len(c.entries) }

func normalize(id string) string {
	return strings.ToLower(id)
}
