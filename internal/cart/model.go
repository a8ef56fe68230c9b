package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxItemQty is the most units of a single item a cart may hold.
const MaxItemQty = 5

// Line is one (item, quantity) pair.
type Line struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Cart maps item identifiers to positive quantities and remembers the order
// in which items were first added. The zero value is an empty cart.
//
// A Cart shares its storage on copy; use Clone before mutating a cart that
// someone else may still hold.
type Cart struct {
	order []string
	qty   map[string]int
}

// New builds a cart from lines. Item ids are trimmed and lower-cased,
// non-positive quantities are skipped and quantities above MaxItemQty are
// capped. A repeated item keeps its first position with the last quantity.
func New(lines ...Line) Cart {
	var c Cart
	for _, l := range lines {
		item := strings.ToLower(strings.TrimSpace(l.Item))
		if item == "" || l.Quantity <= 0 {
			continue
		}
		c.set(item, min(l.Quantity, MaxItemQty))
	}
	return c
}

func (c Cart) Quantity(item string) int { return c.qty[item] }

func (c Cart) Len() int { return len(c.order) }

func (c Cart) IsEmpty() bool { return len(c.order) == 0 }

// Lines returns the cart contents in iteration order.
func (c Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, item := range c.order {
		out = append(out, Line{Item: item, Quantity: c.qty[item]})
	}
	return out
}

func (c Cart) Clone() Cart {
	if c.IsEmpty() {
		return Cart{}
	}
	cp := Cart{
		order: make([]string, len(c.order)),
		qty:   make(map[string]int, len(c.qty)),
	}
	copy(cp.order, c.order)
	for k, v := range c.qty {
		cp.qty[k] = v
	}
	return cp
}

func (c *Cart) set(item string, qty int) {
	if c.qty == nil {
		c.qty = make(map[string]int)
	}
	if _, ok := c.qty[item]; !ok {
		c.order = append(c.order, item)
	}
	c.qty[item] = qty
}

func (c *Cart) remove(item string) {
	if _, ok := c.qty[item]; !ok {
		return
	}
	delete(c.qty, item)
	for i, it := range c.order {
		if it == item {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// MarshalJSON writes the cart as a JSON object in iteration order.
func (c Cart) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.qty[item]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of item -> quantity, keeping key order.
// Entries whose quantity is not a positive integer are skipped.
func (c *Cart) UnmarshalJSON(data []byte) error {
	*c = Cart{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var lines []Line
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("cart item %q: quantity must be a number", key)
		}
		q, err := n.Int64()
		if err != nil {
			return nil
		}
		lines = append(lines, Line{Item: key, Quantity: int(q)})
		return nil
	})
	if err != nil {
		return err
	}
	*c = New(lines...)
	return nil
}

// decodeObject walks the members of a JSON object in document order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
