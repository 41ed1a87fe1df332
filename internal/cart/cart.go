// Package cart implements the session shopping cart. Carts live in Redis
// keyed by a session cookie; the in-memory store backs tests and local runs
// without Redis.
package cart

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrCorruptCart marks a cart document that cannot be decoded. Callers treat
// it as an empty cart rather than breaking the storefront.
var ErrCorruptCart = errors.New("cart: corrupt cart document")

// Item is one cart line. Price is the unit sale price frozen when the item
// was added, so a markup change does not silently reprice an open cart.
type Item struct {
	Quantity int
	Price    decimal.Decimal
}

// Cart maps product ID to line item.
type Cart struct {
	Items map[string]Item
}

func New() *Cart {
	return &Cart{Items: make(map[string]Item)}
}

// Add puts qty units of the product into the cart. With replace the quantity
// is set outright (the cart-page update path); otherwise it accumulates (the
// add-to-cart button).
func (c *Cart) Add(productID string, price decimal.Decimal, qty int, replace bool) {
	if qty <= 0 {
		if replace {
			c.Remove(productID)
		}
		return
	}
	item, exists := c.Items[productID]
	if replace {
		item.Quantity = qty
	} else {
		item.Quantity += qty
	}
	// the price is snapshotted when the line first appears; later adds and
	// quantity updates must not reprice an open cart
	if !exists {
		item.Price = price
	}
	c.Items[productID] = item
}

// ClampedAdd adds up to qty units without letting the line exceed stock.
// Returns how many units were actually applied and whether clamping occurred.
// A zero applied count with clamped=true means the line was already at stock.
func (c *Cart) ClampedAdd(productID string, price decimal.Decimal, qty, stock int, replace bool) (applied int, clamped bool) {
	if stock < 0 {
		stock = 0
	}
	current := 0
	if !replace {
		current = c.Items[productID].Quantity
	}
	want := current + qty
	if want > stock {
		want = stock
		clamped = true
	}
	applied = want - current
	if applied < 0 {
		applied = 0
	}
	c.Add(productID, price, want, true)
	return applied, clamped
}

// Remove drops the product line entirely.
func (c *Cart) Remove(productID string) {
	delete(c.Items, productID)
}

// Quantity returns the quantity for one product, 0 when absent.
func (c *Cart) Quantity(productID string) int {
	return c.Items[productID].Quantity
}

// Len is the total unit count across all lines, the number shown on the
// cart badge.
func (c *Cart) Len() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Total is the cart grand total.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// persistedItem is the stored wire shape. Price travels as a string so the
// decimal survives the round trip exactly.
type persistedItem struct {
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Encode serializes the cart for storage.
func (c *Cart) Encode() ([]byte, error) {
	doc := make(map[string]persistedItem, len(c.Items))
	for id, item := range c.Items {
		doc[id] = persistedItem{Quantity: item.Quantity, Price: item.Price.String()}
	}
	return json.Marshal(doc)
}

// Decode rebuilds a cart from its stored form. Any malformed content yields
// ErrCorruptCart; lines with a broken price or non-positive quantity are
// dropped rather than poisoning the whole cart.
func Decode(data []byte) (*Cart, error) {
	var doc map[string]persistedItem
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrCorruptCart
	}
	c := New()
	for id, pi := range doc {
		if pi.Quantity <= 0 {
			continue
		}
		price, err := decimal.NewFromString(pi.Price)
		if err != nil {
			continue
		}
		c.Items[id] = Item{Quantity: pi.Quantity, Price: price}
	}
	return c, nil
}
