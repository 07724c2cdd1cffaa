// Package cart is the shopping cart state container. A Cart is a value;
// every change goes through Apply, which returns a new Cart and leaves the
// receiver untouched. Persistence lives behind ports.CartStore.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Quantity bounds per cart line.
const (
	MinQuantity = 1
	MaxQuantity = 20
	// MaxLines caps distinct lines in one cart.
	MaxLines = 50
)

var (
	// ErrInvalidQuantity is returned for quantities outside the allowed range.
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 20")
	// ErrLineNotFound is returned when an action targets a missing line.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrTooManyLines is returned when adding would exceed MaxLines.
	ErrTooManyLines = errors.New("cart has too many lines")
	// ErrInvalidItem is returned for items missing a product id or price.
	ErrInvalidItem = errors.New("cart item requires a product id and a non-negative price")
)

// LineKey identifies a cart line: one product in one size.
type LineKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size,omitempty"`
}

// Item is one cart line.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	// UnitPrice is in minor currency units (cents).
	UnitPrice int64 `json:"unit_price"`
	Quantity  int   `json:"quantity"`
}

// Key returns the line key for the item.
func (i Item) Key() LineKey { return LineKey{ProductID: i.ProductID, Size: normalizeSize(i.Size)} }

// Subtotal is UnitPrice * Quantity.
func (i Item) Subtotal() int64 { return i.UnitPrice * int64(i.Quantity) }

// Cart is the serializable cart state.
type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total returns the sum of all line subtotals.
func (c Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// Count returns the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Line returns the line for key, if present.
func (c Cart) Line(key LineKey) (Item, bool) {
	key.Size = normalizeSize(key.Size)
	for _, it := range c.Items {
		if it.Key() == key {
			return it, true
		}
	}
	return Item{}, false
}

// Action is a cart transition.
type Action interface {
	apply(items []Item) ([]Item, error)
	// Name identifies the action in logs.
	Name() string
}

// Apply runs the action against a copy of the cart.
func (c Cart) Apply(a Action) (Cart, error) {
	if a == nil {
		return c, errors.New("nil cart action")
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	next, err := a.apply(items)
	if err != nil {
		return c, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return Cart{Items: next, UpdatedAt: time.Now().UTC()}, nil
}

// AddItem adds Item.Quantity units, merging into an existing line.
type AddItem struct{ Item Item }

func (AddItem) Name() string { return "add_item" }

func (a AddItem) apply(items []Item) ([]Item, error) {
	it := a.Item
	it.Size = normalizeSize(it.Size)
	if strings.TrimSpace(it.ProductID) == "" || it.UnitPrice < 0 {
		return nil, ErrInvalidItem
	}
	if it.Quantity < MinQuantity || it.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	for i := range items {
		if items[i].Key() != it.Key() {
			continue
		}
		merged := items[i].Quantity + it.Quantity
		if merged > MaxQuantity {
			return nil, ErrInvalidQuantity
		}
		items[i].Quantity = merged
		// Keep the latest catalog price and name.
		items[i].UnitPrice = it.UnitPrice
		items[i].Name = it.Name
		return items, nil
	}
	if len(items) >= MaxLines {
		return nil, ErrTooManyLines
	}
	return append(items, it), nil
}

// RemoveItem drops a line.
type RemoveItem struct{ Key LineKey }

func (RemoveItem) Name() string { return "remove_item" }

func (a RemoveItem) apply(items []Item) ([]Item, error) {
	key := a.Key
	key.Size = normalizeSize(key.Size)
	for i := range items {
		if items[i].Key() == key {
			return append(items[:i], items[i+1:]...), nil
		}
	}
	return nil, ErrLineNotFound
}

// UpdateQuantity sets a line's quantity; zero removes the line.
type UpdateQuantity struct {
	Key      LineKey
	Quantity int
}

func (UpdateQuantity) Name() string { return "update_quantity" }

func (a UpdateQuantity) apply(items []Item) ([]Item, error) {
	if a.Quantity == 0 {
		return RemoveItem{Key: a.Key}.apply(items)
	}
	if a.Quantity < MinQuantity || a.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	key := a.Key
	key.Size = normalizeSize(key.Size)
	for i := range items {
		if items[i].Key() == key {
			items[i].Quantity = a.Quantity
			return items, nil
		}
	}
	return nil, ErrLineNotFound
}

// Clear empties the cart.
type Clear struct{}

func (Clear) Name() string { return "clear" }

func (Clear) apply([]Item) ([]Item, error) { return []Item{}, nil }

func normalizeSize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
