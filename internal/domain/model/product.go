//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Product is a menu item served by the backend catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Sizes       []Size    `json:"sizes,omitempty"`
	Price       int64     `json:"price"` // minor units; base price when Sizes is empty
	Available   bool      `json:"available"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Size is a priced size variant of a product.
type Size struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PriceFor returns the unit price for the named size. An empty size, or a
// product without variants, yields the base price.
func (p Product) PriceFor(size string) (int64, bool) {
	if len(p.Sizes) == 0 {
		return p.Price, size == ""
	}
	if size == "" {
		return p.Sizes[0].Price, true
	}
	for _, s := range p.Sizes {
		if equalFold(s.Name, size) {
			return s.Price, true
		}
	}
	return 0, false
}

// ProductAvailabilityUpdate toggles whether a product can be ordered.
type ProductAvailabilityUpdate struct {
	Available bool `json:"available"`
}
