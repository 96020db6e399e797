package catalog

import "time"

type Category string

const (
	CategoryLaptops     Category = "Laptops"
	CategoryPhones      Category = "Mobile Phones"
	CategoryAccessories Category = "Accessories"
	CategoryFashion     Category = "Fashion"
	CategoryHome        Category = "Home"
	CategoryElectronics Category = "Electronics"
)

var categories = map[Category]bool{
	CategoryLaptops:     true,
	CategoryPhones:      true,
	CategoryAccessories: true,
	CategoryFashion:     true,
	CategoryHome:        true,
	CategoryElectronics: true,
}

func (c Category) Valid() bool { return categories[c] }

// Categories returns the fixed set in storefront display order.
func Categories() []Category {
	return []Category{
		CategoryLaptops,
		CategoryPhones,
		CategoryAccessories,
		CategoryFashion,
		CategoryHome,
		CategoryElectronics,
	}
}

type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	Category    Category  `json:"category"`
	Image       string    `json:"image"`
	PriceCents  int       `json:"price_cents"`
	Stock       int       `json:"stock"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
