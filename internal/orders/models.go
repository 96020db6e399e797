package orders

import "time"

type PaymentMethod string

const (
	PaymentPrepaid PaymentMethod = "prepaid"
	PaymentCOD     PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentPrepaid || m == PaymentCOD
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentRefunded  PaymentStatus = "Refunded"
)

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// LineItem is the purchase-time snapshot of a product. Name and unit price
// are copied at checkout and never re-read, so the receipt survives later
// catalog edits; Qty is what was reserved and is exactly what a
// cancellation releases.
type LineItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          Status          `json:"status"`

	// Financial fields are fixed at creation and never recomputed.
	SubtotalCents int `json:"subtotal_cents"`
	TaxCents      int `json:"tax_cents"`
	ShippingCents int `json:"shipping_cents"`
	TotalCents    int `json:"total_cents"`

	TrackingNumber string     `json:"tracking_number,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}
