// Package invoice renders an order receipt as PDF bytes. Rendering is a
// pure function of the order snapshot; it never reads live catalog data.
package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

func money(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func Render(o *orders.Order, customer *users.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(212, 175, 55)
	pdf.Cell(0, 10, "ELITE STORE")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.Cell(0, 6, "Premium E-Commerce Platform")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(51, 51, 51)
	pdf.Cell(0, 8, "INVOICE")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice #: %s", strings.ToUpper(shortID(o.ID))))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", o.CreatedAt.Format("Jan 2, 2006")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Payment: %s (%s)", o.PaymentMethod, o.PaymentStatus))
	pdf.Ln(10)

	// Bill to
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Bill To")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, customer.FullName())
	pdf.Ln(5)
	pdf.Cell(0, 5, customer.Email)
	pdf.Ln(5)
	addr := o.ShippingAddress
	pdf.Cell(0, 5, addr.Line1)
	pdf.Ln(5)
	if addr.Line2 != "" {
		pdf.Cell(0, 5, addr.Line2)
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, fmt.Sprintf("%s %s, %s", addr.Zip, addr.City, addr.Country))
	pdf.Ln(10)

	// Items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(212, 175, 55)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	for _, it := range o.Items {
		pdf.CellFormat(90, 8, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, money(it.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, money(it.UnitPriceCents*it.Qty), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	totals := []struct {
		label string
		cents int
	}{
		{"Subtotal", o.SubtotalCents},
		{"Tax", o.TaxCents},
		{"Shipping", o.ShippingCents},
	}
	for _, t := range totals {
		pdf.CellFormat(145, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, money(t.cents), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(145, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, money(o.TotalCents), "", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.Cell(0, 5, "Thank you for shopping with Elite Store.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
