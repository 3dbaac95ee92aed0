package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BuildInvoice combines bookings into one invoice. All bookings in the batch
// are assumed to belong to one supplier and one client; identity is taken
// from the first booking. Input order is preserved in the line items.
//
// TotalHT accumulates the exact booking prices; only the tax amount is
// rounded, to two decimal places. Surcharges are informational line detail,
// assumed already reflected in the booking price upstream.
func BuildInvoice(bookings []BookingRecord, opts BuildOptions) (*InvoiceData, error) {
	if len(bookings) == 0 {
		return nil, ErrEmptyBookingSet
	}

	issued := opts.Now
	if issued.IsZero() {
		issued = time.Now()
	}

	items := make([]LineItem, 0, len(bookings))
	totalHT := decimal.Zero
	for _, b := range bookings {
		item, err := BuildLineItem(b, opts.Location)
		if err != nil {
			return nil, fmt.Errorf("building line item: %w", err)
		}
		items = append(items, item)
		totalHT = totalHT.Add(b.Price)
	}

	totalTVA := totalHT.Mul(TaxRate).Round(2)

	first := bookings[0]
	return &InvoiceData{
		Number:    invoiceNumber(first.ID),
		IssueDate: issued,
		Supplier:  first.Supplier,
		Client:    first.Driver,
		Items:     items,
		TotalHT:   totalHT,
		TaxRate:   TaxRate,
		TotalTVA:  totalTVA,
		TotalTTC:  totalHT.Add(totalTVA),
		Currency:  opts.CurrencySymbol,
		Place:     opts.Place,
	}, nil
}

// invoiceNumber derives the invoice number from the first booking identifier.
func invoiceNumber(bookingID string) string {
	return "INV-" + bookingID
}
