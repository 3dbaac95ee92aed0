// Package invoice turns completed car-rental bookings into consolidated,
// tax-correct PDF invoices.
//
// # Pipeline
//
// Data flows strictly downward, one self-contained pass per invoice:
//
//  1. BuildLineItem prices one booking (rental days, price per day,
//     conditional additional charges).
//  2. BuildInvoice aggregates line items into InvoiceData with subtotal,
//     fixed-rate VAT and grand total.
//  3. DocumentRenderer merges InvoiceData and optional assets into HTML.
//  4. RenderSession loads the markup in headless Chrome (go-rod) and
//     paginates it to an A4 PDF, retrying the transient frame-detached
//     navigation failure and guaranteeing engine teardown on every path.
//
// # Usage
//
// Wire the storage and asset collaborators into a Service:
//
//	svc := invoice.NewService(bookings, assets,
//	    invoice.WithTimeout(30*time.Second),
//	    invoice.WithLogger(log),
//	)
//
//	data, err := svc.PrepareInvoiceData(ctx, ids, "Africa/Casablanca")
//	if err != nil {
//	    // ErrEmptyBookingSet and ErrBookingNotFound are caller errors;
//	    // anything else is internal.
//	}
//
//	pdf, err := svc.RenderInvoice(ctx, data, true)
//
// Each render owns one browser instance; sessions are single-use and never
// pooled. Concurrent calls are independent.
package invoice
