package httpapi

import (
	"context"

	invoice "github.com/elmehdiayad/volo-sub001"
)

// InvoiceService is the invoicing surface the handlers depend on.
type InvoiceService interface {
	PrepareInvoiceData(ctx context.Context, bookingIDs []string, clientTimezone string) (*invoice.InvoiceData, error)
	RenderInvoice(ctx context.Context, data *invoice.InvoiceData, signed bool) ([]byte, error)
	GenerateInvoice(ctx context.Context, bookingIDs []string, signed bool, currencySymbol, clientTimezone string) ([]byte, *invoice.InvoiceData, error)
}
