package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the fixed value-added-tax rate applied to every invoice.
var TaxRate = decimal.RequireFromString("0.20")

// BookingRecord is one completed rental as read from the booking store.
// Records are immutable once fetched; the invoice pipeline never writes
// them back.
type BookingRecord struct {
	ID       string
	From     time.Time // rental interval [From, To)
	To       time.Time
	Price    decimal.Decimal // agreed total for the whole rental
	Options  OptionFlags
	Car      Car
	Driver   Party
	Supplier Party
}

// OptionFlags are the booked insurance and service options. Each flag maps
// 1:1 to a surcharge field on Car.
type OptionFlags struct {
	Cancellation          bool
	Amendments            bool
	CollisionDamageWaiver bool
	TheftProtection       bool
	FullInsurance         bool
	AdditionalDriver      bool
}

// Car identifies the rented vehicle and carries the per-option surcharge
// amounts quoted by the supplier.
type Car struct {
	Brand      string
	Model      string
	Plate      string
	Surcharges OptionSurcharges
}

// OptionSurcharges holds the per-option amounts, in the same canonical order
// as OptionFlags.
type OptionSurcharges struct {
	Cancellation          decimal.Decimal
	Amendments            decimal.Decimal
	CollisionDamageWaiver decimal.Decimal
	TheftProtection       decimal.Decimal
	FullInsurance         decimal.Decimal
	AdditionalDriver      decimal.Decimal
}

// Party is either the supplier or the client side of an invoice.
// Bio is Markdown; LogoPath and SignaturePath are references into the asset
// store, resolved lazily at render time.
type Party struct {
	Name          string `json:"name"`
	ICE           string `json:"ice,omitempty"` // tax/commercial identifier
	Bio           string `json:"bio,omitempty"`
	LogoPath      string `json:"-"`
	SignaturePath string `json:"-"`
}

// AdditionalCharge is one booked option priced on a line item.
type AdditionalCharge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// LineItem is one priced invoice row, built from exactly one booking.
//
// Total is the agreed booking price, not Days × PricePerDay: multiplying the
// divided rate back would reintroduce rounding drift. AdditionalCharges is
// nil when no option flag is set; presence of the field is semantically
// meaningful and nil must stay nil through serialization.
type LineItem struct {
	Designation       string             `json:"designation"`
	Days              int                `json:"days"`
	PricePerDay       decimal.Decimal    `json:"pricePerDay"`
	Total             decimal.Decimal    `json:"total"`
	AdditionalCharges []AdditionalCharge `json:"additionalCharges,omitempty"`
}

// InvoiceData is the consolidated, tax-correct statement for one client,
// ready to be merged into the document template.
type InvoiceData struct {
	Number    string     `json:"number"`
	IssueDate time.Time  `json:"issueDate"`
	Supplier  Party      `json:"supplier"`
	Client    Party      `json:"client"`
	Items     []LineItem `json:"items"`

	// TotalHT is the exact sum of booking prices; TotalTVA is rounded to two
	// decimal places; TotalTTC = TotalHT + TotalTVA.
	TotalHT  decimal.Decimal `json:"totalHT"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	TotalTVA decimal.Decimal `json:"totalTVA"`
	TotalTTC decimal.Decimal `json:"totalTTC"`

	Currency string `json:"currency"`
	Place    string `json:"place,omitempty"`
}

// BuildOptions parameterizes invoice aggregation.
type BuildOptions struct {
	// Location localizes the rental dates in line item designations.
	// Nil means UTC.
	Location *time.Location

	// CurrencySymbol is the pre-resolved display symbol, e.g. "MAD" or "€".
	CurrencySymbol string

	// Place is the free-text issue place printed on the invoice.
	Place string

	// Now is the issue timestamp. The zero value means time.Now().
	Now time.Time
}

// DocumentAssets carries pre-resolved, base64-encoded image assets for the
// template merge. Empty fields render as empty content, never as an error.
type DocumentAssets struct {
	LogoDataURI      string
	SignatureDataURI string
}
