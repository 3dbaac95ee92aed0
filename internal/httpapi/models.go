package httpapi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	invoice "github.com/elmehdiayad/volo-sub001"
)

// issueDateLayout is the wire format of invoice issue dates.
const issueDateLayout = "2006-01-02"

// prepareDataRequest is the body of POST /invoice/data.
type prepareDataRequest struct {
	BookingIDs     []string `json:"bookingIds"`
	ClientTimezone string   `json:"clientTimezone"`
}

// generateRequest is the body of POST /invoice/generate. Either BookingIDs
// or a previously prepared Data must be supplied.
type generateRequest struct {
	BookingIDs     []string            `json:"bookingIds"`
	Data           *invoiceDataPayload `json:"data"`
	Signed         bool                `json:"signed"`
	CurrencySymbol string              `json:"currencySymbol"`
	ClientTimezone string              `json:"clientTimezone"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// invoiceDataPayload is the wire representation of prepared invoice data.
// The data endpoint serves it and the generate endpoint accepts it back, so
// it must survive the round trip. Currency values are fixed to two decimal
// places; rounding happens only here, at the presentation edge.
type invoiceDataPayload struct {
	Number    string            `json:"number"`
	IssueDate string            `json:"issueDate"`
	Supplier  partyPayload      `json:"supplier"`
	Client    partyPayload      `json:"client"`
	Items     []lineItemPayload `json:"items"`
	TotalHT   string            `json:"totalHT"`
	TaxRate   string            `json:"taxRate"`
	TotalTVA  string            `json:"totalTVA"`
	TotalTTC  string            `json:"totalTTC"`
	Currency  string            `json:"currency"`
	Place     string            `json:"place,omitempty"`
}

type partyPayload struct {
	Name string `json:"name"`
	ICE  string `json:"ice,omitempty"`
	Bio  string `json:"bio,omitempty"`
	// Asset references are resolved server-side at render time; they ride
	// along so a prepared payload can still produce a signed document.
	LogoPath      string `json:"logoPath,omitempty"`
	SignaturePath string `json:"signaturePath,omitempty"`
}

type lineItemPayload struct {
	Designation string `json:"designation"`
	Days        int    `json:"days"`
	PricePerDay string `json:"pricePerDay"`
	Total       string `json:"total"`
	// AdditionalCharges stays absent, not empty, for bookings without
	// options.
	AdditionalCharges []chargePayload `json:"additionalCharges,omitempty"`
}

type chargePayload struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// toResponse flattens domain invoice data into the wire representation.
func toResponse(data *invoice.InvoiceData) invoiceDataPayload {
	items := make([]lineItemPayload, 0, len(data.Items))
	for _, item := range data.Items {
		var charges []chargePayload
		for _, c := range item.AdditionalCharges {
			charges = append(charges, chargePayload{
				Name:   c.Name,
				Amount: c.Amount.Round(2).StringFixed(2),
			})
		}
		items = append(items, lineItemPayload{
			Designation:       item.Designation,
			Days:              item.Days,
			PricePerDay:       item.PricePerDay.Round(2).StringFixed(2),
			Total:             item.Total.Round(2).StringFixed(2),
			AdditionalCharges: charges,
		})
	}

	return invoiceDataPayload{
		Number:    data.Number,
		IssueDate: data.IssueDate.Format(issueDateLayout),
		Supplier:  toPartyPayload(data.Supplier),
		Client:    toPartyPayload(data.Client),
		Items:     items,
		TotalHT:   data.TotalHT.Round(2).StringFixed(2),
		TaxRate:   data.TaxRate.String(),
		TotalTVA:  data.TotalTVA.Round(2).StringFixed(2),
		TotalTTC:  data.TotalTTC.Round(2).StringFixed(2),
		Currency:  data.Currency,
		Place:     data.Place,
	}
}

func toPartyPayload(p invoice.Party) partyPayload {
	return partyPayload{
		Name:          p.Name,
		ICE:           p.ICE,
		Bio:           p.Bio,
		LogoPath:      p.LogoPath,
		SignaturePath: p.SignaturePath,
	}
}

// toDomain maps a prepared payload back onto the domain type for rendering.
func (p *invoiceDataPayload) toDomain() (*invoice.InvoiceData, error) {
	issueDate, err := time.Parse(issueDateLayout, p.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("issueDate: %w", err)
	}
	totalHT, err := parseMoney("totalHT", p.TotalHT)
	if err != nil {
		return nil, err
	}
	taxRate, err := parseMoney("taxRate", p.TaxRate)
	if err != nil {
		return nil, err
	}
	totalTVA, err := parseMoney("totalTVA", p.TotalTVA)
	if err != nil {
		return nil, err
	}
	totalTTC, err := parseMoney("totalTTC", p.TotalTTC)
	if err != nil {
		return nil, err
	}

	items := make([]invoice.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		perDay, err := parseMoney("pricePerDay", item.PricePerDay)
		if err != nil {
			return nil, err
		}
		total, err := parseMoney("total", item.Total)
		if err != nil {
			return nil, err
		}
		var charges []invoice.AdditionalCharge
		for _, c := range item.AdditionalCharges {
			amount, err := parseMoney("additionalCharges.amount", c.Amount)
			if err != nil {
				return nil, err
			}
			charges = append(charges, invoice.AdditionalCharge{Name: c.Name, Amount: amount})
		}
		items = append(items, invoice.LineItem{
			Designation:       item.Designation,
			Days:              item.Days,
			PricePerDay:       perDay,
			Total:             total,
			AdditionalCharges: charges,
		})
	}

	return &invoice.InvoiceData{
		Number:    p.Number,
		IssueDate: issueDate,
		Supplier:  p.Supplier.toDomain(),
		Client:    p.Client.toDomain(),
		Items:     items,
		TotalHT:   totalHT,
		TaxRate:   taxRate,
		TotalTVA:  totalTVA,
		TotalTTC:  totalTTC,
		Currency:  p.Currency,
		Place:     p.Place,
	}, nil
}

func (p partyPayload) toDomain() invoice.Party {
	return invoice.Party{
		Name:          p.Name,
		ICE:           p.ICE,
		Bio:           p.Bio,
		LogoPath:      p.LogoPath,
		SignaturePath: p.SignaturePath,
	}
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
