package invoice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
)

//go:embed templates/*
var templates embed.FS

// defaultTemplateName is the embedded invoice template.
const defaultTemplateName = "templates/invoice.html.tmpl"

// templatePayload is the statically-shaped record merged into the invoice
// template. Every optional field has a defined empty rendering; the merge
// itself never fails on absent data.
type templatePayload struct {
	Number    string
	IssueDate string
	Place     string
	Currency  string

	Supplier    partyView
	SupplierBio template.HTML
	Client      partyView

	Items []lineItemView

	TotalHT  string
	TaxRate  string
	TotalTVA string
	TotalTTC string

	Logo      template.URL
	Signature template.URL
}

type partyView struct {
	Name string
	ICE  string
}

type lineItemView struct {
	Designation string
	Days        int
	PricePerDay string
	Total       string
	// Charges is nil when the booking had no options; the template keys the
	// whole charge block on presence.
	Charges []chargeView
}

type chargeView struct {
	Name   string
	Amount string
}

// DocumentRenderer merges invoice data into the embedded HTML template.
// The zero value is not usable; create one with NewDocumentRenderer.
type DocumentRenderer struct {
	templateName string
	markdown     goldmark.Markdown
}

// NewDocumentRenderer returns a renderer using the default embedded template.
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{
		templateName: defaultTemplateName,
		markdown:     goldmark.New(),
	}
}

// RenderDocument performs a single deterministic merge of data and assets
// into markup. The template is compiled once per call. Missing optional
// fields (logo, signature, bio, place) render as empty content.
func (r *DocumentRenderer) RenderDocument(data *InvoiceData, assets DocumentAssets) (string, error) {
	raw, err := templates.ReadFile(r.templateName)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrTemplateRender, r.templateName, err)
	}

	tmpl, err := template.New("invoice").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: parsing: %v", ErrTemplateRender, err)
	}

	payload, err := r.buildPayload(data, assets)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("%w: executing: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// buildPayload flattens InvoiceData into the template record, formatting all
// currency values to two decimal places. Rounding happens here and nowhere
// earlier in the pipeline.
func (r *DocumentRenderer) buildPayload(data *InvoiceData, assets DocumentAssets) (*templatePayload, error) {
	items := make([]lineItemView, 0, len(data.Items))
	for _, item := range data.Items {
		var charges []chargeView
		for _, c := range item.AdditionalCharges {
			charges = append(charges, chargeView{Name: c.Name, Amount: money(c.Amount)})
		}
		items = append(items, lineItemView{
			Designation: item.Designation,
			Days:        item.Days,
			PricePerDay: money(item.PricePerDay),
			Total:       money(item.Total),
			Charges:     charges,
		})
	}

	bio, err := r.renderBio(data.Supplier.Bio)
	if err != nil {
		return nil, err
	}

	return &templatePayload{
		Number:      data.Number,
		IssueDate:   data.IssueDate.Format("02/01/2006"),
		Place:       data.Place,
		Currency:    data.Currency,
		Supplier:    partyView{Name: data.Supplier.Name, ICE: data.Supplier.ICE},
		SupplierBio: bio,
		Client:      partyView{Name: data.Client.Name, ICE: data.Client.ICE},
		Items:       items,
		TotalHT:     money(data.TotalHT),
		TaxRate:     data.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(0),
		TotalTVA:    money(data.TotalTVA),
		TotalTTC:    money(data.TotalTTC),
		Logo:        template.URL(assets.LogoDataURI),
		Signature:   template.URL(assets.SignatureDataURI),
	}, nil
}

// renderBio converts the supplier's Markdown biography to HTML. An empty bio
// renders nothing.
func (r *DocumentRenderer) renderBio(bio string) (template.HTML, error) {
	if bio == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(bio), &buf); err != nil {
		return "", fmt.Errorf("%w: converting supplier bio: %v", ErrTemplateRender, err)
	}
	return template.HTML(buf.String()), nil
}

// money formats a currency value for presentation.
func money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
