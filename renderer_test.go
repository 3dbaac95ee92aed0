package invoice

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testInvoiceData() *InvoiceData {
	data, err := BuildInvoice(twoBookings(), BuildOptions{
		CurrencySymbol: "MAD",
		Place:          "Casablanca",
		Now:            time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		panic(err)
	}
	return data
}

func TestRenderDocument_Basics(t *testing.T) {
	markup, err := NewDocumentRenderer().RenderDocument(testInvoiceData(), DocumentAssets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Invoice INV-bk-1001",
		"Volo Cars",
		"Amine Tazi",
		"Dacia Logan (12345-A-6)",
		"1000.00",
		"200.00",
		"1200.00",
		"MAD",
		"Casablanca",
		"15/06/2024",
		"size: A4",
	} {
		if !strings.Contains(markup, want) {
			t.Errorf("markup does not contain %q", want)
		}
	}

	if got := strings.Count(markup, "<html"); got != 1 {
		t.Errorf("markup has %d top-level <html> sections, want 1", got)
	}
}

func TestRenderDocument_ChargeBlockPresence(t *testing.T) {
	t.Run("absent without options", func(t *testing.T) {
		markup, err := NewDocumentRenderer().RenderDocument(testInvoiceData(), DocumentAssets{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(markup, `class="charges"`) {
			t.Error("charge block rendered for line items without options")
		}
	})

	t.Run("present with a booked option", func(t *testing.T) {
		b := testBooking()
		b.Options.Cancellation = true
		b.Car.Surcharges.Cancellation = decimal.RequireFromString("50.00")
		data, err := BuildInvoice([]BookingRecord{b}, BuildOptions{CurrencySymbol: "MAD"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		markup, err := NewDocumentRenderer().RenderDocument(data, DocumentAssets{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(markup, `class="charges"`) {
			t.Error("charge block missing for a booked option")
		}
		if !strings.Contains(markup, "Cancellation Insurance: 50.00") {
			t.Error("charge line missing name or amount")
		}
	})
}

func TestRenderDocument_OptionalAssets(t *testing.T) {
	t.Run("absent assets render no images", func(t *testing.T) {
		markup, err := NewDocumentRenderer().RenderDocument(testInvoiceData(), DocumentAssets{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(markup, "<img") {
			t.Error("markup contains an image without any resolved asset")
		}
	})

	t.Run("resolved assets are embedded", func(t *testing.T) {
		markup, err := NewDocumentRenderer().RenderDocument(testInvoiceData(), DocumentAssets{
			LogoDataURI:      "data:image/png;base64,bG9nbw==",
			SignatureDataURI: "data:image/png;base64,c2ln",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(markup, "data:image/png;base64,bG9nbw==") {
			t.Error("logo data URI not embedded")
		}
		if !strings.Contains(markup, "data:image/png;base64,c2ln") {
			t.Error("signature data URI not embedded")
		}
	})
}

func TestRenderDocument_SupplierBioMarkdown(t *testing.T) {
	data := testInvoiceData()
	data.Supplier.Bio = "**Premium** fleet since 2015"

	markup, err := NewDocumentRenderer().RenderDocument(data, DocumentAssets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markup, "<strong>Premium</strong>") {
		t.Error("supplier bio was not converted from Markdown")
	}
}

func TestRenderDocument_MissingTemplate(t *testing.T) {
	r := NewDocumentRenderer()
	r.templateName = "templates/nope.html.tmpl"

	_, err := r.RenderDocument(testInvoiceData(), DocumentAssets{})
	if !errors.Is(err, ErrTemplateRender) {
		t.Fatalf("expected ErrTemplateRender, got %v", err)
	}
}
