package invoice

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// testBooking returns a minimal two-day booking used as a base by most tests.
func testBooking() BookingRecord {
	return BookingRecord{
		ID:    "bk-1001",
		From:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		Price: decimal.RequireFromString("600.00"),
		Car: Car{
			Brand: "Dacia",
			Model: "Logan",
			Plate: "12345-A-6",
		},
		Driver:   Party{Name: "Amine Tazi"},
		Supplier: Party{Name: "Volo Cars", ICE: "001122334455678"},
	}
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "exactly 24h is one day",
			from: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "24h1m rolls to two days",
			from: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 2, 10, 1, 0, 0, time.UTC),
			want: 2,
		},
		{
			name: "two hours is still one day",
			from: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "49h is three days",
			from: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 3, 11, 0, 0, 0, time.UTC),
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rentalDays(tt.from, tt.to); got != tt.want {
				t.Errorf("rentalDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildLineItem_InvalidInterval(t *testing.T) {
	tests := []struct {
		name string
		to   time.Time
	}{
		{name: "zero interval", to: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{name: "reversed interval", to: time.Date(2023, 12, 30, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking()
			b.To = tt.to

			_, err := BuildLineItem(b, nil)
			if !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestBuildLineItem_TwoDayBooking(t *testing.T) {
	item, err := BuildLineItem(testBooking(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.Days != 2 {
		t.Errorf("Days = %d, want 2", item.Days)
	}
	if got := item.PricePerDay.StringFixed(2); got != "300.00" {
		t.Errorf("PricePerDay = %s, want 300.00", got)
	}
	if got := item.Total.StringFixed(2); got != "600.00" {
		t.Errorf("Total = %s, want 600.00", got)
	}
	if item.AdditionalCharges != nil {
		t.Errorf("AdditionalCharges = %v, want nil for a booking without options", item.AdditionalCharges)
	}
}

func TestBuildLineItem_Designation(t *testing.T) {
	item, err := BuildLineItem(testBooking(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Dacia", "Logan", "12345-A-6", "01/01/2024", "03/01/2024"} {
		if !strings.Contains(item.Designation, want) {
			t.Errorf("Designation %q does not contain %q", item.Designation, want)
		}
	}
}

func TestBuildLineItem_DesignationUsesClientTimezone(t *testing.T) {
	b := testBooking()
	// 23:30 UTC on Jan 1 is already Jan 2 in UTC+2.
	b.From = time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	b.To = time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC)

	loc := time.FixedZone("UTC+2", 2*60*60)
	item, err := BuildLineItem(b, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(item.Designation, "02/01/2024") {
		t.Errorf("Designation %q should localize the start date to 02/01/2024", item.Designation)
	}
}

func TestBuildLineItem_SingleCharge(t *testing.T) {
	b := testBooking()
	b.Options.Cancellation = true
	b.Car.Surcharges.Cancellation = decimal.RequireFromString("50.00")

	item, err := BuildLineItem(b, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(item.AdditionalCharges) != 1 {
		t.Fatalf("expected exactly one charge, got %d", len(item.AdditionalCharges))
	}
	charge := item.AdditionalCharges[0]
	if charge.Name != "Cancellation Insurance" {
		t.Errorf("charge name = %q, want \"Cancellation Insurance\"", charge.Name)
	}
	if got := charge.Amount.StringFixed(2); got != "50.00" {
		t.Errorf("charge amount = %s, want 50.00", got)
	}
}

func TestBuildLineItem_ChargesFollowCanonicalOrder(t *testing.T) {
	b := testBooking()
	b.Options = OptionFlags{
		Cancellation:          true,
		Amendments:            true,
		CollisionDamageWaiver: true,
		TheftProtection:       true,
		FullInsurance:         true,
		AdditionalDriver:      true,
	}
	b.Car.Surcharges = OptionSurcharges{
		Cancellation:     decimal.RequireFromString("50.00"),
		TheftProtection:  decimal.RequireFromString("30.00"),
		AdditionalDriver: decimal.RequireFromString("15.00"),
		// Amendments, CollisionDamageWaiver and FullInsurance left at zero on
		// purpose: the flag alone determines inclusion.
	}

	item, err := BuildLineItem(b, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNames := []string{
		"Cancellation Insurance",
		"Amendments Insurance",
		"Collision Damage Waiver",
		"Theft Protection",
		"Full Insurance",
		"Additional Driver",
	}
	if len(item.AdditionalCharges) != len(wantNames) {
		t.Fatalf("expected %d charges, got %d", len(wantNames), len(item.AdditionalCharges))
	}
	for i, want := range wantNames {
		if item.AdditionalCharges[i].Name != want {
			t.Errorf("charge[%d] = %q, want %q", i, item.AdditionalCharges[i].Name, want)
		}
	}

	// Zero surcharges still appear, as 0.00.
	if got := item.AdditionalCharges[1].Amount.StringFixed(2); got != "0.00" {
		t.Errorf("zero surcharge renders as %s, want 0.00", got)
	}
}

func TestBuildLineItem_UnevenDivisionKeepsBookingPrice(t *testing.T) {
	b := testBooking()
	b.To = time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC) // 3 days
	b.Price = decimal.RequireFromString("100.00")

	item, err := BuildLineItem(b, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The line total is the agreed price, never days × per-day rounded back.
	if got := item.Total.StringFixed(2); got != "100.00" {
		t.Errorf("Total = %s, want 100.00", got)
	}
	if got := item.PricePerDay.Round(2).StringFixed(2); got != "33.33" {
		t.Errorf("PricePerDay = %s, want 33.33", got)
	}
}
