package invoice

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elmehdiayad/volo-sub001/internal/dateutil"
)

// optionCatalog fixes the canonical order of additional charges:
// cancellation, amendments, collision damage waiver, theft protection,
// full insurance, additional driver.
var optionCatalog = []struct {
	label     string
	booked    func(OptionFlags) bool
	surcharge func(OptionSurcharges) decimal.Decimal
}{
	{"Cancellation Insurance", func(f OptionFlags) bool { return f.Cancellation }, func(s OptionSurcharges) decimal.Decimal { return s.Cancellation }},
	{"Amendments Insurance", func(f OptionFlags) bool { return f.Amendments }, func(s OptionSurcharges) decimal.Decimal { return s.Amendments }},
	{"Collision Damage Waiver", func(f OptionFlags) bool { return f.CollisionDamageWaiver }, func(s OptionSurcharges) decimal.Decimal { return s.CollisionDamageWaiver }},
	{"Theft Protection", func(f OptionFlags) bool { return f.TheftProtection }, func(s OptionSurcharges) decimal.Decimal { return s.TheftProtection }},
	{"Full Insurance", func(f OptionFlags) bool { return f.FullInsurance }, func(s OptionSurcharges) decimal.Decimal { return s.FullInsurance }},
	{"Additional Driver", func(f OptionFlags) bool { return f.AdditionalDriver }, func(s OptionSurcharges) decimal.Decimal { return s.AdditionalDriver }},
}

// BuildLineItem turns one booking into a priced invoice row. Pure function
// of its inputs; loc localizes the dates in the designation (nil = UTC).
//
// Returns ErrInvalidInterval when the rental interval is empty or reversed.
func BuildLineItem(b BookingRecord, loc *time.Location) (LineItem, error) {
	if !b.To.After(b.From) {
		return LineItem{}, fmt.Errorf("%w: booking %s: to %s is not after from %s",
			ErrInvalidInterval, b.ID, b.To.Format(time.RFC3339), b.From.Format(time.RFC3339))
	}

	days := rentalDays(b.From, b.To)
	pricePerDay := b.Price.Div(decimal.NewFromInt(int64(days)))

	designation := fmt.Sprintf("%s %s (%s) %s - %s",
		b.Car.Brand, b.Car.Model, b.Car.Plate,
		dateutil.FormatDate(b.From, loc), dateutil.FormatDate(b.To, loc))

	// Flag presence alone determines inclusion; a zero surcharge still
	// produces a charge line. Unbooked options leave the slice nil.
	var charges []AdditionalCharge
	for _, opt := range optionCatalog {
		if opt.booked(b.Options) {
			charges = append(charges, AdditionalCharge{
				Name:   opt.label,
				Amount: opt.surcharge(b.Car.Surcharges),
			})
		}
	}

	return LineItem{
		Designation:       designation,
		Days:              days,
		PricePerDay:       pricePerDay,
		Total:             b.Price,
		AdditionalCharges: charges,
	}, nil
}

// rentalDays counts billable days as ceil(hours/24): a 24h0m rental is one
// day, a 24h1m rental is two.
func rentalDays(from, to time.Time) int {
	hours := to.Sub(from).Hours()
	return int(math.Ceil(hours / 24))
}
