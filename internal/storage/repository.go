// Package storage is the read-only booking store behind invoice generation.
//
// One query resolves each booking together with its car and both parties;
// the rest of the platform owns writes to these tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	invoice "github.com/elmehdiayad/volo-sub001"
)

// psql builds queries with PostgreSQL placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository reads bookings for invoicing. Implements invoice.BookingSource.
type Repository struct {
	db *sql.DB
}

// Compile-time interface check.
var _ invoice.BookingSource = (*Repository)(nil)

// NewRepository creates a booking repository over the given database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// bookingRow mirrors one joined result row. Party fields other than the name
// are nullable in the schema.
type bookingRow struct {
	id    string
	from  time.Time
	to    time.Time
	price string

	optCancellation bool
	optAmendments   bool
	optCDW          bool
	optTheft        bool
	optFull         bool
	optDriver       bool

	carBrand string
	carModel string
	carPlate string
	surCancellation,
	surAmendments,
	surCDW,
	surTheft,
	surFull,
	surDriver string

	driverName string
	driverICE  sql.NullString

	supplierName      string
	supplierICE       sql.NullString
	supplierBio       sql.NullString
	supplierLogo      sql.NullString
	supplierSignature sql.NullString
}

// findBookingsQuery joins each booking with its car, driver and supplier.
func findBookingsQuery(ids []string) squirrel.SelectBuilder {
	return psql.
		Select(
			"b.id", "b.date_from", "b.date_to", "b.price",
			"b.opt_cancellation", "b.opt_amendments", "b.opt_cdw",
			"b.opt_theft_protection", "b.opt_full_insurance", "b.opt_additional_driver",
			"c.brand", "c.model", "c.plate",
			"c.sur_cancellation", "c.sur_amendments", "c.sur_cdw",
			"c.sur_theft_protection", "c.sur_full_insurance", "c.sur_additional_driver",
			"d.name", "d.ice",
			"s.name", "s.ice", "s.bio", "s.logo_path", "s.signature_path",
		).
		From("bookings b").
		Join("cars c ON c.id = b.car_id").
		Join("parties d ON d.id = b.driver_id").
		Join("parties s ON s.id = b.supplier_id").
		Where(squirrel.Eq{"b.id": ids})
}

// FindBookings resolves the requested bookings with car, driver and supplier
// populated, preserving the order of ids. Absent ids simply yield fewer
// records; the caller decides whether that is fatal.
func (r *Repository) FindBookings(ctx context.Context, ids []string) ([]invoice.BookingRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := findBookingsQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindBookings: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindBookings: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var records []invoice.BookingRecord
	for rows.Next() {
		var row bookingRow
		if err := rows.Scan(
			&row.id, &row.from, &row.to, &row.price,
			&row.optCancellation, &row.optAmendments, &row.optCDW,
			&row.optTheft, &row.optFull, &row.optDriver,
			&row.carBrand, &row.carModel, &row.carPlate,
			&row.surCancellation, &row.surAmendments, &row.surCDW,
			&row.surTheft, &row.surFull, &row.surDriver,
			&row.driverName, &row.driverICE,
			&row.supplierName, &row.supplierICE, &row.supplierBio,
			&row.supplierLogo, &row.supplierSignature,
		); err != nil {
			return nil, fmt.Errorf("%w: FindBookings: %v", ErrScanRow, err)
		}

		record, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: FindBookings: %v", ErrScanRow, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindBookings: %v", ErrExecQuery, err)
	}

	return orderByRequest(ids, records), nil
}

// toRecord maps a scanned row to the domain record.
func (row bookingRow) toRecord() (invoice.BookingRecord, error) {
	price, err := decimal.NewFromString(row.price)
	if err != nil {
		return invoice.BookingRecord{}, fmt.Errorf("booking %s: price %q: %v", row.id, row.price, err)
	}

	surcharges, err := row.surcharges()
	if err != nil {
		return invoice.BookingRecord{}, fmt.Errorf("booking %s: %v", row.id, err)
	}

	return invoice.BookingRecord{
		ID:    row.id,
		From:  row.from,
		To:    row.to,
		Price: price,
		Options: invoice.OptionFlags{
			Cancellation:          row.optCancellation,
			Amendments:            row.optAmendments,
			CollisionDamageWaiver: row.optCDW,
			TheftProtection:       row.optTheft,
			FullInsurance:         row.optFull,
			AdditionalDriver:      row.optDriver,
		},
		Car: invoice.Car{
			Brand:      row.carBrand,
			Model:      row.carModel,
			Plate:      row.carPlate,
			Surcharges: surcharges,
		},
		Driver: invoice.Party{
			Name: row.driverName,
			ICE:  row.driverICE.String,
		},
		Supplier: invoice.Party{
			Name:          row.supplierName,
			ICE:           row.supplierICE.String,
			Bio:           row.supplierBio.String,
			LogoPath:      row.supplierLogo.String,
			SignaturePath: row.supplierSignature.String,
		},
	}, nil
}

// surcharges decodes the six per-option amounts.
func (row bookingRow) surcharges() (invoice.OptionSurcharges, error) {
	var out invoice.OptionSurcharges
	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{row.surCancellation, &out.Cancellation},
		{row.surAmendments, &out.Amendments},
		{row.surCDW, &out.CollisionDamageWaiver},
		{row.surTheft, &out.TheftProtection},
		{row.surFull, &out.FullInsurance},
		{row.surDriver, &out.AdditionalDriver},
	} {
		d, err := decimal.NewFromString(field.raw)
		if err != nil {
			return invoice.OptionSurcharges{}, fmt.Errorf("surcharge %q: %v", field.raw, err)
		}
		*field.dest = d
	}
	return out, nil
}

// orderByRequest reorders records to the requested id order. Ids without a
// record are skipped, never padded.
func orderByRequest(ids []string, records []invoice.BookingRecord) []invoice.BookingRecord {
	byID := make(map[string]invoice.BookingRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	ordered := make([]invoice.BookingRecord, 0, len(records))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
