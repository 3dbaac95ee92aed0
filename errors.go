package invoice

import "errors"

// Sentinel errors for invoice operations.
var (
	// ErrInvalidInterval indicates a booking whose rental interval is empty
	// or reversed. Well-formed bookings always span at least one day.
	ErrInvalidInterval = errors.New("invalid rental interval")

	// ErrEmptyBookingSet indicates that no booking identifiers were supplied.
	ErrEmptyBookingSet = errors.New("empty booking set")

	// ErrBookingNotFound indicates that one or more requested bookings do not
	// exist. Aggregation is all-or-nothing: no partial invoice is built.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAssetUnavailable indicates a logo or signature asset could not be
	// resolved. It is absorbed during rendering (the asset degrades to empty)
	// and never aborts an invoice.
	ErrAssetUnavailable = errors.New("asset unavailable")

	// ErrTemplateRender indicates the invoice template failed to compile or
	// execute against the invoice data.
	ErrTemplateRender = errors.New("invoice template rendering failed")

	// Render session errors.

	// ErrEngineUnavailable indicates the headless rendering engine could not
	// be launched or connected to.
	ErrEngineUnavailable = errors.New("rendering engine unavailable")

	// ErrNavigationExhausted indicates that loading the invoice markup kept
	// failing with the transient frame-detached condition until all retry
	// attempts were used up.
	ErrNavigationExhausted = errors.New("navigation retries exhausted")

	// ErrRenderTimeout indicates the rendering engine did not finish within
	// the configured timeout.
	ErrRenderTimeout = errors.New("rendering timed out")

	// ErrPDFExport indicates the engine failed to paginate the loaded
	// document into a PDF.
	ErrPDFExport = errors.New("PDF export failed")
)
