package invoice

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/elmehdiayad/volo-sub001/internal/dateutil"
)

// BookingSource is the read-only storage collaborator. FindBookings returns
// booking records with car, driver and supplier fully resolved; it returns
// fewer records than requested only when a record is genuinely absent.
type BookingSource interface {
	FindBookings(ctx context.Context, ids []string) ([]BookingRecord, error)
}

// AssetStore resolves logo and signature references to raw bytes.
type AssetStore interface {
	ReadAsset(path string) ([]byte, error)
}

// documentSession abstracts RenderSession so the orchestration can be tested
// without a browser.
type documentSession interface {
	Render(ctx context.Context, markup string) ([]byte, error)
}

// Compile-time interface check.
var _ documentSession = (*RenderSession)(nil)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout  time.Duration
	currency string
	place    string
	now      func() time.Time
}

// Service sequences the invoice pipeline: fetch bookings, aggregate, merge
// into markup, render to PDF. Each call is self-contained; concurrent calls
// share no mutable state.
type Service struct {
	cfg        serviceConfig
	bookings   BookingSource
	assets     AssetStore
	renderer   *DocumentRenderer
	newSession func(timeout time.Duration) documentSession
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-render navigation and page-operation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("invoice: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithLogger sets the structured logger. The default logger discards
// everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithClock injects the issue-date clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("invoice: WithClock func must not be nil")
	}
	return func(s *Service) {
		s.cfg.now = now
	}
}

// WithCurrencySymbol sets the default pre-resolved currency symbol used when
// a request does not carry one.
func WithCurrencySymbol(symbol string) Option {
	return func(s *Service) {
		s.cfg.currency = symbol
	}
}

// WithPlace sets the free-text issue place printed on invoices.
func WithPlace(place string) Option {
	return func(s *Service) {
		s.cfg.place = place
	}
}

// withSessionFactory replaces the render session constructor, for tests.
func withSessionFactory(factory func(timeout time.Duration) documentSession) Option {
	return func(s *Service) {
		s.newSession = factory
	}
}

// defaultCurrencySymbol is used when neither the service nor the request
// resolves one.
const defaultCurrencySymbol = "MAD"

// NewService creates a Service over the given collaborators.
func NewService(bookings BookingSource, assets AssetStore, opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:  defaultSessionTimeout,
			currency: defaultCurrencySymbol,
			now:      time.Now,
		},
		bookings: bookings,
		assets:   assets,
		renderer: NewDocumentRenderer(),
		log:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.newSession == nil {
		s.newSession = func(timeout time.Duration) documentSession {
			return NewRenderSession(timeout)
		}
	}

	return s
}

// PrepareInvoiceData fetches the requested bookings and aggregates them into
// one invoice. Returns ErrEmptyBookingSet before touching storage when no
// ids are supplied, and ErrBookingNotFound when any id does not resolve;
// aggregation is all-or-nothing.
func (s *Service) PrepareInvoiceData(ctx context.Context, bookingIDs []string, clientTimezone string) (*InvoiceData, error) {
	if len(bookingIDs) == 0 {
		return nil, ErrEmptyBookingSet
	}

	loc, err := dateutil.LoadLocation(clientTimezone)
	if err != nil {
		s.log.Warn().Err(err).Msg("unknown client timezone, dates localized in UTC")
	}

	records, err := s.bookings.FindBookings(ctx, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching bookings: %w", err)
	}
	if missing := missingIDs(bookingIDs, records); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, strings.Join(missing, ", "))
	}

	return BuildInvoice(records, BuildOptions{
		Location:       loc,
		CurrencySymbol: s.cfg.currency,
		Place:          s.cfg.place,
		Now:            s.cfg.now(),
	})
}

// RenderInvoice merges the invoice into markup and renders it to a PDF
// through a fresh single-use session. When signed is false no signature
// image is embedded, even if one is on file for the supplier.
func (s *Service) RenderInvoice(ctx context.Context, data *InvoiceData, signed bool) ([]byte, error) {
	assets := DocumentAssets{
		LogoDataURI: s.resolveAsset(data.Supplier.LogoPath, "logo"),
	}
	if signed {
		assets.SignatureDataURI = s.resolveAsset(data.Supplier.SignaturePath, "signature")
	}

	markup, err := s.renderer.RenderDocument(data, assets)
	if err != nil {
		s.log.Error().Err(err).Str("invoice", data.Number).Msg("invoice merge failed")
		return nil, err
	}

	pdf, err := s.newSession(s.cfg.timeout).Render(ctx, markup)
	if err != nil {
		s.log.Error().Err(err).Str("invoice", data.Number).Msg("invoice rendering failed")
		return nil, err
	}
	return pdf, nil
}

// GenerateInvoice is the end-to-end operation behind the generate endpoint:
// prepare the data, then render it. The returned InvoiceData carries the
// number used to name the artifact.
func (s *Service) GenerateInvoice(ctx context.Context, bookingIDs []string, signed bool, currencySymbol, clientTimezone string) ([]byte, *InvoiceData, error) {
	data, err := s.PrepareInvoiceData(ctx, bookingIDs, clientTimezone)
	if err != nil {
		return nil, nil, err
	}
	if currencySymbol != "" {
		data.Currency = currencySymbol
	}

	pdf, err := s.RenderInvoice(ctx, data, signed)
	if err != nil {
		return nil, nil, err
	}
	return pdf, data, nil
}

// resolveAsset reads an asset reference and encodes it as a data URI.
// Resolution failures degrade to an empty asset: logged, never fatal.
func (s *Service) resolveAsset(path, kind string) string {
	if path == "" {
		return ""
	}
	raw, err := s.assets.ReadAsset(path)
	if err != nil {
		s.log.Warn().
			Err(fmt.Errorf("%w: %v", ErrAssetUnavailable, err)).
			Str("kind", kind).
			Str("path", path).
			Msg("asset degraded to empty")
		return ""
	}
	return "data:" + assetMIME(path) + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// assetMIME guesses the asset content type from its extension.
func assetMIME(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "image/png"
}

// missingIDs returns the requested ids that did not resolve to a record.
func missingIDs(ids []string, records []BookingRecord) []string {
	found := make(map[string]struct{}, len(records))
	for _, r := range records {
		found[r.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
