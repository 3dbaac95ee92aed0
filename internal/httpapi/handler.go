package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	invoice "github.com/elmehdiayad/volo-sub001"
	"github.com/elmehdiayad/volo-sub001/internal/metrics"
)

const (
	msgBadBody         = "invalid request body"
	msgNoBookingIDs    = "no booking ids supplied"
	msgNoRenderInput   = "either bookingIds or data must be supplied"
	msgBookingNotFound = "one or more bookings were not found"
	msgInternal        = "could not generate invoice"
)

// Handler serves the invoicing HTTP API.
type Handler struct {
	service InvoiceService
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewHandler builds the API handler. m may be nil when metrics are disabled.
func NewHandler(service InvoiceService, log zerolog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, log: log, metrics: m}
}

// Register mounts the invoice routes on the given router. The router is
// expected to already carry the version prefix.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/invoice/data", h.prepareData).Methods(http.MethodPost)
	r.HandleFunc("/invoice/generate", h.generate).Methods(http.MethodPost)
}

func (h *Handler) prepareData(w http.ResponseWriter, r *http.Request) {
	var req prepareDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	if len(req.BookingIDs) == 0 {
		h.respondError(w, http.StatusBadRequest, msgNoBookingIDs)
		return
	}

	data, err := h.service.PrepareInvoiceData(r.Context(), req.BookingIDs, req.ClientTimezone)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toResponse(data))
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	var (
		pdf  []byte
		data *invoice.InvoiceData
		err  error
	)
	start := time.Now()
	switch {
	case req.Data != nil:
		data, err = req.Data.toDomain()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, msgBadBody)
			return
		}
		if req.CurrencySymbol != "" {
			data.Currency = req.CurrencySymbol
		}
		pdf, err = h.service.RenderInvoice(r.Context(), data, req.Signed)
	case len(req.BookingIDs) > 0:
		pdf, data, err = h.service.GenerateInvoice(r.Context(), req.BookingIDs, req.Signed, req.CurrencySymbol, req.ClientTimezone)
	default:
		h.respondError(w, http.StatusBadRequest, msgNoRenderInput)
		return
	}
	if err != nil {
		if h.metrics != nil {
			h.metrics.RenderFailures.WithLabelValues(failureReason(err)).Inc()
		}
		h.respondServiceError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.InvoicesGenerated.Inc()
		h.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice_"+data.Number+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn().Err(err).Msg("write pdf response")
	}
}

// failureReason buckets render errors into a bounded metric label set.
func failureReason(err error) string {
	switch {
	case errors.Is(err, invoice.ErrRenderTimeout):
		return "timeout"
	case errors.Is(err, invoice.ErrNavigationExhausted):
		return "navigation"
	case errors.Is(err, invoice.ErrEngineUnavailable):
		return "engine"
	case errors.Is(err, invoice.ErrPDFExport):
		return "export"
	default:
		return "other"
	}
}

// respondServiceError maps domain errors to HTTP statuses. Anything not
// attributable to the caller stays opaque.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invoice.ErrEmptyBookingSet):
		h.respondError(w, http.StatusBadRequest, msgNoBookingIDs)
	case errors.Is(err, invoice.ErrBookingNotFound):
		h.respondError(w, http.StatusNotFound, msgBookingNotFound)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("invoice request failed")
		h.respondError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, errorResponse{Error: msg})
}

// Health reports liveness. Mounted at the server root, outside the API
// version prefix.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
