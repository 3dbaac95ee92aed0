package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoice "github.com/elmehdiayad/volo-sub001"
)

type fakeService struct {
	data      *invoice.InvoiceData
	pdf       []byte
	err       error
	gotIDs    []string
	gotSigned bool
	gotCurr   string
	gotTZ     string
	rendered  *invoice.InvoiceData
}

func (f *fakeService) PrepareInvoiceData(_ context.Context, ids []string, tz string) (*invoice.InvoiceData, error) {
	f.gotIDs, f.gotTZ = ids, tz
	return f.data, f.err
}

func (f *fakeService) RenderInvoice(_ context.Context, data *invoice.InvoiceData, signed bool) ([]byte, error) {
	f.rendered, f.gotSigned = data, signed
	return f.pdf, f.err
}

func (f *fakeService) GenerateInvoice(_ context.Context, ids []string, signed bool, currency, tz string) ([]byte, *invoice.InvoiceData, error) {
	f.gotIDs, f.gotSigned, f.gotCurr, f.gotTZ = ids, signed, currency, tz
	return f.pdf, f.data, f.err
}

func testData() *invoice.InvoiceData {
	return &invoice.InvoiceData{
		Number:    "INV-bk-1001",
		IssueDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Supplier: invoice.Party{
			Name:          "Volo Cars",
			ICE:           "001122334455678",
			LogoPath:      "suppliers/volo/logo.png",
			SignaturePath: "suppliers/volo/signature.png",
		},
		Client:    invoice.Party{Name: "Amine Tazi"},
		Items: []invoice.LineItem{{
			Designation: "Dacia Logan (12345-A-6) 01/01/2024 - 03/01/2024",
			Days:        2,
			PricePerDay: decimal.RequireFromString("300"),
			Total:       decimal.RequireFromString("600"),
		}},
		TotalHT:  decimal.RequireFromString("600"),
		TaxRate:  invoice.TaxRate,
		TotalTVA: decimal.RequireFromString("120"),
		TotalTTC: decimal.RequireFromString("720"),
		Currency: "MAD",
		Place:    "Casablanca",
	}
}

func newTestRouter(svc InvoiceService) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	NewHandler(svc, zerolog.Nop(), nil).Register(api)
	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	return r
}

func TestPrepareData(t *testing.T) {
	svc := &fakeService{data: testData()}
	router := newTestRouter(svc)

	body := `{"bookingIds":["bk-1001"],"clientTimezone":"Africa/Casablanca"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/data", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"bk-1001"}, svc.gotIDs)
	assert.Equal(t, "Africa/Casablanca", svc.gotTZ)

	var resp invoiceDataPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INV-bk-1001", resp.Number)
	assert.Equal(t, "2024-06-15", resp.IssueDate)
	assert.Equal(t, "600.00", resp.TotalHT)
	assert.Equal(t, "120.00", resp.TotalTVA)
	assert.Equal(t, "720.00", resp.TotalTTC)
	assert.Equal(t, "suppliers/volo/logo.png", resp.Supplier.LogoPath)
	assert.Equal(t, "suppliers/volo/signature.png", resp.Supplier.SignaturePath)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "300.00", resp.Items[0].PricePerDay)
	assert.Nil(t, resp.Items[0].AdditionalCharges)
}

func TestPrepareData_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"bookingIds":`},
		{name: "empty ids", body: `{"bookingIds":[]}`},
		{name: "missing ids", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/data", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPrepareData_NotFound(t *testing.T) {
	svc := &fakeService{err: invoice.ErrBookingNotFound}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/data", strings.NewReader(`{"bookingIds":["bk-ghost"]}`)))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, msgBookingNotFound, resp.Error)
}

func TestPrepareData_InternalErrorIsOpaque(t *testing.T) {
	svc := &fakeService{err: invoice.ErrInvalidInterval}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/data", strings.NewReader(`{"bookingIds":["bk-1001"]}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), invoice.ErrInvalidInterval.Error())
}

func TestGenerate_FromBookingIDs(t *testing.T) {
	svc := &fakeService{data: testData(), pdf: []byte("%PDF-1.4 fake")}
	router := newTestRouter(svc)

	body := `{"bookingIds":["bk-1001"],"signed":true,"currencySymbol":"€"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/generate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_INV-bk-1001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 fake", rec.Body.String())
	assert.True(t, svc.gotSigned)
	assert.Equal(t, "€", svc.gotCurr)
}

func TestGenerate_FromPreparedData(t *testing.T) {
	svc := &fakeService{data: testData(), pdf: []byte("pdf")}
	router := newTestRouter(svc)

	// The generate endpoint must accept exactly what the data endpoint
	// served, including the supplier asset references a signed render needs.
	prep := httptest.NewRecorder()
	router.ServeHTTP(prep, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/data", strings.NewReader(`{"bookingIds":["bk-1001"]}`)))
	require.Equal(t, http.StatusOK, prep.Code)

	svc.gotIDs = nil
	body := fmt.Sprintf(`{"data":%s,"signed":true,"currencySymbol":"EUR"}`, prep.Body.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/generate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.NotNil(t, svc.rendered)
	assert.Equal(t, "INV-bk-1001", svc.rendered.Number)
	assert.Equal(t, "EUR", svc.rendered.Currency)
	assert.Equal(t, "suppliers/volo/signature.png", svc.rendered.Supplier.SignaturePath)
	assert.Equal(t, "suppliers/volo/logo.png", svc.rendered.Supplier.LogoPath)
	assert.True(t, svc.gotSigned)
	assert.True(t, svc.rendered.TotalTTC.Equal(testData().TotalTTC),
		"TotalTTC = %s", svc.rendered.TotalTTC)
	assert.Equal(t, testData().IssueDate, svc.rendered.IssueDate)
	assert.Nil(t, svc.gotIDs)
}

func TestGenerate_MalformedPreparedData(t *testing.T) {
	router := newTestRouter(&fakeService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "bad issue date", body: `{"data":{"number":"INV-1","issueDate":"15/06/2024","totalHT":"1","taxRate":"0.2","totalTVA":"0.2","totalTTC":"1.2"}}`},
		{name: "bad money value", body: `{"data":{"number":"INV-1","issueDate":"2024-06-15","totalHT":"abc","taxRate":"0.2","totalTVA":"0.2","totalTTC":"1.2"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/generate", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGenerate_NoInput(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/generate", strings.NewReader(`{"signed":true}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_RenderFailure(t *testing.T) {
	svc := &fakeService{err: invoice.ErrNavigationExhausted}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoice/generate", strings.NewReader(`{"bookingIds":["bk-1001"]}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, msgInternal, resp.Error)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
