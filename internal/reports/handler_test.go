package reports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/credits"
)

type fakeSource struct {
	bills   []billing.Bill
	credits credits.Credits
	err     error
	filters []billing.ListFilter
}

func (f *fakeSource) List(ctx context.Context, filter billing.ListFilter) ([]billing.Bill, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []billing.Bill
	for _, b := range f.bills {
		if filter.Match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSource) Credits(ctx context.Context) (credits.Credits, error) {
	return f.credits, f.err
}

func newReportRouter(src *fakeSource) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(src, nil))
	r.Route("/api", h.MountRoutes)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReportEndpoints(t *testing.T) {
	src := &fakeSource{bills: sampleBills(), credits: credits.Credits{"111": 90}}
	router := newReportRouter(src)

	rec := get(router, "/api/reports/bills?from=2024-03-01&to=2024-03-31")
	require.Equal(t, http.StatusOK, rec.Code)
	var bills BillReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bills))
	assert.Equal(t, 2, bills.Totals.Bills)

	rec = get(router, "/api/reports/items?q=scarf")
	require.Equal(t, http.StatusOK, rec.Code)
	var items ItemReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items.Rows, 2)

	rec = get(router, "/api/reports/summary?groupBy=month")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary SummaryReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, GroupMonth, summary.GroupBy)
	assert.Len(t, summary.Rows, 2)

	rec = get(router, "/api/reports/credits")
	require.Equal(t, http.StatusOK, rec.Code)
	var creditReport CreditReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &creditReport))
	require.Len(t, creditReport.Rows, 1)
	assert.Equal(t, "Asha", creditReport.Rows[0].CustomerName)
}

func TestReportEndpointsRejectBadInput(t *testing.T) {
	router := newReportRouter(&fakeSource{})
	assert.Equal(t, http.StatusUnprocessableEntity, get(router, "/api/reports/summary?groupBy=year").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(router, "/api/reports/items?to=soon").Code)
}

func TestReportSourceFailure(t *testing.T) {
	router := newReportRouter(&fakeSource{err: errors.New("db down")})
	assert.Equal(t, http.StatusInternalServerError, get(router, "/api/reports/bills").Code)
	assert.Equal(t, http.StatusInternalServerError, get(router, "/api/reports/credits").Code)
}
