package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/backup"
	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/reports"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
	"github.com/odyssey-erp/odyssey-pos/jobs"
	_ "github.com/odyssey-erp/odyssey-pos/testing"
)

type harness struct {
	t      *testing.T
	server *httptest.Server
	svcs   *app.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &app.Config{
		StoreDriver:    app.StoreMemory,
		RedisAddr:      mr.Addr(),
		StockCacheTTL:  time.Minute,
		PersistTimeout: time.Second,
		BackupTimeout:  time.Second,
		ReportTimezone: "UTC",
		NodeID:         2,
		AppRateLimit:   10000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	svcs, err := app.BuildServices(context.Background(), cfg, logger, metrics)
	require.NoError(t, err)
	t.Cleanup(svcs.Close)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Metrics:        metrics,
		Checks:         svcs.Checks,
		BillingHandler: billing.NewHandler(logger, svcs.Billing),
		StockHandler:   stock.NewHandler(logger, svcs.Stock),
		ReportsHandler: reports.NewHandler(logger, svcs.Reports),
		BackupHandler:  backup.NewHandler(logger, svcs.Backup),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &harness{t: t, server: server, svcs: svcs}
}

func (h *harness) do(method, path string, body any, want int, out any) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.server.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	require.Equal(h.t, want, resp.StatusCode, string(payload))
	if out != nil {
		require.NoError(h.t, json.Unmarshal(payload, out))
	}
}

func (h *harness) balance(mobile string) float64 {
	var out struct {
		Balance float64 `json:"balance"`
	}
	h.do(http.MethodGet, "/api/customer-credits/"+mobile, nil, http.StatusOK, &out)
	return out.Balance
}

func (h *harness) onHand(code, size string) int {
	var report stock.Report
	h.do(http.MethodGet, "/api/stock/closing", nil, http.StatusOK, &report)
	for _, row := range report.Rows {
		if row.Code == code && row.Size == size {
			return row.QuantityOnHand
		}
	}
	return 0
}

func TestPOSLedgerFlow(t *testing.T) {
	h := newHarness(t)
	const mobile = "9800000042"

	h.do(http.MethodPost, "/api/purchases", map[string]any{
		"date":     "2024-03-01T00:00:00Z",
		"supplier": "Anand Textiles",
		"items":    []map[string]any{{"name": "Top", "code": "TOP01", "size": "M", "quantity": 10, "value": 400}},
	}, http.StatusCreated, nil)
	require.Equal(t, 10, h.onHand("TOP01", "M"))

	var refund billing.FinalizeResult
	h.do(http.MethodPost, "/api/bills", map[string]any{
		"customerName":    "Meera",
		"mobileNumber":    mobile,
		"date":            "2024-03-02T10:00:00Z",
		"transactionType": "Return",
		"items":           []map[string]any{{"id": "r1", "code": "SCF09", "name": "Scarf", "size": "F", "mrp": 500, "quantity": -1}},
	}, http.StatusCreated, &refund)
	assert.InDelta(t, 500, refund.Bill.CreditGenerated, 1e-9)
	require.InDelta(t, 500, h.balance(mobile), 1e-9)

	var sale billing.FinalizeResult
	h.do(http.MethodPost, "/api/bills", map[string]any{
		"customerName":  "Meera",
		"mobileNumber":  mobile,
		"date":          "2024-03-03T10:00:00Z",
		"paymentMethod": "Card",
		"creditToApply": "500",
		"items":         []map[string]any{{"id": "s1", "code": "TOP01", "name": "Top", "size": "M", "mrp": 1000, "quantity": 2, "discountPercentage": 10}},
	}, http.StatusCreated, &sale)
	assert.InDelta(t, 1800, sale.Summary.GrandTotal, 1e-9)
	assert.InDelta(t, 1300, sale.Summary.AmountPayable, 1e-9)
	require.InDelta(t, 0, h.balance(mobile), 1e-9)
	require.Equal(t, 8, h.onHand("TOP01", "M"))

	h.do(http.MethodDelete, "/api/bills/"+sale.Bill.ID, nil, http.StatusOK, nil)
	require.InDelta(t, 500, h.balance(mobile), 1e-9)
	require.Equal(t, 10, h.onHand("TOP01", "M"))

	var credits reports.CreditReport
	h.do(http.MethodGet, "/api/reports/credits", nil, http.StatusOK, &credits)
	require.Len(t, credits.Rows, 1)
	assert.Equal(t, "Meera", credits.Rows[0].CustomerName)
	assert.Equal(t, refund.Bill.ID, credits.Rows[0].LastBillNo)

	drifts, err := jobs.NewCreditReconcileJob(h.svcs.Snapshots, nil, nil, nil).Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestBackupRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/api/purchases", map[string]any{
		"supplier": "Mehta",
		"items":    []map[string]any{{"name": "Jeans", "code": "JNS05", "size": "32", "quantity": 4, "value": 900}},
	}, http.StatusCreated, nil)
	h.do(http.MethodPost, "/api/bills", map[string]any{
		"customerName": "Ravi",
		"mobileNumber": "9811111111",
		"items":        []map[string]any{{"id": "j1", "code": "JNS05", "name": "Jeans", "size": "32", "mrp": 1999, "quantity": 1}},
	}, http.StatusCreated, nil)

	var snap backup.Snapshot
	h.do(http.MethodGet, "/api/backup", nil, http.StatusOK, &snap)
	require.Len(t, snap.Bills, 1)
	require.Len(t, snap.Purchases, 1)

	other := newHarness(t)
	require.Equal(t, 0, other.onHand("JNS05", "32"))
	var counts backup.Counts
	other.do(http.MethodPost, "/api/backup/import", snap, http.StatusOK, &counts)
	assert.Equal(t, backup.Counts{Bills: 1, Credits: 0, Purchases: 1}, counts)
	assert.Equal(t, 3, other.onHand("JNS05", "32"))

	broken := snap
	broken.Bills = append([]billing.Bill{}, snap.Bills...)
	broken.Bills[0].CustomerKey = ""
	other.do(http.MethodPost, "/api/backup/import", broken, http.StatusUnprocessableEntity, nil)
	assert.Equal(t, 3, other.onHand("JNS05", "32"))
}
