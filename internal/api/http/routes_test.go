package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/rainlog/internal/metrics"
	"github.com/i474232898/rainlog/internal/rainfall"
	"github.com/i474232898/rainlog/internal/store"
)

func newTestApp(t *testing.T, allowMultiplePerDate bool) *fiber.App {
	t.Helper()
	svc := rainfall.NewService(store.NewMemoryStore(allowMultiplePerDate), nil, nil, nil)
	return NewApp(Options{Service: svc})
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.True(t, payload.Error)
	return payload.Message
}

func TestCreateRecordValidation(t *testing.T) {
	app := newTestApp(t, true)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"negative amount", `{"date":"2024-01-05","amount":-1}`, "Amount must be 0 or greater"},
		{"too high", `{"date":"2024-01-05","amount":501}`, "Amount seems too high"},
		{"missing date", `{"amount":1}`, "Date is required"},
		{"missing amount", `{"date":"2024-01-05"}`, "Amount is required"},
		{"bad date", `{"date":"2024-02-30","amount":1}`, "invalid date"},
		{"malformed amount", `{"date":"2024-01-05","amount":"1.2.3"}`, "invalid amount"},
		{"not json", `date=2024-01-05`, "invalid request body"},
		{"tiny exponent", `{"date":"2024-01-05","amount":1e-99999999}`, "decimal places"},
		{"huge exponent", `{"date":"2024-01-05","amount":1e99999999}`, "invalid amount"},
		{"too many decimals", `{"date":"2024-01-05","amount":"1.0005"}`, "decimal places"},
		{"over-long fraction", `{"date":"2024-01-05","amount":"0.` + strings.Repeat("0", 4<<10) + `1"}`, "too long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/api/rainfall", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, errorMessage(t, body), tc.want)
		})
	}
}

func TestCreateRecordOnFirstCalendarDay(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, http.MethodPost, "/api/rainfall", `{"date":"0001-01-01","amount":1}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var rec struct {
		Date string `json:"date"`
	}
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "0001-01-01", rec.Date)
}

func TestCreateAndListRecords(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, http.MethodPost, "/api/rainfall", `{"date":"2024-01-05","amount":0}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var created struct {
		ID     string  `json:"id"`
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2024-01-05", created.Date)
	assert.Equal(t, 0.0, created.Amount)

	status, body = do(t, app, http.MethodPost, "/api/rainfall", `{"date":"2024-01-06","amount":"12,5"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, app, http.MethodGet, "/api/rainfall", "")
	require.Equal(t, http.StatusOK, status)

	var listed []struct {
		ID     string  `json:"id"`
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "2024-01-06", listed[0].Date)
	assert.Equal(t, 12.5, listed[0].Amount)
	assert.Equal(t, created.ID, listed[1].ID)
}

func TestMonthlyTotalsEndpoint(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, http.MethodGet, "/api/rainfall/monthly", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	for _, b := range []string{
		`{"date":"2024-01-05","amount":10}`,
		`{"date":"2024-01-20","amount":5}`,
		`{"date":"2024-02-01","amount":3}`,
	} {
		status, _ := do(t, app, http.MethodPost, "/api/rainfall", b)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body = do(t, app, http.MethodGet, "/api/rainfall/monthly", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[
		{"year":2024,"month":1,"total":3,"label":"February 2024"},
		{"year":2024,"month":0,"total":15,"label":"January 2024"}
	]`, string(body))
}

func TestYearlyEndpoints(t *testing.T) {
	app := newTestApp(t, true)
	for _, b := range []string{
		`{"date":"2023-12-31","amount":"4.5"}`,
		`{"date":"2024-03-02","amount":2.25}`,
	} {
		status, _ := do(t, app, http.MethodPost, "/api/rainfall", b)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := do(t, app, http.MethodGet, "/api/rainfall/yearly", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[
		{"year":2024,"total":2.3,"label":"2024"},
		{"year":2023,"total":4.5,"label":"2023"}
	]`, string(body))

	status, body = do(t, app, http.MethodGet, "/api/rainfall/yearly/2024", "")
	require.Equal(t, http.StatusOK, status)
	var raw struct {
		Year   int `json:"year"`
		Months []struct {
			Month int     `json:"month"`
			Total float64 `json:"total"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, 2024, raw.Year)
	require.Len(t, raw.Months, 12)
	assert.Equal(t, 2.3, raw.Months[2].Total)
	assert.Equal(t, 0.0, raw.Months[0].Total)

	status, _ = do(t, app, http.MethodGet, "/api/rainfall/yearly/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, app, http.MethodGet, "/api/rainfall/yearly/0", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDuplicateDateConflict(t *testing.T) {
	app := newTestApp(t, false)

	status, _ := do(t, app, http.MethodPost, "/api/rainfall", `{"date":"2024-01-05","amount":1}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, app, http.MethodPost, "/api/rainfall", `{"date":"2024-01-05","amount":2}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errorMessage(t, body), "already exists")
}

type brokenStore struct{}

func (brokenStore) Insert(context.Context, rainfall.Record) (rainfall.Record, error) {
	return rainfall.Record{}, errors.New("database is locked")
}

func (brokenStore) List(context.Context) ([]rainfall.Record, error) {
	return nil, errors.New("database is locked")
}

func (brokenStore) Close() error { return nil }

func TestStoreFailuresAreHidden(t *testing.T) {
	app := NewApp(Options{Service: rainfall.NewService(brokenStore{}, nil, nil, nil)})

	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodGet, "/api/rainfall", "", "Failed to fetch rainfall records"},
		{http.MethodGet, "/api/rainfall/monthly", "", "Failed to calculate monthly totals"},
		{http.MethodPost, "/api/rainfall", `{"date":"2024-01-05","amount":1}`, "Failed to save rainfall record"},
	}
	for _, tc := range cases {
		status, body := do(t, app, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, status, tc.path)
		msg := errorMessage(t, body)
		assert.Equal(t, tc.want, msg)
		assert.NotContains(t, msg, "locked")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := rainfall.NewService(store.NewMemoryStore(true), nil, nil, m)
	app := NewApp(Options{Service: svc, Gatherer: reg})

	status, body := do(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","service":"rainlog"}`, string(body))

	status, _ = do(t, app, http.MethodPost, "/api/rainfall", `{"date":"2024-01-05","amount":7.5}`)
	require.Equal(t, http.StatusCreated, status)

	status, body = do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "rainlog_records_created_total 1")
	assert.Contains(t, string(body), "rainlog_rainfall_mm_total 7.5")
}
