package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

func newLoggedApp(t *testing.T) (*fiber.App, *Metrics, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return apperrors.NewNotFound("item", nil)
		}
		return c.SendString(RequestID(c))
	})
	return app, metrics, logs
}

func TestRequestLogger_LogsAndCounts(t *testing.T) {
	app, metrics, logs := newLoggedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/items/:id", entries[1].ContextMap()["route"])

	expected := `
# HELP catalog_http_requests_total Total number of HTTP requests processed
# TYPE catalog_http_requests_total counter
catalog_http_requests_total{method="GET",route="/items/:id",status="200"} 1
catalog_http_requests_total{method="GET",route="/items/:id",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "catalog_http_requests_total"))
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	app, _, _ := newLoggedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/x", "GET", 200, time.Millisecond)
		m.RecordError("/x", "GET", "NOT_FOUND")
		m.RecordStatsFailure("increment_total")
	})
}
