package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanhub/internal/clan/handler"
	"clanhub/internal/clan/service"
	"clanhub/internal/clan/store"
	"clanhub/internal/platform/metrics"
	"clanhub/internal/platform/middleware"
	"clanhub/pkg/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(checks map[string]Pinger) (http.Handler, *prometheus.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	svc := service.New(store.NewInMemory())
	return NewRouter(Dependencies{
		Logger:         logger,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: time.Second,
		Checks:         checks,
		Modules:        []Registrar{handler.New(svc, logger)},
	}), reg
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "the assembled router with healthy dependencies", func(t *testing.T) {
		router, _ := newTestRouter(map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
		})

		testutil.When(t, "creating a clan", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/clans",
				map[string]string{"name": "Alpha", "region": "EU"}))

			testutil.Then(t, "it responds 201 with a request id header", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)
				assert.NotEmpty(t, rr.Header().Get(middleware.HeaderRequestID))
				testutil.AssertJSONHasKey(t, rr, "id")
			})
		})

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "every check reports ok", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[HealthResponse](t, rr)
				assert.Equal(t, "ok", resp.Status)
				assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

			testutil.Then(t, "http metrics are exposed", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Contains(t, rr.Body.String(), "clanhub_http_requests_total")
			})
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/guilds"))

			testutil.Then(t, "it responds with a JSON 404", func(t *testing.T) {
				testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Not Found")
			})
		})

		testutil.When(t, "using an unsupported method", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPut, "/clans"))

			testutil.Then(t, "it responds with a JSON 405", func(t *testing.T) {
				testutil.AssertStatusAndDetail(t, rr, http.StatusMethodNotAllowed, "Method Not Allowed")
			})
		})

		testutil.When(t, "posting a non-JSON body", func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, "/clans", "name=Alpha")
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it responds 415", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)
			})
		})
	})

	testutil.Given(t, "a failing dependency", func(t *testing.T) {
		router, _ := newTestRouter(map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") }),
		})

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it responds 503 without leaking the cause", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
				body := rr.Body.String()
				assert.False(t, strings.Contains(body, "connection refused"))
				resp := testutil.UnmarshalResponse[HealthResponse](t, rr)
				require.Equal(t, "unavailable", resp.Status)
				assert.Equal(t, "ok", resp.Checks["database"])
				assert.Equal(t, "unavailable", resp.Checks["redis"])
			})
		})
	})
}
