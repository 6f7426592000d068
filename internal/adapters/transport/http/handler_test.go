package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/service"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/verifier"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/model"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

/* ───────────────────────────── helpers ───────────────────────────── */

const botToken = "123456:dummy"

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type stubSvc struct{ err error }

func (s stubSvc) Validate(context.Context, dto.ValidateDTO) (model.Outcome, error) {
	return model.Outcome{OK: s.err == nil}, s.err
}

func newRouter(t *testing.T, svc appsvc.Service, origins ...string) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	if svc == nil {
		svc = appsvc.New(appsvc.Settings{
			BotToken: botToken,
			MaxAge:   time.Hour,
			Now:      func() time.Time { return now },
		}, nil, metrics.NewValidations(reg))
	}
	return NewRouter(RouterConfig{
		Service:        svc,
		Metrics:        metrics.NewHTTP(reg),
		Gatherer:       reg,
		AllowedOrigins: origins,
	}), reg
}

func post(r *gin.Engine, body, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodPost, "/validate", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.ValidateResponse {
	t.Helper()
	var resp dto.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func signed() string {
	return verifier.Sign(map[string]string{"query_id": "q", "user": `{"id":42}`}, botToken, now.Add(-time.Minute))
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestValidate_RawBody(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := post(r, signed(), "text/plain")
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true,"error":null}`, w.Body.String())
}

func TestValidate_FormContentTypeStillRaw(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := post(r, signed(), "application/x-www-form-urlencoded")
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.True(t, decode(t, w).OK)
}

func TestValidate_JSONBody(t *testing.T) {
	r, _ := newRouter(t, nil)

	body, _ := json.Marshal(dto.ValidateDTO{InitData: signed()})
	w := post(r, string(body), "application/json; charset=utf-8")
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.True(t, decode(t, w).OK)
}

func TestValidate_Rejections(t *testing.T) {
	r, _ := newRouter(t, nil)
	good := signed()

	cases := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"empty", "", nethttp.StatusBadRequest, "init data is empty"},
		{"whitespace", "   ", nethttp.StatusBadRequest, "init data is empty"},
		{"malformed", "a=%zz", nethttp.StatusBadRequest, "init data is malformed"},
		{"missing hash", "a=1&auth_date=1", nethttp.StatusOK, "hash sign is missing"},
		{"bad auth_date", "auth_date=x&hash=ff", nethttp.StatusOK, "parse auth_date to int64: auth_date is invalid"},
		{"missing auth_date", "a=1&hash=ff", nethttp.StatusOK, "auth_date is missing"},
		{"expired", "auth_date=1&hash=ff", nethttp.StatusOK, "init data is expired"},
		{"tampered", good + "0", nethttp.StatusOK, "hash sign is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(r, tc.body, "text/plain")
			require.Equal(t, tc.code, w.Code)
			resp := decode(t, w)
			require.False(t, resp.OK)
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.msg, *resp.Error)
		})
	}
}

func TestValidate_BadJSON(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := post(r, `{"init_data":`, "application/json")
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	require.Equal(t, "init data is malformed", *decode(t, w).Error)
}

func TestValidate_BodyTooLarge(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := post(r, "a="+strings.Repeat("x", maxBodyBytes), "text/plain")
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestValidate_InternalErrorHidden(t *testing.T) {
	r, _ := newRouter(t, stubSvc{err: errors.New("boom: secret detail")})

	w := post(r, "a=1", "text/plain")
	require.Equal(t, nethttp.StatusInternalServerError, w.Code)
	require.Equal(t, "internal server error", *decode(t, w).Error)
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, stubSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	r, _ := newRouter(t, stubSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)
	require.Equal(t, "req-1", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	require.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
}

func TestRouter_CORS(t *testing.T) {
	r, _ := newRouter(t, stubSvc{}, "https://app.example.com")

	preflight := func(origin string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodOptions, "/validate", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://app.example.com")
	require.Equal(t, nethttp.StatusNoContent, w.Code)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example.com")
	require.Equal(t, nethttp.StatusForbidden, w.Code)
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, reg := newRouter(t, nil)

	post(r, signed(), "text/plain")
	post(r, "", "text/plain")

	n, err := testutil.GatherAndCount(reg, "http_requests_total", "initdata_validations_total")
	require.NoError(t, err)
	require.Equal(t, 4, n)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `initdata_validations_total{result="empty_payload"} 1`)
}

func TestValidate_ReasonLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	svc := appsvc.New(appsvc.Settings{
		BotToken: botToken,
		MaxAge:   time.Hour,
		Now:      func() time.Time { return now },
	}, nil, metrics.NewValidations(reg))
	r := NewRouter(RouterConfig{Service: svc, Logger: zap.New(core)})

	stale := verifier.Sign(map[string]string{"query_id": "q"}, botToken, now.Add(-2*time.Hour))
	cases := []struct {
		body, reason string
	}{
		{signed(), "ok"},
		{stale, "expired"},
		{`{"init_data":`, "malformed_payload"},
	}
	for _, tc := range cases {
		ct := ""
		if strings.HasPrefix(tc.body, "{") {
			ct = gin.MIMEJSON
		}
		post(r, tc.body, ct)
	}

	entries := logs.FilterMessage("↗︎ completed").All()
	require.Len(t, entries, len(cases))
	for i, e := range entries {
		require.Equal(t, cases[i].reason, e.ContextMap()["reason"])
	}
}
