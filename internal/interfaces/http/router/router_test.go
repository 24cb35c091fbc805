package router

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/mocks"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, mutate func(*config.ServerConfig)) *Router {
	t.Helper()
	cfg := config.Default().Server
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}
	family := handlers.NewFamily("test", mocks.NewFamilyStore(), handlers.Limits{
		MaxNameLength: cfg.MaxNameLength,
		MaxGeneration: cfg.MaxGeneration,
	})
	return New(cfg, family)
}

func serve(r *Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/members",
		strings.NewReader(`{"name":"Luo Cheng","generation":1,"gender":0}`)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	routes := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/relation-codes", http.StatusOK},
		{http.MethodGet, "/api/v1/members", http.StatusOK},
		{http.MethodGet, "/api/v1/members/search?name=Luo", http.StatusOK},
		{http.MethodGet, "/api/v1/members/1", http.StatusOK},
		{http.MethodGet, "/api/v1/relationships", http.StatusOK},
		{http.MethodGet, "/api/v1/kinship?member1ID=1&member2ID=1", http.StatusOK},
		{http.MethodGet, "/api/v1/kinship-network?memberID=1", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, httptest.NewRequest(tt.method, tt.path, nil)).Code)
		})
	}

	w = serve(r, httptest.NewRequest(http.MethodPut, "/api/v1/members/1", strings.NewReader(`{"remark":"eldest"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/v1/members/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	r := newRouter(t, nil)

	serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kin_http_requests_total")
}

func TestRouter_APIKey(t *testing.T) {
	r := newRouter(t, func(cfg *config.ServerConfig) { cfg.APIKey = "secret" })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code,
		"health is public")
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRouter_Limits(t *testing.T) {
	r := newRouter(t, func(cfg *config.ServerConfig) {
		cfg.MaxQueryLength = 32
		cfg.MaxBodyBytes = 64
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/members?name="+strings.Repeat("x", 40), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Query is too long"}`, w.Body.String())

	body := fmt.Sprintf(`{"name":%q,"generation":1,"gender":0}`, strings.Repeat("x", 80))
	w = serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	r := newRouter(t, nil)
	srv := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, r)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
