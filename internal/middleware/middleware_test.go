package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/utils"
)

const secret = "test-secret"

func protected(e *echo.Echo) {
	g := e.Group("/v1/captain", JWTAuth(secret), RequireRole(utils.RoleCaptain))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CaptainID(c))
	})
}

func get(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	protected(e)

	good, err := utils.NewAccessToken(secret, "cap-1", utils.RoleCaptain, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	wrongRole, _ := utils.NewAccessToken(secret, "cap-1", "GUEST", time.Hour)
	otherKey, _ := utils.NewAccessToken("other", "cap-1", utils.RoleCaptain, time.Hour)
	expired, _ := utils.NewAccessToken(secret, "cap-1", utils.RoleCaptain, -time.Minute)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", good.Token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", otherKey.Token, http.StatusUnauthorized},
		{"expired", expired.Token, http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"wrong role", wrongRole.Token, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(e, "/v1/captain/me", tc.token)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusOK && rec.Body.String() != "cap-1" {
				t.Fatalf("captain id = %q", rec.Body.String())
			}
		})
	}
}

func TestRateKey_Strategies(t *testing.T) {
	e := echo.New()
	var keys []string
	e.GET("/v1/manage/:token", func(c echo.Context) error {
		for _, s := range []string{"ip", "user", "ip_user_route"} {
			keys = append(keys, rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: s}, c))
		}
		return c.NoContent(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/manage/abc123", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	e.ServeHTTP(httptest.NewRecorder(), req)

	if keys[0] != "rl:ip:203.0.113.9" {
		t.Fatalf("ip key = %q", keys[0])
	}
	if !strings.HasPrefix(keys[1], "rl:user:guest:") || strings.Contains(keys[1], "abc123") {
		t.Fatalf("user key = %q, want a digest of the guest token", keys[1])
	}
	if !strings.HasSuffix(keys[2], ":route:GET /v1/manage/:token") {
		t.Fatalf("composite key = %q", keys[2])
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop()))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil, zap.NewNop()))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := get(e, "/ping", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"available":true}`))
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"available":true}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:6]); ok {
		t.Fatal("truncated payload must not decode")
	}
}

func TestCacheKey_VariesByQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	key := func(target string) string {
		var k string
		e := echo.New()
		e.GET("/v1/captains/:id/availability", func(c echo.Context) error {
			k = cacheKey(cfg, c)
			return nil
		})
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
		return k
	}
	a := key("/v1/captains/c1/availability?start=1&end=2")
	b := key("/v1/captains/c1/availability?start=1&end=3")
	c := key("/v1/captains/c2/availability?start=1&end=2")
	if a == b || a == c || !strings.HasPrefix(a, "cache:") {
		t.Fatalf("keys should differ per captain and query: %s %s %s", a, b, c)
	}
}

func TestRequestLogger_ReturnsHandlerResult(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(zap.NewNop()))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

	rec := get(e, "/boom", "")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}
