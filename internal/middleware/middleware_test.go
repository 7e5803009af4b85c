package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "middleware-secret"

func signedToken(t *testing.T, perms []string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":   "user-001",
		"name":  "质检员",
		"perms": perms,
		"exp":   exp.Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	api := r.Group("/api", JWTAuth(testSecret))
	api.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	api.POST("/inspect", RequirePermission("mes:inspect"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newTestRouter()
	cases := []struct {
		name string
		url  string
		auth string
		want int
		body string
	}{
		{"missing", "/api/whoami", "", http.StatusUnauthorized, ""},
		{"bearer", "/api/whoami", "Bearer " + signedToken(t, nil, time.Now().Add(time.Hour)), http.StatusOK, "user-001"},
		{"query token", "/api/whoami?token=" + signedToken(t, nil, time.Now().Add(time.Hour)), "", http.StatusOK, "user-001"},
		{"expired", "/api/whoami", "Bearer " + signedToken(t, nil, time.Now().Add(-time.Hour)), http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Fatal("expected X-Request-ID header")
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	r := newTestRouter()
	for perms, want := range map[string]int{
		"mes:inspect": http.StatusOK,
		"*":           http.StatusOK,
		"mes:view":    http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/inspect", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, []string{perms}, time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("perm %s: expected %d, got %d", perms, want, w.Code)
		}
	}
}
