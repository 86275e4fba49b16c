package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		Issuer:         "course-market",
		AccessTokenTTL: 15 * time.Minute,
	})
}

// echoIdentity 返回中间件注入的 user_id
func echoIdentity(c *gin.Context) {
	c.String(http.StatusOK, c.GetString("user_id"))
}

// ── OptionalJWTAuth ──

func TestOptionalJWTAuth_Anonymous(t *testing.T) {
	r := gin.New()
	r.GET("/x", OptionalJWTAuth(newTestJWT()), echoIdentity)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if w.Code != http.StatusOK {
		t.Errorf("匿名请求应放行，got %d", w.Code)
	}
	if w.Body.String() != "" {
		t.Errorf("匿名请求不应注入 user_id，got %q", w.Body.String())
	}
}

func TestOptionalJWTAuth_ValidToken(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("stu-1", "student")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	r := gin.New()
	r.GET("/x", OptionalJWTAuth(mgr), echoIdentity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "stu-1" {
		t.Errorf("expected 200 stu-1, got %d %q", w.Code, w.Body.String())
	}
}

func TestOptionalJWTAuth_InvalidTokenRejected(t *testing.T) {
	r := gin.New()
	r.GET("/x", OptionalJWTAuth(newTestJWT()), echoIdentity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("无效 token 应返回 401，got %d", w.Code)
	}
}

// ── JWTAuth ──

func TestJWTAuth_MissingHeader(t *testing.T) {
	r := gin.New()
	r.GET("/x", JWTAuth(newTestJWT()), echoIdentity)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_WrongIssuer(t *testing.T) {
	other := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		Issuer:         "someone-else",
		AccessTokenTTL: time.Minute,
	})
	token, _ := other.GenerateAccessToken("stu-1", "student")

	r := gin.New()
	r.GET("/x", JWTAuth(newTestJWT()), echoIdentity)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin 放行", "admin", http.StatusOK},
		{"teacher 放行", "teacher", http.StatusOK},
		{"student 拒绝", "student", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				c.Set("role", tt.role)
				c.Next()
			}, RoleAuth("admin", "teacher"), echoIdentity)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRoleAuth_NoRole(t *testing.T) {
	r := gin.New()
	r.GET("/x", RoleAuth("admin"), echoIdentity)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/x", RateLimit(nil, 1, time.Minute, zap.NewNop()), echoIdentity)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求被拦截: %d", i+1, w.Code)
		}
	}
}

// ── RequestID ──

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	r.ServeHTTP(w, req)

	if w.Body.String() != "trace-123" || w.Header().Get("X-Request-ID") != "trace-123" {
		t.Errorf("request id 未透传: body=%q header=%q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_Generated(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if len(w.Body.String()) != 36 {
		t.Errorf("expected generated uuid, got %q", w.Body.String())
	}
}

// ── BodyLimit ──

func TestBodyLimit_DeclaredLengthRejectedEarly(t *testing.T) {
	reached := false
	r := gin.New()
	r.POST("/x", BodyLimit(16), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/x", strings.NewReader(strings.Repeat("a", 64))))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
	if reached {
		t.Error("超限请求不应进入 handler")
	}
	if !strings.Contains(w.Body.String(), `"code":10013`) {
		t.Errorf("expected code 10013, got %s", w.Body.String())
	}
}

func TestBodyLimit_UndeclaredLengthTruncated(t *testing.T) {
	var readErr error
	r := gin.New()
	r.POST("/x", BodyLimit(16), func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/x", strings.NewReader(strings.Repeat("a", 64)))
	req.ContentLength = -1 // chunked
	r.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) || tooLarge.Limit != 16 {
		t.Errorf("expected *http.MaxBytesError with limit 16, got %v", readErr)
	}
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(16), func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(b))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/x", strings.NewReader(`{"code":"A"}`)))

	if w.Code != http.StatusOK || w.Body.String() != `{"code":"A"}` {
		t.Errorf("未超限请求应原样放行，got %d %q", w.Code, w.Body.String())
	}
}
