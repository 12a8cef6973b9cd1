package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// 静态路由优先于模糊路由：/healthz 不应被 /:code 抢占
func TestStaticRoutePriority(t *testing.T) {
	engine := New()
	engine.GET("/:code", func(ctx *Context) {
		ctx.String(http.StatusOK, "wildcard:%s", ctx.Param("code"))
	})
	engine.GET("/healthz", func(ctx *Context) {
		ctx.String(http.StatusOK, "%s", "static:healthz")
	})

	tests := []struct {
		path     string
		expected string
	}{
		{"/healthz", "static:healthz"},
		{"/abc123", "wildcard:abc123"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", tt.path, nil)
		engine.ServeHTTP(w, req)
		if w.Body.String() != tt.expected {
			t.Errorf("GET %s: got %q, want %q", tt.path, w.Body.String(), tt.expected)
		}
	}
}

func TestParamExtraction(t *testing.T) {
	engine := New()
	engine.GET("/api/v1/links/:code", func(ctx *Context) {
		ctx.String(http.StatusOK, "%s", ctx.Param("code"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/links/x7Kp2", nil)
	engine.ServeHTTP(w, req)

	if w.Body.String() != "x7Kp2" {
		t.Errorf("param: got %q, want %q", w.Body.String(), "x7Kp2")
	}
}

func TestNotFound(t *testing.T) {
	engine := New()
	engine.GET("/exists", func(ctx *Context) {
		ctx.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/not-exists", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	engine := New()
	engine.GET("/rewrite", func(ctx *Context) {
		ctx.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/rewrite", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != "GET" {
		t.Errorf("Allow header: got %q, want %q", allow, "GET")
	}
}

func TestCustomNoRoute(t *testing.T) {
	engine := New()
	engine.NoRoute(func(ctx *Context) {
		ctx.JSON(http.StatusNotFound, H{"error": "page not found"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nope", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if !strings.Contains(w.Body.String(), "page not found") {
		t.Errorf("expected custom error message, got: %s", w.Body.String())
	}
}

// 分组中间件只作用于匹配前缀的请求
func TestGroupMiddleware(t *testing.T) {
	engine := New()
	var hit bool
	api := engine.Group("/api")
	api.Use(func(ctx *Context) {
		hit = true
		ctx.Next()
	})
	api.GET("/ping", func(ctx *Context) {
		ctx.String(http.StatusOK, "pong")
	})
	engine.GET("/public", func(ctx *Context) {
		ctx.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/public", nil))
	if hit {
		t.Error("group middleware should not run for /public")
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/ping", nil))
	if !hit {
		t.Error("group middleware should run for /api/ping")
	}
}
