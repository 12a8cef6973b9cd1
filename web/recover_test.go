package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecoveryReturns500(t *testing.T) {
	engine := New()
	engine.Use(Recovery())
	engine.GET("/boom", func(ctx *Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/boom", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

// panic 前已经写出响应时，Recovery 不应再改状态码
func TestRecoveryAfterPartialWrite(t *testing.T) {
	engine := New()
	engine.Use(Recovery())
	engine.GET("/partial", func(ctx *Context) {
		ctx.String(http.StatusOK, "partial")
		panic("boom after write")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/partial", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRecoveryDoesNotAffectNormalRequests(t *testing.T) {
	engine := New()
	engine.Use(Recovery())
	engine.GET("/ok", func(ctx *Context) {
		ctx.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ok", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}
