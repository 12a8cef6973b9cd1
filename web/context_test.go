package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAbort(t *testing.T) {
	c := &Context{index: -1}
	if c.IsAborted() {
		t.Error("new context should not be aborted")
	}

	c.Abort()
	if !c.IsAborted() {
		t.Error("context should be aborted after Abort()")
	}
}

// Abort 后即使再调用 Next，后续 handler 也不执行
func TestAbortStopsHandlerChain(t *testing.T) {
	executed := make([]int, 0)

	handler1 := func(c *Context) {
		executed = append(executed, 1)
		c.Next()
	}
	handler2 := func(c *Context) {
		executed = append(executed, 2)
		c.Abort()
		c.Next()
	}
	handler3 := func(c *Context) {
		executed = append(executed, 3)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	c := newContext(w, req)
	c.handlers = []HandlerFunc{handler1, handler2, handler3}

	c.Next()

	if len(executed) != 2 || executed[0] != 1 || executed[1] != 2 {
		t.Errorf("expected [1 2], got %v", executed)
	}
}

func TestBindJSONRejectsUnknownFields(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"url":"https://a.example","typo_field":1}`))
	c := newContext(w, req)

	var dst struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&dst); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestBindJSONRejectsTrailingValue(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"url":"https://a.example"}{"again":true}`))
	c := newContext(w, req)

	var dst struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&dst); err == nil {
		t.Error("expected error for second JSON value")
	}
}

func TestBindJSONEmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	c := newContext(w, req)

	var dst struct{}
	if err := c.ShouldBindJSON(&dst); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestAbortWithStatusJSONDoesNotOverwrite(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	c := newContext(w, req)

	c.String(http.StatusOK, "already written")
	c.AbortWithStatusJSON(http.StatusInternalServerError, H{"message": "late"})

	if w.Code != http.StatusOK {
		t.Errorf("status should stay %d, got %d", http.StatusOK, w.Code)
	}
	if strings.Contains(w.Body.String(), "late") {
		t.Error("late JSON body should not be written after a response was sent")
	}
}
