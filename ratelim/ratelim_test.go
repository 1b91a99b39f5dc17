package ratelim

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestLimitRejectsWithJSONError(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	// Burn through the burst from a single address; the first requests pass.
	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		handler(last, r, nil)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request status = %d, want 429", last.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("reject body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("reject body missing error field: %v", body)
	}
}

func TestLimitIsPerAddress(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 11; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		handler(w, r, nil)
	}

	// A different address still has its full burst.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "10.0.0.3:1234"
	handler(w, r, nil)

	if w.Code != http.StatusOK {
		t.Errorf("fresh address status = %d, want 200", w.Code)
	}
}
