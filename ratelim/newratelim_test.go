package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestLimitPerIP(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	// burst is twice the rate
	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: %d", i, code)
		}
	}
	if code := call("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("third request from the same IP: %d", code)
	}
	if code := call("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("another IP should have its own bucket: %d", code)
	}
}

func TestNewRateLimiterDefault(t *testing.T) {
	rl := NewRateLimiter(0)
	if rl.perSec != 5 || rl.burst != 10 {
		t.Errorf("defaults = %v/%d", rl.perSec, rl.burst)
	}
}
