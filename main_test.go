package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"villas/booking"
	"villas/config"
	"villas/notify"
	"villas/ratelim"
)

func TestSetupRouter(t *testing.T) {
	store := notify.NewStore()
	notes := &notify.Service{
		Store: store,
		Acks:  notify.NewAcknowledger("http://127.0.0.1:0", "", store),
		Hub:   notify.NewHub(),
	}
	avail := booking.NewService(booking.NewFeed("http://127.0.0.1:0", ""), nil)
	router := setupRouter(avail, notes, &config.Config{PublicSiteURL: "http://localhost:3000"}, ratelim.NewRateLimiter(100))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "200" {
		t.Errorf("health: %d %q", rec.Code, rec.Body.String())
	}

	for _, path := range []string{"/api/notifications", "/api/availability", "/api/properties/1/availability"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: %d", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rec.Header())
	}
}
