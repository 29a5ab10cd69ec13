package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func newTestRouter(svc *Service) *httprouter.Router {
	router := httprouter.New()
	router.GET("/api/availability", IndexHandler(svc))
	router.GET("/api/availability/ws", WatchHandler(svc))
	router.GET("/api/properties/:propertyId/availability", PropertyHandler(svc))
	router.GET("/api/properties/:propertyId/availability/pdf", PDFHandler(svc, "https://villas.example"))
	return router
}

func TestIndexHandler(t *testing.T) {
	src := &stubSource{bookings: []BookingRange{{PropertyID: 2, CheckIn: "2025-01-30", CheckOut: "2025-02-02"}}}
	router := newTestRouter(NewService(src, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?month=1&year=2025", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var v View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if days := v.Properties["2"]; len(days) != 2 || days[0] != 30 || days[1] != 31 {
		t.Errorf("properties = %v", v.Properties)
	}
}

func TestIndexHandlerBadPeriod(t *testing.T) {
	router := newTestRouter(NewService(&stubSource{}, nil))

	for _, q := range []string{"month=13&year=2025", "month=x", "year=abc"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/availability?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}
}

func TestPropertyHandler(t *testing.T) {
	src := &stubSource{bookings: []BookingRange{{PropertyID: 2, CheckIn: "2025-01-03", CheckOut: "2025-01-05"}}}
	router := newTestRouter(NewService(src, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/2/availability?month=1&year=2025", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		PropertyID int    `json:"propertyId"`
		BookedDays []int  `json:"bookedDays"`
		Message    string `json:"message"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.PropertyID != 2 || len(body.BookedDays) != 2 || body.Message != "" {
		t.Errorf("body = %+v", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/5/availability?month=1&year=2025", nil))
	if !strings.Contains(rec.Body.String(), `"bookedDays":[]`) {
		t.Errorf("unbooked property should list no days, got %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/abc/availability", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", rec.Code)
	}
}

func TestPDFHandler(t *testing.T) {
	src := &stubSource{bookings: []BookingRange{{PropertyID: 2, CheckIn: "2025-01-03", CheckOut: "2025-01-05"}}}
	router := newTestRouter(NewService(src, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/2/availability/pdf?month=1&year=2025", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "availability-2-2025-01.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestRenderMonthPDFNeedsSnapshot(t *testing.T) {
	if _, err := RenderMonthPDF(nil, 1, ""); err == nil {
		t.Error("expected an error without a snapshot")
	}
}

func TestWatchHandlerReceivesUpdates(t *testing.T) {
	src := &stubSource{}
	svc := NewService(src, nil)
	srv := httptest.NewServer(newTestRouter(svc))
	defer srv.Close()
	defer svc.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/availability/ws?month=2&year=2025"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.watchers.mu.Lock()
		n := len(svc.watchers.subs[periodKey(2, 2025)])
		svc.watchers.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := svc.Refresh(context.Background(), 2, 2025); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "update" || msg.Month != 2 || msg.Year != 2025 {
		t.Errorf("message = %+v", msg)
	}
}
