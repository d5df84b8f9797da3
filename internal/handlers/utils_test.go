package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractIDFromPath(t *testing.T) {
	id, err := extractIDFromPath("/api/bookings/m-100", "/api/bookings/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "m-100" {
		t.Fatalf("unexpected id: %s", id)
	}

	if _, err := extractIDFromPath("/wrong/path", "/api/bookings/"); err == nil {
		t.Fatalf("expected error for invalid path")
	}

	if _, err := extractIDFromPath("/api/bookings/", "/api/bookings/"); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONResponse(rr, http.StatusOK, map[string]string{"ok": "true"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	if body := rr.Body.String(); body == "" {
		t.Fatalf("empty body")
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/bookings?limit=25&bad=abc", nil)

	if v := parseQueryInt(req, "limit", 50); v != 25 {
		t.Fatalf("expected 25, got %d", v)
	}
	if v := parseQueryInt(req, "missing", 50); v != 50 {
		t.Fatalf("expected default 50, got %d", v)
	}
	if v := parseQueryInt(req, "bad", 7); v != 7 {
		t.Fatalf("expected default 7 for unparsable value, got %d", v)
	}
}
