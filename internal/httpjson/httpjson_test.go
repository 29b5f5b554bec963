package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteCodedError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteCodedError(rr, http.StatusConflict, "conflict", "already tracked")

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: want %d, got %d", http.StatusConflict, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type: %q", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"error":"already tracked","code":"conflict"}` {
		t.Fatalf("body: %s", got)
	}
}
