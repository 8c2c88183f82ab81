package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("parse date-only: %v", err)
	}
	if want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got, err = ParseDate("2025-03-14T09:30:00Z")
	if err != nil {
		t.Fatalf("parse RFC3339: %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("expected time of day preserved, got %v", got)
	}

	got, err = ParseDate("")
	if err != nil || !got.IsZero() {
		t.Fatalf("expected zero time for empty input, got %v err %v", got, err)
	}

	if _, err := ParseDate("14/03/2025"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=500&offset=20", nil)
	p := ParsePagination(r, 50, 200)
	if p.Limit != 200 || p.Offset != 20 {
		t.Fatalf("expected capped limit 200 offset 20, got %+v", p)
	}

	r = httptest.NewRequest("GET", "/?limit=abc&offset=-5", nil)
	p = ParsePagination(r, 50, 200)
	if p.Limit != 50 || p.Offset != 0 {
		t.Fatalf("expected defaults for malformed values, got %+v", p)
	}
}
