package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

func TestParseTime(t *testing.T) {
	got, err := parseTime("2025-03-10")
	if err != nil || !got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date only: %v %v", got, err)
	}
	got, err = parseTime("2025-03-10T14:30:00+02:00")
	if err != nil || got.UTC().Hour() != 12 {
		t.Fatalf("rfc3339: %v %v", got, err)
	}
	if got, err := parseTime(""); err != nil || !got.IsZero() {
		t.Fatalf("empty should be zero time, got %v %v", got, err)
	}
	if _, err := parseTime("10/03/2025"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestParseIntAndBool(t *testing.T) {
	if parseInt("25", 10) != 25 || parseInt("", 10) != 10 || parseInt("-3", 10) != 10 || parseInt("abc", 7) != 7 {
		t.Fatalf("unexpected parseInt behaviour")
	}
	if v := parseBool("true"); v == nil || !*v {
		t.Fatalf("expected true")
	}
	if parseBool("maybe") != nil || parseBool("") != nil {
		t.Fatalf("invalid bools should be nil")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" open, ,waiting ,")
	if len(got) != 2 || got[0] != "open" || got[1] != "waiting" {
		t.Fatalf("unexpected split %v", got)
	}
	if splitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestPathIDRejectsMalformedIdentifiers(t *testing.T) {
	var (
		gotID  string
		gotErr error
	)
	app := fiber.New()
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		gotID, gotErr = pathID(c, "id", "ticket")
		return nil
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/tickets/not-a-uuid", nil)); err != nil {
		t.Fatalf("request: %v", err)
	}
	de := apperrors.ToDomainError(gotErr)
	if de == nil || de.Code != "NOT_FOUND" || de.HTTPStatus != 404 {
		t.Fatalf("expected NOT_FOUND for malformed id, got %+v", de)
	}
	if de.Details["id"] != "not-a-uuid" {
		t.Fatalf("expected raw id in details, got %v", de.Details)
	}

	const valid = "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"
	if _, err := app.Test(httptest.NewRequest("GET", "/tickets/"+valid, nil)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if gotErr != nil || gotID != valid {
		t.Fatalf("expected %s, got %q %v", valid, gotID, gotErr)
	}
}
