package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeDenylist map[string]bool

func (f fakeDenylist) Revoke(_ context.Context, id string, _ time.Time) error {
	f[id] = true
	return nil
}

func (f fakeDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	return f[id], nil
}

func testApp(mw *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	handlers := append([]fiber.Handler{mw.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/", handlers...)
	return app
}

func TestTokenRoundTripCarriesIdentifiers(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	issued, err := tm.GenerateToken(&domain.User{ID: "u-1", Role: domain.RoleAgent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := tm.ParseToken(issued.Value)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if claims.ID != issued.ID || claims.UserID != "u-1" || claims.Role != domain.RoleAgent {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := NewTokenManager("other", 5).ParseToken(issued.Value); err == nil {
		t.Fatalf("expected signature failure with different secret")
	}
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	if _, err := HashPassword("short", 4); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
	hash, err := HashPassword("long-enough", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ComparePassword(hash, "long-enough") != nil || ComparePassword(hash, "wrong-one") == nil {
		t.Fatalf("password comparison mismatch")
	}
}

func TestMiddlewareRejectsRevokedTokens(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: "u-1", Role: domain.RoleCustomer, Active: true}
	denylist := fakeDenylist{}
	app := testApp(NewAuthMiddleware(tm, fakeUsers{"u-1": user}, denylist))

	issued, _ := tm.GenerateToken(user)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Value)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	_ = denylist.Revoke(context.Background(), issued.ID, issued.ExpiresAt)
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Value)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestRoleGuards(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := fakeUsers{
		"c": {ID: "c", Role: domain.RoleCustomer, Active: true},
		"a": {ID: "a", Role: domain.RoleAgent, Active: true},
	}
	mw := NewAuthMiddleware(tm, users, nil)

	cases := []struct {
		user  string
		guard fiber.Handler
		want  int
	}{
		{user: "c", guard: RequireStaff(), want: fiber.StatusForbidden},
		{user: "a", guard: RequireStaff(), want: fiber.StatusNoContent},
		{user: "a", guard: RequireAdmin(), want: fiber.StatusForbidden},
	}
	for _, tc := range cases {
		issued, _ := tm.GenerateToken(users[tc.user])
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Value)
		resp, err := testApp(mw, tc.guard).Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != tc.want {
			t.Fatalf("user %s: expected %d, got %d", tc.user, tc.want, resp.StatusCode)
		}
	}
}

func TestMiddlewareRequiresHeader(t *testing.T) {
	app := testApp(NewAuthMiddleware(NewTokenManager("s", 5), fakeUsers{}, nil))
	resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
