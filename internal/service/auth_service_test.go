package service

import (
	"context"
	"testing"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

type fakeDenylist struct {
	revoked map[string]time.Time
}

func (d *fakeDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if d.revoked == nil {
		d.revoked = map[string]time.Time{}
	}
	d.revoked[tokenID] = expiresAt
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, nil
}

func newAuthService(h *harness, denylist auth.TokenDenylist) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}}
	return NewAuthService(cfg, AuthDependencies{
		UserRepo: h.users,
		Joiner:   h.orgSvc,
		Denylist: denylist,
	})
}

func TestRegisterJoinsOrganizationsByDomain(t *testing.T) {
	h := newHarness()
	h.addOrg("acme").AllowedDomains = []string{"acme.com"}
	svc := newAuthService(h, nil)

	session, err := svc.Register(context.Background(), "Jo", " Jo@Acme.com ", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.Role != domain.RoleCustomer || session.User.Email != "jo@acme.com" {
		t.Fatalf("unexpected user %+v", session.User)
	}
	if session.User.PasswordHash == "correct-horse" {
		t.Fatalf("password must be hashed")
	}
	if len(session.Organizations) != 1 || session.Organizations[0].ID != "acme" {
		t.Fatalf("expected auto join to acme, got %+v", session.Organizations)
	}
	claims, err := svc.TokenManager().ParseToken(session.Token.Value)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != session.User.ID || claims.Role != domain.RoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.Register(context.Background(), "Jo again", "jo@acme.com", "correct-horse"); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness()
	svc := newAuthService(h, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "a@b.com", "long-enough"); !apperrors.IsCode(err, "MISSING_REQUIRED_FIELD") {
		t.Fatalf("name is required, got %v", err)
	}
	if _, err := svc.Register(ctx, "A", "not-an-email", "long-enough"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("bad email should fail, got %v", err)
	}
	if _, err := svc.Register(ctx, "A", "a@b.com", "short"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("short password should fail, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	h := newHarness()
	svc := newAuthService(h, nil)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Jo", "jo@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "JO@example.com", "correct-horse"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "jo@example.com", "wrong-horse"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("wrong password should be unauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "correct-horse"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("unknown email should be unauthorized, got %v", err)
	}

	h.users.users[session.User.ID].Active = false
	if _, err := svc.Login(ctx, "jo@example.com", "correct-horse"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("inactive account should be unauthorized, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness()
	denylist := &fakeDenylist{}
	svc := newAuthService(h, denylist)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Jo", "jo@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := svc.TokenManager().ParseToken(session.Token.Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	revoked, _ := denylist.IsRevoked(ctx, session.Token.ID)
	if !revoked {
		t.Fatalf("token should be revoked")
	}
	if !denylist.revoked[session.Token.ID].Equal(claims.ExpiresAt.Time) {
		t.Fatalf("revocation should last until token expiry")
	}
	if err := svc.Logout(ctx, nil); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("logout without claims should be unauthorized, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness()
	svc := newAuthService(h, nil)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Jo", "jo@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, session.User, "wrong", "battery-staple"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("wrong current password should fail, got %v", err)
	}
	if err := svc.ChangePassword(ctx, session.User, "correct-horse", "short"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("weak new password should fail, got %v", err)
	}
	if err := svc.ChangePassword(ctx, session.User, "correct-horse", "battery-staple"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := svc.Login(ctx, "jo@example.com", "battery-staple"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
