package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := newTestManager()

	pair, err := m.IssuePair("user-1", "eng@example.com", "ENGINEER")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	claims, err := m.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "eng@example.com" || claims.Role != "ENGINEER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	refreshClaims, err := m.VerifyRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefreshToken failed: %v", err)
	}

	if refreshClaims.Role != "ENGINEER" {
		t.Fatalf("refresh claims lost the role: %+v", refreshClaims)
	}
}

func TestTokenTypeIsEnforced(t *testing.T) {
	m := newTestManager()

	pair, err := m.IssuePair("user-1", "eng@example.com", "ENGINEER")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	// an access token presented on the refresh path is invalid, not expired
	if _, err := m.VerifyRefreshToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	if _, err := m.VerifyAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestExpiredTokenIsDistinguishedFromInvalid(t *testing.T) {
	// negative TTLs produce already-expired tokens
	expired := NewManager("test-secret-key", -time.Minute, -time.Minute)

	pair, err := expired.IssuePair("user-1", "eng@example.com", "VIEWER")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	_, err = expired.VerifyAccessToken(pair.AccessToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// an expired refresh token still yields its claims for renewal
	claims, err := expired.VerifyRefreshToken(pair.RefreshToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if claims == nil || claims.UserID != "user-1" {
		t.Fatalf("expected claims to survive expiry, got %+v", claims)
	}
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	m := newTestManager()

	pair, err := m.IssuePair("user-1", "eng@example.com", "ADMIN")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	parts := strings.Split(pair.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", pair.AccessToken)
	}

	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	if _, err := m.VerifyAccessToken(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered signature, got %v", err)
	}

	if _, err := m.VerifyAccessToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestWrongSecretIsInvalid(t *testing.T) {
	m := newTestManager()
	other := NewManager("a-different-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := other.IssuePair("user-1", "eng@example.com", "MANAGER")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if _, err := m.VerifyAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid across secrets, got %v", err)
	}
}
