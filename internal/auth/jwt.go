package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// The two failure kinds callers must tell apart: only an expired (but
// otherwise sound) refresh token is eligible for silent renewal.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL time.Duration, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair signs an access/refresh token pair from the same identity
// claims. The signature is the sole integrity guarantee; claims are
// tamper-evident, not encrypted.
func (m *Manager) IssuePair(userID, email, role string) (TokenPair, error) {
	access, err := m.generate(userID, email, role, "access", m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := m.generate(userID, email, role, "refresh", m.refreshTTL)

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) generate(userID, email, role, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typ,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// ParseAndValidate verifies signature and expiry. On ErrTokenExpired the
// claims are still returned (the signature checked out), so the refresh
// exchange can recover the identity; on ErrTokenInvalid claims are nil.
func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if token != nil {
				if claims, ok := token.Claims.(*Claims); ok {
					return claims, ErrTokenExpired
				}
			}
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "access" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefreshToken keeps the expired/invalid distinction: an expired
// refresh token comes back with its claims and ErrTokenExpired so the
// handler can re-check the account and decide whether to renew.
func (m *Manager) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)

	if err != nil && !errors.Is(err, ErrTokenExpired) {
		return nil, err
	}

	if claims == nil || claims.TokenType != "refresh" || claims.JTI == "" {
		return nil, ErrTokenInvalid
	}

	return claims, err
}
