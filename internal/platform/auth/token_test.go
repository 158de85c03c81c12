package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, "clinicdesk", time.Hour)
	owner := uuid.New()

	tok, err := tm.Issue(owner, "dr@example.com")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if tok.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %q", tok.TokenType)
	}

	claims, err := tm.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	got, _ := claims.OwnerID()
	if got != owner {
		t.Errorf("expected owner %s, got %s", owner, got)
	}
	if claims.Email != "dr@example.com" {
		t.Errorf("expected email claim, got %q", claims.Email)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, "clinicdesk", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }

	tok, err := tm.Issue(uuid.New(), "a@b.c")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tm.now = time.Now
	if _, err := tm.Verify(tok.AccessToken); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tok, _ := NewTokenManager("other-secret", "clinicdesk", time.Hour).Issue(uuid.New(), "a@b.c")
	if _, err := NewTokenManager(testSecret, "clinicdesk", time.Hour).Verify(tok.AccessToken); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	tok, _ := NewTokenManager(testSecret, "someone-else", time.Hour).Issue(uuid.New(), "a@b.c")
	if _, err := NewTokenManager(testSecret, "clinicdesk", time.Hour).Verify(tok.AccessToken); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenManager_RejectsNonUUIDSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "clinicdesk",
		Subject:   "dev-user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenManager(testSecret, "clinicdesk", time.Hour).Verify(signed); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "clinicdesk",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenManager(testSecret, "clinicdesk", time.Hour).Verify(signed); err == nil {
		t.Error("expected unsigned token to be rejected")
	}
}
