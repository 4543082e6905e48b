package security

import (
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestTokenRoundTripCarriesRole(t *testing.T) {
	token, err := GenerateToken("s3cret", 42, "alice", "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("s3cret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("s3cret", 1, "bob", "user", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, errParse := ParseToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}

	expired, err := GenerateToken("s3cret", 1, "bob", "user", -time.Minute)
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	if _, errParse := ParseToken("s3cret", expired); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestHashPassword(t *testing.T) {
	restore := SetHashCostForTesting(4)
	defer restore()

	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatalf("expected mismatch")
	}
}

func TestTOTPEnrollmentValidates(t *testing.T) {
	enrollment, err := NewTOTPEnrollment("alice")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if !ValidateTOTP(code, enrollment.Secret) {
		t.Fatalf("expected generated code to validate")
	}
	if ValidateTOTP("", enrollment.Secret) {
		t.Fatalf("expected empty code to fail")
	}
}
