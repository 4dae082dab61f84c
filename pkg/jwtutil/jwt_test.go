package jwtutil

import (
	"testing"

	"schoolhub/pkg/config"
)

func TestTokenRoundTrip(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("user@example.com", 7)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email = %q, want user@example.com", claims.Email)
	}
	if claims.UserID != 7 {
		t.Errorf("user id = %d, want 7", claims.UserID)
	}
	if claims.Role != "" {
		t.Errorf("role = %q, want empty before activation", claims.Role)
	}
	if claims.SchoolID != nil {
		t.Errorf("school id = %v, want nil before activation", *claims.SchoolID)
	}
}

func TestTokenWithRoleContext(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	schoolID := uint(3)
	token, err := GenerateTokenWithRole("teacher@example.com", 9, "teacher", &schoolID, "Greenfield International")
	if err != nil {
		t.Fatalf("GenerateTokenWithRole: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != "teacher" {
		t.Errorf("role = %q, want teacher", claims.Role)
	}
	if claims.SchoolID == nil || *claims.SchoolID != 3 {
		t.Errorf("school id = %v, want 3", claims.SchoolID)
	}
	if claims.SchoolName != "Greenfield International" {
		t.Errorf("school name = %q", claims.SchoolName)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("user@example.com", 7)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token + "x"); err == nil {
		t.Error("expected error for tampered token")
	}
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("expected error for garbage token")
	}

	// A token signed under a different key must not validate.
	Initialize(&config.JWTConfig{SigningKey: "other-key", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected error for token signed with old key")
	}
}
