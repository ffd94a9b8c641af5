package auth

import (
	"testing"
)

func TestDeviceTokenRoundTrip(t *testing.T) {
	deviceID := "test-device-123"

	token, err := GenerateDeviceToken(deviceID)
	if err != nil {
		t.Fatalf("GenerateDeviceToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.DeviceID != deviceID {
		t.Errorf("Expected device ID %s, got %s", deviceID, claims.DeviceID)
	}
	if claims.Role != "device" {
		t.Errorf("Expected role 'device', got '%s'", claims.Role)
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	userID := "test-user-456"

	token, err := GenerateUserToken(userID)
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, claims.UserID)
	}
	if claims.Role != "user" {
		t.Errorf("Expected role 'user', got '%s'", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateDeviceToken("device-1")
	if err != nil {
		t.Fatalf("GenerateDeviceToken failed: %v", err)
	}

	SetSecret("a-different-secret")
	defer SetSecret("development-secret")

	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected validation to fail after secret rotation")
	}
}
