package auth_test

import (
	"testing"

	"green-roots/internal/auth"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := auth.CheckPassword("correct horse battery", hash); err != nil {
		t.Errorf("CheckPassword() with the right password failed: %v", err)
	}

	if err := auth.CheckPassword("wrong password", hash); err == nil {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := auth.ValidatePassword("short"); err == nil {
		t.Error("expected rejection for a short password")
	}
	if err := auth.ValidatePassword("long enough password"); err != nil {
		t.Errorf("unexpected rejection: %v", err)
	}
}
