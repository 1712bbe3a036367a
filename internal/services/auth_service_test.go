package services

import (
	"context"
	"errors"
	"testing"

	"bahikhata/internal/core"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newTestStorage(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, "asha", "Asha@Example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Error("expected generated user ID")
	}
	if user.Email != "asha@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Password == "s3cret-pass" {
		t.Error("password stored in plain text")
	}

	got, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged in as %q, want %q", got.ID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newTestStorage(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "asha", "asha@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, "other", "asha@example.com", "different-pass")
	if !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(newTestStorage(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "asha", "asha@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "asha@example.com", "wrong-pass"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	// Unknown email must be indistinguishable from a wrong password.
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newTestStorage(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "asha@example.com", "s3cret-pass"); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := svc.Register(ctx, "asha", "not-an-email", "s3cret-pass"); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, err := svc.Register(ctx, "asha", "asha@example.com", ""); err == nil {
		t.Error("expected error for empty password")
	}
}
