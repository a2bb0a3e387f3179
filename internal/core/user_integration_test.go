package core_test

import (
	"context"
	"testing"

	"storepos/internal/core"
)

func TestUser_RegisterAndAuthenticate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	users := core.NewUserService(pool)

	created, err := users.Register(ctx, core.RegisterUserInput{
		Username: "cashier1",
		Password: "s3cret-pw",
		Email:    "cashier1@shop.example",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created.Role != "user" {
		t.Errorf("expected default role user, got %q", created.Role)
	}
	if created.PasswordHash == "s3cret-pw" {
		t.Error("password stored in plaintext")
	}

	authed, err := users.Authenticate(ctx, "cashier1", "s3cret-pw")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authed.ID != created.ID {
		t.Errorf("expected user %d, got %d", created.ID, authed.ID)
	}

	if _, err := users.Authenticate(ctx, "cashier1", "wrong"); core.KindOf(err) != core.KindUnauthorized {
		t.Errorf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody", "s3cret-pw"); core.KindOf(err) != core.KindUnauthorized {
		t.Errorf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestUser_DuplicateUsernameAndEmail(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	users := core.NewUserService(pool)

	_, err := users.Register(ctx, core.RegisterUserInput{
		Username: "cashier1",
		Password: "pw-one",
		Email:    "cashier1@shop.example",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = users.Register(ctx, core.RegisterUserInput{
		Username: "cashier1",
		Password: "pw-two",
		Email:    "other@shop.example",
	})
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict for duplicate username, got %v", err)
	}

	_, err = users.Register(ctx, core.RegisterUserInput{
		Username: "cashier2",
		Password: "pw-two",
		Email:    "cashier1@shop.example",
	})
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}
}

func TestUser_UpdateRehashesPassword(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	users := core.NewUserService(pool)

	created, err := users.Register(ctx, core.RegisterUserInput{
		Username: "manager",
		Password: "old-pw",
		Email:    "manager@shop.example",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	newPassword := "new-pw"
	if _, err := users.UpdateUser(ctx, created.ID, core.UpdateUserInput{
		Password: &newPassword,
	}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	if _, err := users.Authenticate(ctx, "manager", "old-pw"); core.KindOf(err) != core.KindUnauthorized {
		t.Errorf("expected old password rejected, got %v", err)
	}
	authed, err := users.Authenticate(ctx, "manager", "new-pw")
	if err != nil {
		t.Fatalf("Authenticate with new password failed: %v", err)
	}
	if authed.Role != "admin" {
		t.Errorf("expected role untouched, got %q", authed.Role)
	}
}
