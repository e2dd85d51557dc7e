package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/store"
	"dukaan/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) (*AuthManager, *memory.Store) {
	t.Helper()
	repo := memory.New()
	return NewAuthManager("test-secret", time.Hour, repo), repo
}

func TestRegisterThenLoginByNameAndEmail(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, domain.RegisterRequest{
		Name:     "Bakaara Shop",
		Email:    "owner@bakaara.so",
		Phone:    "+252615333444",
		Password: "hooyo",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !registered.User.FirstTime {
		t.Fatalf("expected a new account to be first-time")
	}
	if registered.AccessToken == "" {
		t.Fatalf("expected register to sign the owner in")
	}

	for _, login := range []string{"bakaara shop", "OWNER@bakaara.so"} {
		resp, err := auth.Login(ctx, domain.LoginRequest{Login: login, Password: "hooyo"})
		if err != nil {
			t.Fatalf("login %q failed: %v", login, err)
		}
		actor, err := auth.ParseToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		if actor.Store != "Bakaara Shop" || actor.UserID != registered.User.ID {
			t.Fatalf("unexpected actor %+v", actor)
		}
	}
}

func TestLoginRejectsWrongPasswordAndUnknownUser(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()
	if _, err := auth.Register(ctx, domain.RegisterRequest{Name: "Hodan Market", Password: "secret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := auth.Login(ctx, domain.LoginRequest{Login: "Hodan Market", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := auth.Login(ctx, domain.LoginRequest{Login: "Nobody", Password: "secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown login, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	cases := []domain.RegisterRequest{
		{Name: "  ", Password: "secret"},
		{Name: "Shop", Password: "abc"},
		{Name: "Shop", Email: "not-an-email", Password: "secret"},
	}
	for _, req := range cases {
		if _, err := auth.Register(ctx, req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", req, err)
		}
	}

	if _, err := auth.Register(ctx, domain.RegisterRequest{Name: "Shop", Password: "secret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := auth.Register(ctx, domain.RegisterRequest{Name: "SHOP", Password: "secret"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate store name, got %v", err)
	}
}

func TestParseTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()
	resp, err := auth.Register(ctx, domain.RegisterRequest{Name: "Shop", Password: "secret"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	other := NewAuthManager("another-secret", time.Hour, memory.New())
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestMarkWelcomeSeen(t *testing.T) {
	auth, repo := newTestAuth(t)
	ctx := context.Background()
	resp, err := auth.Register(ctx, domain.RegisterRequest{Name: "Shop", Password: "secret"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	actor := domain.Actor{UserID: resp.User.ID, Store: resp.User.Name}

	user, err := auth.MarkWelcomeSeen(ctx, actor)
	if err != nil {
		t.Fatalf("mark welcome seen: %v", err)
	}
	if user.FirstTime {
		t.Fatalf("expected first_time to be cleared")
	}
	stored, err := repo.GetUser(ctx, resp.User.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.FirstTime {
		t.Fatalf("expected stored user to be updated")
	}

	me, err := auth.Me(ctx, actor)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Name != "Shop" {
		t.Fatalf("unexpected profile %+v", me)
	}
}
