package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/auth"
)

const testDefaultCredits = 5

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	return NewAuthService(repo, ts, ps, testDefaultCredits, testLogger()), ts
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), Credentials{Username: " alice ", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.User.ID != "alice" {
		t.Errorf("User.ID = %q, want %q", result.User.ID, "alice")
	}
	if result.User.Credits != testDefaultCredits {
		t.Errorf("Credits = %d, want %d", result.User.Credits, testDefaultCredits)
	}
	if result.User.PasswordHash == "password123" || result.User.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	subject, err := tokens.Validate(result.Token)
	if err != nil || subject != "alice" {
		t.Errorf("token subject = %q, %v; want alice", subject, err)
	}
}

func TestRegister_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
	}{
		{"short password", Credentials{Username: "alice", Password: "short"}, apperror.ErrValidation},
		{"long password", Credentials{Username: "alice", Password: strings.Repeat("x", 73)}, apperror.ErrValidation},
		{"missing username", Credentials{Password: "password123"}, apperror.ErrValidation},
		{"bad characters", Credentials{Username: "al ice", Password: "password123"}, apperror.ErrValidation},
		{"too short username", Credentials{Username: "al", Password: "password123"}, apperror.ErrValidation},
		{"leading dash", Credentials{Username: "-alice", Password: "password123"}, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t, newFakeUserRepo())
			_, err := svc.Register(context.Background(), tt.creds)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	creds := Credentials{Username: "alice", Password: "password123"}

	if _, err := svc.Register(context.Background(), creds); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := svc.Register(context.Background(), creds); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(ctx, Credentials{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned empty token")
	}

	for _, c := range []Credentials{
		{Username: "alice", Password: "wrong-password"},
		{Username: "nobody", Password: "password123"},
	} {
		if _, err := svc.Login(ctx, c); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login(%s) error = %v, want ErrUnauthorized", c.Username, err)
		}
	}

	if _, err := svc.Login(ctx, Credentials{Username: "alice"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() without password error = %v, want ErrValidation", err)
	}
}

func TestLogin_GitHubOnlyAccountHasNoPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 42, Login: "octocat"}); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if _, err := svc.Login(ctx, Credentials{Username: "octocat", Password: "password123"}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "octocat", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("first login error = %v", err)
	}
	if first.User.ID != "octocat" || first.User.Credits != testDefaultCredits {
		t.Errorf("new GitHub user = %+v", first.User)
	}

	if _, err := repo.DebitCredit(ctx, "octocat"); err != nil {
		t.Fatalf("DebitCredit() error = %v", err)
	}

	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "octocat", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("second login error = %v", err)
	}
	if second.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want refreshed", second.User.Email)
	}
	if second.User.Credits != testDefaultCredits-1 {
		t.Errorf("Credits = %d, want balance kept at %d", second.User.Credits, testDefaultCredits-1)
	}
}

func TestLoginOrRegisterGitHub_Errors(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Error("nil GitHub user should fail")
	}

	repo.upsertErr = errors.New("database is on fire")
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "user"}); err == nil {
		t.Error("repository errors should propagate")
	}
}

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), Credentials{Username: "alice", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.ID != "alice" {
		t.Errorf("ID = %q, want alice", user.ID)
	}

	if _, err := svc.GetUserByID(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(nobody) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrValidation", err)
	}
}
