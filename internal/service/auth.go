package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/auth"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

// usernamePattern follows GitHub's login rules so both account kinds share
// one namespace.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{2,38}$`)

// Credentials is the body of the register and login endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthResult is a user together with a freshly issued token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// AuthService registers users and issues tokens for them.
type AuthService struct {
	users          repository.UserRepository
	tokens         *auth.TokenService
	passwords      *auth.PasswordService
	defaultCredits int
	logger         *slog.Logger
}

// NewAuthService wires the service. New accounts start with defaultCredits.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	defaultCredits int,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		tokens:         tokens,
		passwords:      passwords,
		defaultCredits: defaultCredits,
		logger:         logger,
	}
}

// Register creates a local account. A taken username is apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, c Credentials) (*AuthResult, error) {
	c.Username = strings.TrimSpace(c.Username)
	if err := validateStruct(c); err != nil {
		return nil, err
	}
	if !usernamePattern.MatchString(c.Username) {
		return nil, apperror.ValidationFailed("username",
			"username must be 3-39 letters, digits, '-' or '_' and start with a letter or digit")
	}

	hash, err := s.passwords.Hash(c.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{ID: c.Username, Credits: s.defaultCredits, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", c.Username, err)
	}

	s.logger.Info("user registered", slog.String("user", user.ID))
	return s.issue(user)
}

// Login checks a username and password. Unknown users and wrong passwords
// get the same apperror.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, c Credentials) (*AuthResult, error) {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return nil, apperror.ValidationFailed("username", "username and password are required")
	}

	user, err := s.users.GetUserByID(ctx, c.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", c.Username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, c.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user)
}

// LoginOrRegisterGitHub links a GitHub account, creating it with the GitHub
// login as username on first sign-in.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		ID:        gh.Login,
		Credits:   s.defaultCredits,
		GitHubID:  gh.ID,
		Email:     gh.Email,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", gh.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("user", user.ID),
		slog.Int64("githubID", gh.ID),
	)
	return s.issue(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
