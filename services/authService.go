package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"cleanstreet-be/models"
	"cleanstreet-be/repository"
	"cleanstreet-be/utils"
)

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=50"`
	Username string      `json:"username" validate:"max=30"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone" validate:"max=20"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users            repository.UserRepository
	tokens           *utils.JWTManager
	validate         *validator.Validate
	logger           *slog.Logger
	allowAdminSignup bool
}

func NewAuthService(users repository.UserRepository, tokens *utils.JWTManager, allowAdminSignup bool, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		validate:         newValidator(),
		logger:           logger.With("service", "auth"),
		allowAdminSignup: allowAdminSignup,
	}
}

// checkPassword requires an upper and lower case letter, a digit and a symbol.
func checkPassword(pw string) error {
	var upper, lower, digit, symbol bool
	for _, c := range pw {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			symbol = true
		}
	}
	var missing []string
	if !upper {
		missing = append(missing, "uppercase letter")
	}
	if !lower {
		missing = append(missing, "lowercase letter")
	}
	if !digit {
		missing = append(missing, "number")
	}
	if !symbol {
		missing = append(missing, "symbol")
	}
	if len(missing) > 0 {
		return models.NewValidationError("password", "must contain: "+strings.Join(missing, ", "))
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.IsValid() {
		return nil, models.NewValidationError("role", "invalid role")
	}
	if role == models.RoleAdmin && !s.allowAdminSignup {
		return nil, models.NewForbiddenError("admin accounts cannot be self-registered")
	}

	ts := now()
	user := &models.User{
		Name:      in.Name,
		Username:  in.Username,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      role,
		Password:  in.Password,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: user with this email already exists", models.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.Hex()), slog.String("role", string(role)))
	return &AuthResult{Token: token, User: user}, nil
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewUnauthenticatedError("invalid credentials")
		}
		return nil, err
	}
	if !user.ComparePassword(in.Password) {
		return nil, models.NewUnauthenticatedError("invalid credentials")
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Profile returns the account behind r.
func (s *AuthService) Profile(ctx context.Context, r models.Requester) (*models.User, error) {
	if err := requireAuth(r, "view your profile"); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, r.ID)
}
