package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quiz-grading-service/internal/domain"
)

// AdminAccount is the single configured administrator.
type AdminAccount struct {
	Username string
	Password string
}

// AuthService issues and verifies bearer tokens.
type AuthService struct {
	users  UserRepository
	admin  AdminAccount
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type claims struct {
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

// Token is a signed login token.
type Token struct {
	AccessToken string                   `json:"accessToken"`
	ExpiresAt   time.Time                `json:"expiresAt"`
	User        domain.AuthenticatedUser `json:"user"`
}

func NewAuthService(users UserRepository, admin AdminAccount, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		admin:  admin,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the admin account first, then student accounts.
func (a *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, domain.ErrInvalidCredentials
	}
	if a.admin.Username != "" && username == a.admin.Username {
		if subtle.ConstantTimeCompare([]byte(password), []byte(a.admin.Password)) != 1 {
			return Token{}, domain.ErrInvalidCredentials
		}
		return a.issue(domain.AuthenticatedUser{ID: "admin", Role: domain.RoleAdmin, Name: username})
	}

	u, err := a.users.GetByStudentID(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Token{}, domain.ErrInvalidCredentials
		}
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Token{}, domain.ErrInvalidCredentials
	}
	return a.issue(domain.AuthenticatedUser{ID: u.ID, Role: domain.RoleStudent, Name: u.StudentID})
}

func (a *AuthService) issue(user domain.AuthenticatedUser) (Token, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(a.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, ExpiresAt: exp, User: user}, nil
}

// Parse verifies a bearer token and returns the user it was issued to.
func (a *AuthService) Parse(raw string) (domain.AuthenticatedUser, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return domain.AuthenticatedUser{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	if c.Subject == "" || (c.Role != domain.RoleAdmin && c.Role != domain.RoleStudent) {
		return domain.AuthenticatedUser{}, domain.ErrInvalidCredentials
	}
	return domain.AuthenticatedUser{ID: c.Subject, Role: c.Role, Name: c.Name}, nil
}
