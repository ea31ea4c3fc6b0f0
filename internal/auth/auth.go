package auth

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/travelgoapp/travelgo/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type UserStore interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, user domain.User) error
}

type Service struct {
	users  UserStore
	secret []byte
}

func NewService(users UserStore, secret string) *Service {
	return &Service{users: users, secret: []byte(secret)}
}

// Register creates an account. ErrConflict when the email is already taken.
func (s *Service) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.users.Get(ctx, email); err == nil {
		return domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Put(ctx, domain.User{Email: email, PasswordHash: string(hash)})
}

// Login checks the credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrNotLoggedIn
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify parses a session token and returns the account email.
func (s *Service) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrNotLoggedIn
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrNotLoggedIn
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrNotLoggedIn
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", domain.ErrNotLoggedIn
	}
	return email, nil
}
