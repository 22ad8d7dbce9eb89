package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

const issuer = "wellnest"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrEmptyUserID  = errors.New("user id is empty")
)

type Servicer interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
}

// Service выпускает и проверяет HS256 токены сессии
type Service struct {
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		log:    log.With(slog.String("component", "session")),
		now:    time.Now,
	}
}

func (s *Service) Create(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

func (s *Service) Validate(_ context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
