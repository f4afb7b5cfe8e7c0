package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/tokenstore"
)

// Messages returned with 401 responses
const (
	MsgInvalidCredentials = "E-mail ou senha inválidos."
	MsgInvalidToken       = "Token inválido ou expirado."
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresAt string        `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// Claims is the JWT payload. Subject carries the user id and ID the token
// id used for revocation.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal resolves the claims to the actor passed to the policy evaluator.
func (c *Claims) Principal() policy.Principal {
	return policy.Principal{ID: c.Subject, Role: model.ParseRole(c.Role)}
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context, claims *Claims) error
	ParseToken(ctx context.Context, token string) (*Claims, error)
	Me(ctx context.Context, p policy.Principal) (*UserResponse, error)
}

type authService struct {
	users    repository.UserRepository
	denylist tokenstore.Denylist
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, denylist tokenstore.Denylist, secret []byte, ttl time.Duration) AuthService {
	return &authService{
		users:    users,
		denylist: denylist,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return nil, apperror.Unauthenticated(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthenticated(MsgInvalidCredentials)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Role: user.Role().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: formatTime(expiresAt),
		User:      mapUser(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return apperror.Unauthenticated(MsgInvalidToken)
	}
	expiresAt := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.denylist.Revoke(ctx, claims.ID, expiresAt)
}

// ParseToken verifies signature, expiry and revocation.
func (s *authService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, apperror.Unauthenticated(MsgInvalidToken)
	}

	if claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperror.Unauthenticated(MsgInvalidToken)
		}
	}
	return claims, nil
}

func (s *authService) Me(ctx context.Context, p policy.Principal) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return mapUser(user), nil
}
