package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

const tokenIssuer = "gamerooms"

type AuthService interface {
	GenerateToken(user entity.User) (string, error)
	ResolveUser(token string) (*entity.User, error)
}

type claims struct {
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

type authServiceImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(secretKey string, tokenTTL time.Duration) AuthService {
	return &authServiceImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (that *authServiceImpl) GenerateToken(user entity.User) (string, error) {
	now := that.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		Avatar:   user.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(that.tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ResolveUser maps a connection credential to the user it was issued for.
func (that *authServiceImpl) ResolveUser(token string) (*entity.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", apperror.ErrUnauthorized)
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return that.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(that.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", apperror.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || tokenClaims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", apperror.ErrUnauthorized)
	}

	return &entity.User{
		ID:       tokenClaims.Subject,
		Username: tokenClaims.Username,
		Avatar:   tokenClaims.Avatar,
	}, nil
}
