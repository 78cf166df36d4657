package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/pkg"
)

const maxUsernameLength = 32

type tokenIssuer interface {
	GenerateToken(user entity.User) (string, error)
}

type UserUseCase interface {
	CreateGuest(ctx context.Context, username, avatar string) (*entity.User, string, error)
}

type userUseCase struct {
	repo   userRepo
	issuer tokenIssuer
}

func NewUserUseCase(repo userRepo, issuer tokenIssuer) UserUseCase {
	return &userUseCase{
		repo:   repo,
		issuer: issuer,
	}
}

// CreateGuest stores a new guest identity and issues its connection token.
func (that *userUseCase) CreateGuest(ctx context.Context, username, avatar string) (*entity.User, string, error) {
	user := &entity.User{
		ID:       pkg.GenerateID(),
		Username: guestName(username),
		Avatar:   avatar,
	}

	if err := that.repo.CreateOrUpdate(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to save user into storage: %w", err)
	}

	token, err := that.issuer.GenerateToken(*user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

func guestName(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "guest"
	}

	if runes := []rune(username); len(runes) > maxUsernameLength {
		return string(runes[:maxUsernameLength])
	}

	return username
}
