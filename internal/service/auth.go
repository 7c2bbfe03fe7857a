package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	clientRepo repository.ClientRepository
	jwtSecret  []byte
	jwtExpiry  time.Duration
}

func NewAuthService(clientRepo repository.ClientRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{clientRepo: clientRepo, jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry}
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	client, err := s.clientRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"sub": client.ID.Hex(),
		"exp": expiration.Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &dto.TokenResponse{
		Success:     "created token",
		AccessToken: token,
		TokenType:   "bearer",
		Expiration:  expiration.Format(time.RFC3339),
	}, nil
}
