package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/model"
)

func TestAuthService_Login(t *testing.T) {
	repo := newMockClientRepo()
	id := primitive.NewObjectID()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.clients[id] = &model.Client{
		ID: id, Email: "maria@example.com", Password: string(hashed),
	}
	svc := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "maria@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "created token", resp.Success)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), sub)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockClientRepo()
	id := primitive.NewObjectID()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.clients[id] = &model.Client{
		ID: id, Email: "maria@example.com", Password: string(hashed),
	}
	svc := NewAuthService(repo, "test-secret", time.Hour)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "maria@example.com", Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockClientRepo(), "test-secret", time.Hour)
	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
