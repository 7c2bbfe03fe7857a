package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/model"
	"github.com/caravela/go-store-api/internal/repository"
)

var ErrClientNotFound = errors.New("client not found")

type ClientService struct {
	clientRepo repository.ClientRepository
}

func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (*model.Client, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	client := &model.Client{
		Name:     req.Name,
		Email:    req.Email,
		CPF:      req.CPF,
		Phone:    req.Phone,
		Password: string(hashed),
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.Password = ""
	return client, nil
}

func (s *ClientService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	return s.clientRepo.List(ctx)
}

// Snapshot resolves the brief projection embedded into orders: identity
// fields only, password and history stripped.
func (s *ClientService) Snapshot(ctx context.Context, id primitive.ObjectID) (*model.ClientSnapshot, error) {
	snap, err := s.clientRepo.GetBrief(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client brief: %w", err)
	}
	if snap == nil {
		return nil, ErrClientNotFound
	}
	return snap, nil
}

func (s *ClientService) Update(ctx context.Context, id primitive.ObjectID, req dto.UpdateClientRequest) (int64, error) {
	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.CPF != nil {
		fields["cpf"] = *req.CPF
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.IsClient != nil {
		fields["is_client"] = *req.IsClient
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return 0, fmt.Errorf("hash password: %w", err)
		}
		fields["password"] = string(hashed)
	}

	modified, err := s.clientRepo.Update(ctx, id, fields)
	if err != nil {
		return 0, fmt.Errorf("update client: %w", err)
	}
	if modified == 0 {
		return 0, ErrClientNotFound
	}
	return modified, nil
}

func (s *ClientService) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	deleted, err := s.clientRepo.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete client: %w", err)
	}
	if deleted == 0 {
		return 0, ErrClientNotFound
	}
	return deleted, nil
}

// AppendOrder records an order reference on the owning client.
func (s *ClientService) AppendOrder(ctx context.Context, clientID, orderID primitive.ObjectID) (int64, error) {
	modified, err := s.clientRepo.PushOrder(ctx, clientID, orderID)
	if err != nil {
		return 0, fmt.Errorf("append order to client: %w", err)
	}
	return modified, nil
}

func (s *ClientService) AttachPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	modified, err := s.clientRepo.PushPhoto(ctx, id, url)
	if err != nil {
		return 0, fmt.Errorf("attach photo: %w", err)
	}
	if modified == 0 {
		return 0, ErrClientNotFound
	}
	return modified, nil
}

func (s *ClientService) DetachPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	modified, err := s.clientRepo.PullPhoto(ctx, id, url)
	if err != nil {
		return 0, fmt.Errorf("detach photo: %w", err)
	}
	return modified, nil
}
