package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/model"
)

type mockClientRepo struct {
	clients      map[primitive.ObjectID]*model.Client
	pushOrderErr error
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[primitive.ObjectID]*model.Client)}
}

func (m *mockClientRepo) Create(_ context.Context, c *model.Client) error {
	c.ID = primitive.NewObjectID()
	c.IsClient = true
	c.CreatedAt = time.Now()
	c.LastModified = c.CreatedAt
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *mockClientRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Password = ""
	return &cp, nil
}

func (m *mockClientRepo) GetByEmail(_ context.Context, email string) (*model.Client, error) {
	for _, c := range m.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockClientRepo) GetBrief(_ context.Context, id primitive.ObjectID) (*model.ClientSnapshot, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &model.ClientSnapshot{
		ID: c.ID, Name: c.Name, Email: c.Email, CPF: c.CPF, Phone: c.Phone,
	}, nil
}

func (m *mockClientRepo) List(_ context.Context) ([]model.Client, error) {
	var all []model.Client
	for _, c := range m.clients {
		cp := *c
		cp.Password = ""
		all = append(all, cp)
	}
	return all, nil
}

func (m *mockClientRepo) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	c, ok := m.clients[id]
	if !ok {
		return 0, nil
	}
	if v, ok := fields["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := fields["email"]; ok {
		c.Email = v.(string)
	}
	if v, ok := fields["cpf"]; ok {
		c.CPF = v.(string)
	}
	if v, ok := fields["phone"]; ok {
		c.Phone = v.(string)
	}
	if v, ok := fields["password"]; ok {
		c.Password = v.(string)
	}
	if v, ok := fields["is_client"]; ok {
		c.IsClient = v.(bool)
	}
	c.LastModified = time.Now()
	return 1, nil
}

func (m *mockClientRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := m.clients[id]; !ok {
		return 0, nil
	}
	delete(m.clients, id)
	return 1, nil
}

func (m *mockClientRepo) PushOrder(_ context.Context, clientID, orderID primitive.ObjectID) (int64, error) {
	if m.pushOrderErr != nil {
		return 0, m.pushOrderErr
	}
	c, ok := m.clients[clientID]
	if !ok {
		return 0, nil
	}
	c.Orders = append(c.Orders, orderID)
	return 1, nil
}

func (m *mockClientRepo) PushPhoto(_ context.Context, id primitive.ObjectID, url string) (int64, error) {
	c, ok := m.clients[id]
	if !ok {
		return 0, nil
	}
	c.Photos = append(c.Photos, url)
	return 1, nil
}

func (m *mockClientRepo) PullPhoto(_ context.Context, id primitive.ObjectID, url string) (int64, error) {
	c, ok := m.clients[id]
	if !ok {
		return 0, nil
	}
	kept := c.Photos[:0]
	for _, u := range c.Photos {
		if u != url {
			kept = append(kept, u)
		}
	}
	c.Photos = kept
	return 1, nil
}

func TestClientService_Create_HashesPassword(t *testing.T) {
	repo := newMockClientRepo()
	svc := NewClientService(repo)

	client, err := svc.Create(context.Background(), dto.CreateClientRequest{
		Name: "Maria Silva", Email: "maria@example.com",
		CPF: "12345678901", Phone: "11987654321",
		Password: "password123", RepPassword: "password123",
	})
	require.NoError(t, err)
	assert.Empty(t, client.Password)

	stored := repo.clients[client.ID]
	assert.NotEqual(t, "password123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))
}

func TestClientService_GetByID_NotFound(t *testing.T) {
	svc := NewClientService(newMockClientRepo())
	_, err := svc.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientService_Snapshot(t *testing.T) {
	repo := newMockClientRepo()
	id := primitive.NewObjectID()
	repo.clients[id] = &model.Client{
		ID: id, Name: "Maria Silva", Email: "maria@example.com",
		CPF: "12345678901", Phone: "11987654321", Password: "hashed",
	}
	svc := NewClientService(repo)

	snap, err := svc.Snapshot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "maria@example.com", snap.Email)
}

func TestClientService_Snapshot_NotFound(t *testing.T) {
	svc := NewClientService(newMockClientRepo())
	_, err := svc.Snapshot(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientService_Update_PhotosIgnored(t *testing.T) {
	repo := newMockClientRepo()
	id := primitive.NewObjectID()
	repo.clients[id] = &model.Client{ID: id, Name: "Maria", Photos: []string{"a.jpg"}}
	svc := NewClientService(repo)

	phone := "11912341234"
	photos := []string{"b.jpg"}
	modified, err := svc.Update(context.Background(), id, dto.UpdateClientRequest{
		Phone: &phone, Photos: &photos,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)
	assert.Equal(t, "11912341234", repo.clients[id].Phone)
	assert.Equal(t, []string{"a.jpg"}, repo.clients[id].Photos)
}

func TestClientService_Update_RehashesPassword(t *testing.T) {
	repo := newMockClientRepo()
	id := primitive.NewObjectID()
	repo.clients[id] = &model.Client{ID: id, Password: "old-hash"}
	svc := NewClientService(repo)

	password := "newpassword1"
	_, err := svc.Update(context.Background(), id, dto.UpdateClientRequest{Password: &password})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.clients[id].Password), []byte("newpassword1")))
}

func TestClientService_Delete_NotFound(t *testing.T) {
	svc := NewClientService(newMockClientRepo())
	_, err := svc.Delete(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrClientNotFound)
}
