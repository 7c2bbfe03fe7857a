package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/caravela/go-store-api/internal/model"
)

type mockOrderRepo struct {
	orders  map[primitive.ObjectID]*model.Order
	pushErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[primitive.ObjectID]*model.Order)}
}

func (m *mockOrderRepo) Insert(_ context.Context, order *model.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.LastModified = order.CreatedAt
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]model.LineItem(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepo) FindAll(_ context.Context) ([]model.Order, error) {
	var all []model.Order
	for _, o := range m.orders {
		all = append(all, *o)
	}
	return all, nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := m.orders[id]; !ok {
		return 0, nil
	}
	delete(m.orders, id)
	return 1, nil
}

func (m *mockOrderRepo) PushItem(_ context.Context, orderID primitive.ObjectID, item model.LineItem) (int64, error) {
	if m.pushErr != nil {
		return 0, m.pushErr
	}
	o, ok := m.orders[orderID]
	if !ok {
		return 0, nil
	}
	o.Items = append(o.Items, item)
	return 1, nil
}

func (m *mockOrderRepo) ReplaceItems(_ context.Context, orderID primitive.ObjectID, items []model.LineItem) (int64, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return 0, nil
	}
	o.Items = items
	return 1, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, orderID primitive.ObjectID, status model.OrderStatus) (int64, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return 0, nil
	}
	o.Status = status
	return 1, nil
}

type mockAuditRepo struct {
	logs []model.AuditLog
}

func (m *mockAuditRepo) Append(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, entityID string, limit int64) ([]model.AuditLog, error) {
	var hits []model.AuditLog
	for _, l := range m.logs {
		if l.EntityID == entityID {
			hits = append(hits, l)
		}
	}
	if limit > 0 && int64(len(hits)) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type orderFixture struct {
	orderRepo   *mockOrderRepo
	productRepo *mockProductRepo
	clientRepo  *mockClientRepo
	svc         *OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orderRepo:   newMockOrderRepo(),
		productRepo: newMockProductRepo(),
		clientRepo:  newMockClientRepo(),
	}
	f.svc = NewOrderService(
		f.orderRepo,
		NewProductService(f.productRepo, nil),
		NewClientService(f.clientRepo),
		&mockAuditRepo{},
		nil,
	)
	return f
}

func (f *orderFixture) addClient() primitive.ObjectID {
	id := primitive.NewObjectID()
	f.clientRepo.clients[id] = &model.Client{
		ID: id, Name: "Maria Silva", Email: "maria@example.com",
		CPF: "12345678901", Phone: "11987654321", Password: "hashed",
	}
	return id
}

func (f *orderFixture) addProduct(quantity int) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.productRepo.products[id] = &model.Product{
		ID: id, Name: "Keyboard", Brand: "Logi", Price: 49.90,
		Description: "mechanical", Quantity: quantity,
	}
	return id
}

func (f *orderFixture) addOrder(clientID primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.orderRepo.orders[id] = &model.Order{
		ID:     id,
		Client: model.ClientSnapshot{ID: clientID, Name: "Maria Silva"},
		Items:  []model.LineItem{},
		Status: model.OrderStatusInCart,
	}
	return id
}

func TestOrderService_Create(t *testing.T) {
	f := newOrderFixture()
	clientID := f.addClient()

	order, err := f.svc.Create(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInCart, order.Status)
	assert.Empty(t, order.Items)
	assert.Equal(t, clientID, order.Client.ID)
	assert.Equal(t, "maria@example.com", order.Client.Email)
	assert.Equal(t, []primitive.ObjectID{order.ID}, f.clientRepo.clients[clientID].Orders)
}

func TestOrderService_Create_ClientNotFound(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.Create(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.Empty(t, f.orderRepo.orders)
}

func TestOrderService_Create_BackReferenceFailure(t *testing.T) {
	f := newOrderFixture()
	clientID := f.addClient()
	f.clientRepo.pushOrderErr = errors.New("write concern timeout")

	order, err := f.svc.Create(context.Background(), clientID)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "order created", partial.Completed)
	require.NotNil(t, order)
	assert.Contains(t, f.orderRepo.orders, order.ID)
}

func TestOrderService_AddItem(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	modified, err := f.svc.AddItem(context.Background(), orderID, productID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	assert.Equal(t, 6, f.productRepo.products[productID].Quantity)
	items := f.orderRepo.orders[orderID].Items
	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID)
	assert.Equal(t, "Keyboard", items[0].Name)
	assert.Equal(t, 49.90, items[0].Price)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestOrderService_AddItem_SnapshotFrozen(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 2)
	require.NoError(t, err)

	f.productRepo.products[productID].Price = 99.90
	f.productRepo.products[productID].Name = "Keyboard v2"

	items := f.orderRepo.orders[orderID].Items
	assert.Equal(t, 49.90, items[0].Price)
	assert.Equal(t, "Keyboard", items[0].Name)
}

func TestOrderService_AddItem_OrderNotFound(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)

	_, err := f.svc.AddItem(context.Background(), primitive.NewObjectID(), productID, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 10, f.productRepo.products[productID].Quantity)
}

func TestOrderService_AddItem_ProductNotFound(t *testing.T) {
	f := newOrderFixture()
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, f.orderRepo.orders[orderID].Items)
}

func TestOrderService_AddItem_InsufficientStock(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(2)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 5)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productID.Hex(), stockErr.ProductID)
	assert.Equal(t, 2, stockErr.InStock)
	assert.Equal(t, 5, stockErr.Requested)

	assert.Equal(t, 2, f.productRepo.products[productID].Quantity)
	assert.Empty(t, f.orderRepo.orders[orderID].Items)
}

func TestOrderService_AddItem_PushFailureAfterDecrement(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())
	f.orderRepo.pushErr = errors.New("write concern timeout")

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 3)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "stock decremented", partial.Completed)
	assert.Equal(t, 7, f.productRepo.products[productID].Quantity)
}

func TestOrderService_AddRemove_RoundTrip(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, f.productRepo.products[productID].Quantity)

	_, err = f.svc.RemoveItem(context.Background(), orderID, productID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.productRepo.products[productID].Quantity)
	assert.Empty(t, f.orderRepo.orders[orderID].Items)
}

func TestOrderService_RemoveItem_FirstMatchOnly(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 4)
	require.NoError(t, err)
	_, err = f.svc.AddItem(context.Background(), orderID, productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, f.productRepo.products[productID].Quantity)
	require.Len(t, f.orderRepo.orders[orderID].Items, 2)

	_, err = f.svc.RemoveItem(context.Background(), orderID, productID)
	require.NoError(t, err)

	items := f.orderRepo.orders[orderID].Items
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 7, f.productRepo.products[productID].Quantity)
}

func TestOrderService_RemoveItem_NotInOrder(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.RemoveItem(context.Background(), orderID, productID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 10, f.productRepo.products[productID].Quantity)
}

func TestOrderService_RemoveItem_RestoreFailure(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 4)
	require.NoError(t, err)
	f.productRepo.incrementErr = errors.New("write concern timeout")

	_, err = f.svc.RemoveItem(context.Background(), orderID, productID)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "item removed from order", partial.Completed)
	assert.Empty(t, f.orderRepo.orders[orderID].Items)
	assert.Equal(t, 6, f.productRepo.products[productID].Quantity)
}

func TestOrderService_ChangeStatus(t *testing.T) {
	f := newOrderFixture()
	orderID := f.addOrder(f.addClient())

	modified, err := f.svc.ChangeStatus(context.Background(), orderID, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)
	assert.Equal(t, model.OrderStatusPaid, f.orderRepo.orders[orderID].Status)

	// No ordering is enforced between statuses.
	_, err = f.svc.ChangeStatus(context.Background(), orderID, model.OrderStatusInCart)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInCart, f.orderRepo.orders[orderID].Status)
}

func TestOrderService_ChangeStatus_Invalid(t *testing.T) {
	f := newOrderFixture()
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.ChangeStatus(context.Background(), orderID, model.OrderStatus("returned"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, model.OrderStatusInCart, f.orderRepo.orders[orderID].Status)
}

func TestOrderService_ChangeStatus_OrderNotFound(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.ChangeStatus(context.Background(), primitive.NewObjectID(), model.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_Delete_RestoresAllStock(t *testing.T) {
	f := newOrderFixture()
	firstID := f.addProduct(10)
	secondID := f.addProduct(5)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, firstID, 4)
	require.NoError(t, err)
	_, err = f.svc.AddItem(context.Background(), orderID, secondID, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, f.productRepo.products[firstID].Quantity)
	assert.Equal(t, 0, f.productRepo.products[secondID].Quantity)

	deleted, err := f.svc.Delete(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, f.orderRepo.orders)
	assert.Equal(t, 10, f.productRepo.products[firstID].Quantity)
	assert.Equal(t, 5, f.productRepo.products[secondID].Quantity)
}

func TestOrderService_Delete_NotFound(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)

	_, err := f.svc.Delete(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 10, f.productRepo.products[productID].Quantity)
}

func TestOrderService_Delete_RestoreFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture()
	productID := f.addProduct(10)
	orderID := f.addOrder(f.addClient())

	_, err := f.svc.AddItem(context.Background(), orderID, productID, 4)
	require.NoError(t, err)
	f.productRepo.incrementErr = errors.New("write concern timeout")

	_, err = f.svc.Delete(context.Background(), orderID)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Contains(t, f.orderRepo.orders, orderID)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.GetByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
