package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/caravela/go-store-api/internal/model"
	"github.com/caravela/go-store-api/internal/repository"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrItemNotFound         = errors.New("product not found in order")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// InsufficientStockError means the requested quantity exceeds the live
// stock. Nothing was mutated.
type InsufficientStockError struct {
	ProductID string
	InStock   int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s is not enough in stock: %d in stock, %d requested",
		e.ProductID, e.InStock, e.Requested)
}

// PartialFailureError means a later step of a multi-document mutation
// failed after an earlier write already stuck. There is no compensation;
// the caller gets told exactly how far the operation got.
type PartialFailureError struct {
	Completed string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure after %s: %v", e.Completed, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// OrderService is the order lifecycle engine. It composes the product
// ledger, the client snapshot provider and the order repository; all
// stock reconciliation rules live here and nowhere else.
type OrderService struct {
	orderRepo repository.OrderRepository
	products  *ProductService
	clients   *ClientService
	auditRepo repository.AuditRepository
	amqpCh    *amqp.Channel
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	products *ProductService,
	clients *ClientService,
	auditRepo repository.AuditRepository,
	amqpCh *amqp.Channel,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		products:  products,
		clients:   clients,
		auditRepo: auditRepo,
		amqpCh:    amqpCh,
	}
}

// Create opens an empty order in the cart state for the given client,
// embedding a point-in-time snapshot of the client's identity fields.
func (s *OrderService) Create(ctx context.Context, clientID primitive.ObjectID) (*model.Order, error) {
	snapshot, err := s.clients.Snapshot(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	order := &model.Order{
		Client: *snapshot,
		Items:  []model.LineItem{},
		Status: model.OrderStatusInCart,
	}
	if err := s.orderRepo.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The order exists at this point; a failed back-reference does not
	// undo it, it is reported as a partial failure.
	if _, err := s.clients.AppendOrder(ctx, clientID, order.ID); err != nil {
		return order, &PartialFailureError{Completed: "order created", Err: err}
	}

	s.publish(ctx, model.OrderActionCreated, order.ID)
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.FindAll(ctx)
}

// AddItem takes quantity units off the product's live stock and appends
// a line-item snapshot to the order. The stock decrement is conditional
// at the store, so a concurrent add cannot oversell; the two writes are
// still not atomic together, and a failed append after a successful
// decrement surfaces as a partial failure.
func (s *OrderService) AddItem(ctx context.Context, orderID, productID primitive.ObjectID, quantity int) (int64, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}

	product, err := s.products.GetBrief(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product.Quantity < quantity {
		return 0, &InsufficientStockError{
			ProductID: productID.Hex(),
			InStock:   product.Quantity,
			Requested: quantity,
		}
	}

	modified, err := s.products.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return 0, err
	}
	if modified == 0 {
		// Lost the race against a concurrent decrement.
		return 0, &InsufficientStockError{
			ProductID: productID.Hex(),
			InStock:   product.Quantity,
			Requested: quantity,
		}
	}

	item := model.LineItem{
		ProductID:   product.ID,
		Name:        product.Name,
		Brand:       product.Brand,
		Price:       product.Price,
		Description: product.Description,
		Quantity:    quantity,
	}
	pushed, err := s.orderRepo.PushItem(ctx, orderID, item)
	if err != nil {
		return 0, &PartialFailureError{Completed: "stock decremented", Err: err}
	}

	s.publish(ctx, model.OrderActionItemAdded, orderID)
	return pushed, nil
}

// RemoveItem drops the first line item matching the product id (later
// duplicates stay) and restores its quantity to the live stock. The
// order is rewritten before the stock restore; a failed restore leaves
// the item gone and surfaces as a partial failure.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, productID primitive.ObjectID) (int64, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}

	idx := -1
	for i, item := range order.Items {
		if item.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrItemNotFound
	}
	removed := order.Items[idx]

	items := make([]model.LineItem, 0, len(order.Items)-1)
	items = append(items, order.Items[:idx]...)
	items = append(items, order.Items[idx+1:]...)

	modified, err := s.orderRepo.ReplaceItems(ctx, orderID, items)
	if err != nil {
		return 0, fmt.Errorf("rewrite order items: %w", err)
	}

	if _, err := s.products.IncrementStock(ctx, productID, removed.Quantity); err != nil {
		return modified, &PartialFailureError{Completed: "item removed from order", Err: err}
	}

	s.publish(ctx, model.OrderActionItemRemoved, orderID)
	return modified, nil
}

// ChangeStatus sets the status field unconditionally. Every write goes
// through the transition gate, which is currently permissive.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID primitive.ObjectID, status model.OrderStatus) (int64, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}
	if !order.Status.TransitionAllowed(status) {
		return 0, ErrTransitionNotAllowed
	}

	modified, err := s.orderRepo.SetStatus(ctx, orderID, status)
	if err != nil {
		return 0, fmt.Errorf("set status: %w", err)
	}

	s.publish(ctx, model.OrderActionStatusChanged, orderID)
	return modified, nil
}

// Delete restores the live stock for every remaining line item, then
// removes the order document. Restores and delete are separate writes;
// a restore failure aborts with a partial failure naming how far the
// loop got, and the order stays.
func (s *OrderService) Delete(ctx context.Context, orderID primitive.ObjectID) (int64, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}

	for i, item := range order.Items {
		if _, err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return 0, &PartialFailureError{
				Completed: fmt.Sprintf("restored stock for %d of %d items", i, len(order.Items)),
				Err:       err,
			}
		}
	}

	deleted, err := s.orderRepo.Delete(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	if deleted == 0 {
		return 0, ErrOrderNotFound
	}

	s.publish(ctx, model.OrderActionDeleted, orderID)
	return deleted, nil
}

// Audit returns the most recent lifecycle events recorded for an order.
func (s *OrderService) Audit(ctx context.Context, orderID primitive.ObjectID, limit int64) ([]model.AuditLog, error) {
	if s.auditRepo == nil {
		return nil, nil
	}
	return s.auditRepo.ListByEntity(ctx, orderID.Hex(), limit)
}

// publish emits a lifecycle event for the audit worker. Event delivery
// is best effort and never fails the operation that triggered it.
func (s *OrderService) publish(ctx context.Context, action string, orderID primitive.ObjectID) {
	if s.amqpCh == nil {
		return
	}
	event := model.OrderEvent{
		EventID: uuid.New().String(),
		OrderID: orderID.Hex(),
		Action:  action,
		At:      time.Now(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = s.amqpCh.PublishWithContext(ctx, "", model.OrderEventsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
}
