package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Brand        string             `bson:"brand"`
	Price        float64            `bson:"price"`
	Description  string             `bson:"description"`
	Quantity     int                `bson:"quantity"`
	Photos       []string           `bson:"photos"`
	CreatedAt    time.Time          `bson:"created_at"`
	LastModified time.Time          `bson:"last_modified"`
}

type Client struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	Email        string               `bson:"email"`
	CPF          string               `bson:"cpf"`
	Phone        string               `bson:"phone"`
	Password     string               `bson:"password,omitempty"`
	Orders       []primitive.ObjectID `bson:"orders"`
	Photos       []string             `bson:"photos"`
	IsClient     bool                 `bson:"is_client"`
	CreatedAt    time.Time            `bson:"created_at"`
	LastModified time.Time            `bson:"last_modified"`
}

// ClientSnapshot is the denormalized copy of a client embedded into an
// order at creation time. It is a point-in-time record, never a live
// reference: later edits to the client do not touch it.
type ClientSnapshot struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	CPF   string             `bson:"cpf"`
	Phone string             `bson:"phone"`
}

// LineItem is the product snapshot stored inside an order. Quantity is
// what was taken from stock when the item was added, independent of the
// product's live quantity afterwards.
type LineItem struct {
	ProductID   primitive.ObjectID `bson:"product_id"`
	Name        string             `bson:"name"`
	Brand       string             `bson:"brand"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Quantity    int                `bson:"quantity"`
}

type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Client       ClientSnapshot     `bson:"client"`
	Items        []LineItem         `bson:"items"`
	Status       OrderStatus        `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	LastModified time.Time          `bson:"last_modified"`
}

type OrderStatus string

const (
	OrderStatusInCart          OrderStatus = "in_cart"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCanceled        OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInCart, OrderStatusAwaitingPayment, OrderStatusPaid,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// TransitionAllowed reports whether the order may move from s to next.
// Any valid status is currently reachable from any other; every status
// write goes through this gate so a transition table can be introduced
// without touching call sites.
func (s OrderStatus) TransitionAllowed(next OrderStatus) bool {
	return next.Valid()
}

// OrderEventsQueue is the queue order mutations are published to and the
// audit worker consumes from.
const OrderEventsQueue = "order-events"

// OrderEvent is published on every order mutation and consumed by the
// audit worker.
type OrderEvent struct {
	EventID string    `json:"event_id"`
	OrderID string    `json:"order_id"`
	Action  string    `json:"action"`
	At      time.Time `json:"at"`
}

const (
	OrderActionCreated       = "order_created"
	OrderActionItemAdded     = "item_added"
	OrderActionItemRemoved   = "item_removed"
	OrderActionStatusChanged = "status_changed"
	OrderActionDeleted       = "order_deleted"
)

// AuditLog is one entry in the order audit trail collection.
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Service   string             `bson:"service"`
	Action    string             `bson:"action"`
	EntityID  string             `bson:"entity_id"`
	EventID   string             `bson:"event_id"`
	CreatedAt time.Time          `bson:"created_at"`
}
