package dto

import (
	"errors"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/caravela/go-store-api/internal/model"
)

// Object ids on the wire are 24 lowercase hex digits; anything else is
// rejected before it reaches a service.
var objectIDPattern = regexp.MustCompile(`^[a-f0-9]{24}$`)

var ErrInvalidID = errors.New("id must be 24 lowercase hex characters")

func ParseID(s string) (primitive.ObjectID, error) {
	if !objectIDPattern.MatchString(s) {
		return primitive.NilObjectID, ErrInvalidID
	}
	return primitive.ObjectIDFromHex(s)
}

// Result is the uniform success/failure payload every endpoint returns
// for mutations. Exactly one of Success or Failed is set.
type Result struct {
	Success           string `json:"success,omitempty"`
	Failed            string `json:"failed,omitempty"`
	ID                string `json:"_id,omitempty"`
	Message           string `json:"message,omitempty"`
	Quantity          *int64 `json:"quantity,omitempty"`
	QuantityInStock   *int   `json:"quantity_in_stock,omitempty"`
	QuantityRequested *int   `json:"quantity_requested,omitempty"`
}

func Count(n int64) *int64 { return &n }

// --- Auth ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type TokenResponse struct {
	Success     string `json:"success"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Expiration  string `json:"expiration"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=3"`
	Brand       string          `json:"brand" binding:"required,min=2"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Description string          `json:"description" binding:"required,min=3"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Brand       *string          `json:"brand"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Quantity    *int             `json:"quantity"`
	// Photos is accepted but never applied; the photo list only changes
	// through the attach/detach endpoints.
	Photos *[]string `json:"photos"`
}

type SearchProductsRequest struct {
	Name        string   `form:"name"`
	Brand       string   `form:"brand"`
	Description string   `form:"description"`
	MinPrice    *float64 `form:"min_price"`
	MaxPrice    *float64 `form:"max_price"`
}

type ProductResponse struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Quantity     int       `json:"quantity"`
	Photos       []string  `json:"photos,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

func ToProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Brand:        p.Brand,
		Price:        p.Price,
		Description:  p.Description,
		Quantity:     p.Quantity,
		Photos:       p.Photos,
		CreatedAt:    p.CreatedAt,
		LastModified: p.LastModified,
	}
}

// --- Client ---

type CreateClientRequest struct {
	Name        string `json:"name" binding:"required,min=3"`
	Email       string `json:"email" binding:"required,email"`
	CPF         string `json:"cpf" binding:"required,len=11,numeric"`
	Phone       string `json:"phone" binding:"required,len=11,numeric"`
	Password    string `json:"password" binding:"required,min=8"`
	RepPassword string `json:"rep_password" binding:"required,eqfield=Password"`
}

type UpdateClientRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	CPF      *string `json:"cpf" binding:"omitempty,len=11,numeric"`
	Phone    *string `json:"phone" binding:"omitempty,len=11,numeric"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	IsClient *bool   `json:"is_client"`
	// Photos is accepted but never applied, same as products.
	Photos *[]string `json:"photos"`
}

type ClientResponse struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CPF          string    `json:"cpf"`
	Phone        string    `json:"phone"`
	Orders       []string  `json:"orders"`
	Photos       []string  `json:"photos,omitempty"`
	IsClient     bool      `json:"is_client"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

func ToClientResponse(c *model.Client) ClientResponse {
	orders := make([]string, 0, len(c.Orders))
	for _, id := range c.Orders {
		orders = append(orders, id.Hex())
	}
	return ClientResponse{
		ID:           c.ID.Hex(),
		Name:         c.Name,
		Email:        c.Email,
		CPF:          c.CPF,
		Phone:        c.Phone,
		Orders:       orders,
		Photos:       c.Photos,
		IsClient:     c.IsClient,
		CreatedAt:    c.CreatedAt,
		LastModified: c.LastModified,
	}
}

// --- Photos ---

type PhotoRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// --- Order ---

type CreateOrderRequest struct {
	ClientID string `json:"client_id" binding:"required,len=24,hexadecimal,lowercase"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,len=24,hexadecimal,lowercase"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type ChangeStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=in_cart awaiting_payment paid shipped delivered canceled"`
}

type LineItemResponse struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
}

type OrderClientResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

type OrderResponse struct {
	ID           string              `json:"_id"`
	Client       OrderClientResponse `json:"client"`
	Items        []LineItemResponse  `json:"items"`
	Status       model.OrderStatus   `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	LastModified time.Time           `json:"last_modified"`
}

func ToOrderResponse(o *model.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItemResponse{
			ProductID:   it.ProductID.Hex(),
			Name:        it.Name,
			Brand:       it.Brand,
			Price:       it.Price,
			Description: it.Description,
			Quantity:    it.Quantity,
		})
	}
	return OrderResponse{
		ID: o.ID.Hex(),
		Client: OrderClientResponse{
			ID:    o.Client.ID.Hex(),
			Name:  o.Client.Name,
			Email: o.Client.Email,
			CPF:   o.Client.CPF,
			Phone: o.Client.Phone,
		},
		Items:        items,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		LastModified: o.LastModified,
	}
}

// --- Audit ---

type AuditLogResponse struct {
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}
