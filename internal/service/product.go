package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/model"
	"github.com/caravela/go-store-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be positive")
)

const productCacheTTL = 60 * time.Second

// ProductService is the product ledger: CRUD for callers plus the stock
// primitives the order lifecycle engine mutates quantities through.
type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	if !req.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	product := &model.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       truncatePrice(req.Price),
		Description: req.Description,
		Quantity:    req.Quantity,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	cacheKey := "product:" + id.Hex()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var p model.Product
			if json.Unmarshal([]byte(cached), &p) == nil {
				return &p, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return product, nil
}

// GetBrief reads the embedding projection (no timestamps, no photos).
// It bypasses the cache: snapshots must reflect the live document.
func (s *ProductService) GetBrief(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	product, err := s.productRepo.GetBrief(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product brief: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *ProductService) Search(ctx context.Context, req dto.SearchProductsRequest) ([]model.Product, error) {
	return s.productRepo.Search(ctx, repository.ProductFilter{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
	})
}

// Update applies a partial update and stamps last_modified. The photo
// list is deliberately untouchable through this path.
func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, req dto.UpdateProductRequest) (int64, error) {
	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Brand != nil {
		fields["brand"] = *req.Brand
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return 0, ErrInvalidPrice
		}
		fields["price"] = truncatePrice(*req.Price)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Quantity != nil {
		fields["quantity"] = *req.Quantity
	}

	modified, err := s.productRepo.Update(ctx, id, fields)
	if err != nil {
		return 0, fmt.Errorf("update product: %w", err)
	}
	if modified == 0 {
		return 0, ErrProductNotFound
	}
	s.invalidateCache(ctx, id)
	return modified, nil
}

// SetQuantity overwrites the live stock with an absolute value. The
// engine's own mutations go through DecrementStock/IncrementStock; this
// exists for administrative corrections.
func (s *ProductService) SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) (int64, error) {
	modified, err := s.productRepo.SetQuantity(ctx, id, quantity)
	if err != nil {
		return 0, fmt.Errorf("set quantity: %w", err)
	}
	if modified == 0 {
		return 0, ErrProductNotFound
	}
	s.invalidateCache(ctx, id)
	return modified, nil
}

// DecrementStock takes n units off stock only when n are on hand. A zero
// modified count means the stock check failed atomically at the store.
func (s *ProductService) DecrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error) {
	modified, err := s.productRepo.DecrementStock(ctx, id, n)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	if modified > 0 {
		s.invalidateCache(ctx, id)
	}
	return modified, nil
}

func (s *ProductService) IncrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error) {
	modified, err := s.productRepo.IncrementStock(ctx, id, n)
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	if modified > 0 {
		s.invalidateCache(ctx, id)
	}
	return modified, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete product: %w", err)
	}
	if deleted == 0 {
		return 0, ErrProductNotFound
	}
	s.invalidateCache(ctx, id)
	return deleted, nil
}

func (s *ProductService) AttachPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	modified, err := s.productRepo.PushPhoto(ctx, id, url)
	if err != nil {
		return 0, fmt.Errorf("attach photo: %w", err)
	}
	if modified == 0 {
		return 0, ErrProductNotFound
	}
	s.invalidateCache(ctx, id)
	return modified, nil
}

func (s *ProductService) DetachPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	modified, err := s.productRepo.PullPhoto(ctx, id, url)
	if err != nil {
		return 0, fmt.Errorf("detach photo: %w", err)
	}
	s.invalidateCache(ctx, id)
	return modified, nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id primitive.ObjectID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.Hex())
	}
}

// Prices carry exactly two decimal places, truncated, never rounded.
func truncatePrice(d decimal.Decimal) float64 {
	return d.Truncate(2).InexactFloat64()
}
