package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caravela/go-store-api/internal/model"
)

// ProductFilter narrows Search. Text fields match partially and
// case-insensitively; price bounds are inclusive.
type ProductFilter struct {
	Name        string
	Brand       string
	Description string
	MinPrice    *float64
	MaxPrice    *float64
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	GetBrief(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error)
	SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) (int64, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	PushPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error)
	PullPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error)
}

type mongoProductRepo struct{ coll *mongo.Collection }

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{coll: db.Collection(productsCollection)}
}

func (r *mongoProductRepo) Create(ctx context.Context, product *model.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.LastModified = now
	if product.Photos == nil {
		product.Photos = []string{}
	}
	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("insert product: %w", wrapError(err))
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	p := &model.Product{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", wrapError(err))
	}
	return p, nil
}

// GetBrief omits the audit fields and photo list, the projection used
// when a product is embedded into an order.
func (r *mongoProductRepo) GetBrief(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"created_at":    0,
		"last_modified": 0,
		"photos":        0,
	})
	p := &model.Product{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product brief: %w", wrapError(err))
	}
	return p, nil
}

func (r *mongoProductRepo) List(ctx context.Context) ([]model.Product, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", wrapError(err))
	}
	defer cursor.Close(ctx)

	var products []model.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", wrapError(err))
	}
	return products, nil
}

func (r *mongoProductRepo) Search(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := bson.M{}
	if filter.Name != "" {
		query["name"] = caseInsensitive(filter.Name)
	}
	if filter.Brand != "" {
		query["brand"] = caseInsensitive(filter.Brand)
	}
	if filter.Description != "" {
		query["description"] = caseInsensitive(filter.Description)
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", wrapError(err))
	}
	defer cursor.Close(ctx)

	var products []model.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", wrapError(err))
	}
	return products, nil
}

func caseInsensitive(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

func (r *mongoProductRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	fields["last_modified"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("update product: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoProductRepo) SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) (int64, error) {
	return r.Update(ctx, id, bson.M{"quantity": quantity})
}

// DecrementStock takes n units off the live stock only when at least n
// are on hand; the filter and the write are one atomic operation, so two
// concurrent callers cannot both drain the same units. A zero modified
// count means insufficient stock (or a missing product).
func (r *mongoProductRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{"quantity": -n},
			"$set": bson.M{"last_modified": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoProductRepo) IncrementStock(ctx context.Context, id primitive.ObjectID, n int) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"quantity": n},
			"$set": bson.M{"last_modified": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete product: %w", wrapError(err))
	}
	return res.DeletedCount, nil
}

func (r *mongoProductRepo) PushPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"photos": url}})
	if err != nil {
		return 0, fmt.Errorf("push product photo: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoProductRepo) PullPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"photos": url}})
	if err != nil {
		return 0, fmt.Errorf("pull product photo: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}
