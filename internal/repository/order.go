package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/caravela/go-store-api/internal/model"
)

// OrderRepository is pure persistence: no stock checks, no transition
// checks, just document reads and partial writes. The lifecycle engine
// owns all business rules.
type OrderRepository interface {
	Insert(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	FindAll(ctx context.Context) ([]model.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	PushItem(ctx context.Context, orderID primitive.ObjectID, item model.LineItem) (int64, error)
	ReplaceItems(ctx context.Context, orderID primitive.ObjectID, items []model.LineItem) (int64, error)
	SetStatus(ctx context.Context, orderID primitive.ObjectID, status model.OrderStatus) (int64, error)
}

type mongoOrderRepo struct{ coll *mongo.Collection }

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{coll: db.Collection(ordersCollection)}
}

func (r *mongoOrderRepo) Insert(ctx context.Context, order *model.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.LastModified = now
	if order.Items == nil {
		order.Items = []model.LineItem{}
	}
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("insert order: %w", wrapError(err))
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	o := &model.Order{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", wrapError(err))
	}
	return o, nil
}

func (r *mongoOrderRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", wrapError(err))
	}
	defer cursor.Close(ctx)

	var orders []model.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", wrapError(err))
	}
	return orders, nil
}

func (r *mongoOrderRepo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", wrapError(err))
	}
	return res.DeletedCount, nil
}

func (r *mongoOrderRepo) PushItem(ctx context.Context, orderID primitive.ObjectID, item model.LineItem) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"last_modified": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("push order item: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

// ReplaceItems rewrites the whole item list. Removal is a list rewrite,
// not a targeted pull.
func (r *mongoOrderRepo) ReplaceItems(ctx context.Context, orderID primitive.ObjectID, items []model.LineItem) (int64, error) {
	if items == nil {
		items = []model.LineItem{}
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"items": items, "last_modified": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("replace order items: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoOrderRepo) SetStatus(ctx context.Context, orderID primitive.ObjectID, status model.OrderStatus) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": status, "last_modified": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("set order status: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}
