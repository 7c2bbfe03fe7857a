package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caravela/go-store-api/internal/model"
)

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error)
	GetByEmail(ctx context.Context, email string) (*model.Client, error)
	GetBrief(ctx context.Context, id primitive.ObjectID) (*model.ClientSnapshot, error)
	List(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	PushOrder(ctx context.Context, clientID, orderID primitive.ObjectID) (int64, error)
	PushPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error)
	PullPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error)
}

type mongoClientRepo struct{ coll *mongo.Collection }

func NewClientRepository(db *mongo.Database) ClientRepository {
	return &mongoClientRepo{coll: db.Collection(clientsCollection)}
}

func (r *mongoClientRepo) Create(ctx context.Context, client *model.Client) error {
	now := time.Now()
	client.CreatedAt = now
	client.LastModified = now
	client.IsClient = true
	if client.Orders == nil {
		client.Orders = []primitive.ObjectID{}
	}
	if client.Photos == nil {
		client.Photos = []string{}
	}
	res, err := r.coll.InsertOne(ctx, client)
	if err != nil {
		return fmt.Errorf("insert client: %w", wrapError(err))
	}
	client.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID strips the password hash; it never leaves the store for reads
// that are not authentication.
func (r *mongoClientRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error) {
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	c := &model.Client{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", wrapError(err))
	}
	return c, nil
}

// GetByEmail keeps the password hash; only the auth service calls it.
func (r *mongoClientRepo) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	c := &model.Client{}
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by email: %w", wrapError(err))
	}
	return c, nil
}

// GetBrief returns only the identity-bearing fields, the projection
// embedded into orders as the client snapshot.
func (r *mongoClientRepo) GetBrief(ctx context.Context, id primitive.ObjectID) (*model.ClientSnapshot, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"_id":   1,
		"name":  1,
		"email": 1,
		"cpf":   1,
		"phone": 1,
	})
	snap := &model.ClientSnapshot{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client brief: %w", wrapError(err))
	}
	return snap, nil
}

func (r *mongoClientRepo) List(ctx context.Context) ([]model.Client, error) {
	opts := options.Find().SetProjection(bson.M{"password": 0})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", wrapError(err))
	}
	defer cursor.Close(ctx)

	var clients []model.Client
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("decode clients: %w", wrapError(err))
	}
	return clients, nil
}

func (r *mongoClientRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	fields["last_modified"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("update client: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoClientRepo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete client: %w", wrapError(err))
	}
	return res.DeletedCount, nil
}

func (r *mongoClientRepo) PushOrder(ctx context.Context, clientID, orderID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": clientID}, bson.M{"$push": bson.M{"orders": orderID}})
	if err != nil {
		return 0, fmt.Errorf("push client order: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoClientRepo) PushPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"photos": url}})
	if err != nil {
		return 0, fmt.Errorf("push client photo: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}

func (r *mongoClientRepo) PullPhoto(ctx context.Context, id primitive.ObjectID, url string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"photos": url}})
	if err != nil {
		return 0, fmt.Errorf("pull client photo: %w", wrapError(err))
	}
	return res.ModifiedCount, nil
}
