package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caravela/go-store-api/internal/model"
)

type AuditRepository interface {
	Append(ctx context.Context, log *model.AuditLog) error
	ListByEntity(ctx context.Context, entityID string, limit int64) ([]model.AuditLog, error)
}

type mongoAuditRepo struct{ coll *mongo.Collection }

func NewAuditRepository(db *mongo.Database) AuditRepository {
	return &mongoAuditRepo{coll: db.Collection(auditLogsCollection)}
}

func (r *mongoAuditRepo) Append(ctx context.Context, log *model.AuditLog) error {
	log.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("insert audit log: %w", wrapError(err))
	}
	return nil
}

func (r *mongoAuditRepo) ListByEntity(ctx context.Context, entityID string, limit int64) ([]model.AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"entity_id": entityID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", wrapError(err))
	}
	defer cursor.Close(ctx)

	var logs []model.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode audit logs: %w", wrapError(err))
	}
	return logs, nil
}
