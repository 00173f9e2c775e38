package repository

import (
	"context"
	"time"

	"movement-hold-service/internal/domain/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuditRepository implements AuditRepository
type MongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new audit repository
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{
		collection: db.Collection("auditLogs"),
	}
}

// EnsureIndexes creates the retention TTL index and the message type lookup index
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	ttlIndex := mongo.IndexModel{
		Keys:    bson.M{"createdAt": 1},
		Options: options.Index().SetExpireAfterSeconds(int32(entity.AuditRetention.Seconds())),
	}

	messageTypeIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "messageType", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		ttlIndex,
		messageTypeIndex,
	})
	return err
}

// Insert appends an audit record
func (r *MongoAuditRepository) Insert(ctx context.Context, record *entity.AuditRecord) error {
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// FindByMessageType finds records of one message type created at or after since, newest first
func (r *MongoAuditRepository) FindByMessageType(ctx context.Context, messageType string, since time.Time) ([]*entity.AuditRecord, error) {
	filter := bson.M{
		"messageType": messageType,
		"createdAt":   bson.M{"$gte": since},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*entity.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
