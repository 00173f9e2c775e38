package repository

import (
	"context"
	"errors"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMovementRepository implements MovementRepository
type MongoMovementRepository struct {
	collection *mongo.Collection
}

// NewMongoMovementRepository creates a new movement repository
func NewMongoMovementRepository(db *mongo.Database) *MongoMovementRepository {
	return &MongoMovementRepository{
		collection: db.Collection("movements"),
	}
}

// EnsureIndexes creates the indexes the repository queries rely on
func (r *MongoMovementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "state", Value: 1}, {Key: "updatedAt", Value: -1}},
	})
	return err
}

// UpsertIfNewer replaces the stored snapshot if movement is newer and returns the previous one
func (r *MongoMovementRepository) UpsertIfNewer(ctx context.Context, movement *entity.Movement) (*entity.Movement, error) {
	fields := bson.M{
		"state":   movement.State,
		"payload": movement.Payload,
	}

	var previous entity.Movement
	found, err := upsertIfNewer(ctx, r.collection, movement.MovementID, fields, utils.StoreTime(movement.UpdatedAt), &previous)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert movement %s: %w", movement.MovementID, err)
	}
	if !found {
		return nil, nil
	}
	return &previous, nil
}

// FindByID finds a movement snapshot by movement id
func (r *MongoMovementRepository) FindByID(ctx context.Context, movementID string) (*entity.Movement, error) {
	var movement entity.Movement
	err := r.collection.FindOne(ctx, bson.M{"_id": movementID}).Decode(&movement)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

// SetHold stores the hold flag without touching the snapshot payload
func (r *MongoMovementRepository) SetHold(ctx context.Context, movementID string, hold bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": movementID},
		bson.M{"$set": bson.M{"holdRequired": hold}},
	)
	if err != nil {
		return fmt.Errorf("failed to set hold: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("no movement found with id: %s", movementID)
	}

	return nil
}

// MongoMovementEtaRepository implements MovementEtaRepository
type MongoMovementEtaRepository struct {
	collection *mongo.Collection
}

// NewMongoMovementEtaRepository creates a new arrival-time snapshot repository
func NewMongoMovementEtaRepository(db *mongo.Database) *MongoMovementEtaRepository {
	return &MongoMovementEtaRepository{
		collection: db.Collection("movementEtas"),
	}
}

// UpsertIfNewer replaces the stored arrival snapshot if eta is newer and returns the previous one
func (r *MongoMovementEtaRepository) UpsertIfNewer(ctx context.Context, eta *entity.MovementEta) (*entity.MovementEta, error) {
	fields := bson.M{
		"mrns":            eta.Mrns,
		"arrivalDateTime": eta.ArrivalDateTime,
	}

	var previous entity.MovementEta
	found, err := upsertIfNewer(ctx, r.collection, eta.MovementID, fields, utils.StoreTime(eta.UpdatedAt), &previous)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert movement eta %s: %w", eta.MovementID, err)
	}
	if !found {
		return nil, nil
	}
	return &previous, nil
}

// FindByID finds the arrival snapshot of a movement
func (r *MongoMovementEtaRepository) FindByID(ctx context.Context, movementID string) (*entity.MovementEta, error) {
	var eta entity.MovementEta
	err := r.collection.FindOne(ctx, bson.M{"_id": movementID}).Decode(&eta)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &eta, nil
}

// MongoMovementMatchRepository implements MovementMatchRepository
type MongoMovementMatchRepository struct {
	collection *mongo.Collection
}

// NewMongoMovementMatchRepository creates a new movement match repository
func NewMongoMovementMatchRepository(db *mongo.Database) *MongoMovementMatchRepository {
	return &MongoMovementMatchRepository{
		collection: db.Collection("movementMatches"),
	}
}

// EnsureIndexes creates the lookup indexes for both sides of a match
func (r *MongoMovementMatchRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"movementId": 1}},
		{Keys: bson.M{"mrn": 1}},
		{
			Keys:    bson.D{{Key: "movementId", Value: 1}, {Key: "mrn", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// UpsertIfNewer writes the match if it is newer and returns the previous one
func (r *MongoMovementMatchRepository) UpsertIfNewer(ctx context.Context, match *entity.MovementMatch) (*entity.MovementMatch, error) {
	fields := bson.M{
		"movementId": match.MovementID,
		"mrn":        match.Mrn,
	}

	var previous entity.MovementMatch
	found, err := upsertIfNewer(ctx, r.collection, match.ID, fields, utils.StoreTime(match.UpdatedAt), &previous)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert movement match %s: %w", match.ID, err)
	}
	if !found {
		return nil, nil
	}
	return &previous, nil
}

// FindByMovementID finds all mrns matched to a movement
func (r *MongoMovementMatchRepository) FindByMovementID(ctx context.Context, movementID string) ([]*entity.MovementMatch, error) {
	return r.find(ctx, bson.M{"movementId": movementID})
}

// FindByMrns finds all movements matched to any of the mrns
func (r *MongoMovementMatchRepository) FindByMrns(ctx context.Context, mrns []string) ([]*entity.MovementMatch, error) {
	if len(mrns) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"mrn": bson.M{"$in": mrns}})
}

func (r *MongoMovementMatchRepository) find(ctx context.Context, filter bson.M) ([]*entity.MovementMatch, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*entity.MovementMatch
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
