package repository

import (
	"context"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTransitRecordRepository implements TransitRecordRepository
type MongoTransitRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoTransitRecordRepository creates a new transit record repository
func NewMongoTransitRecordRepository(db *mongo.Database) *MongoTransitRecordRepository {
	return &MongoTransitRecordRepository{
		collection: db.Collection("transitRecords"),
	}
}

// EnsureIndexes creates the mrn lookup index
func (r *MongoTransitRecordRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"mrn": 1},
	})
	return err
}

// UpsertIfNewer writes the record if it is newer and returns the previous one
func (r *MongoTransitRecordRepository) UpsertIfNewer(ctx context.Context, record *entity.TransitRecord) (*entity.TransitRecord, error) {
	fields := bson.M{
		"mrn":              record.Mrn,
		"overrideRequired": record.OverrideRequired,
	}

	var previous entity.TransitRecord
	found, err := upsertIfNewer(ctx, r.collection, record.ReferenceNumber, fields, utils.StoreTime(record.UpdatedAt), &previous)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transit record %s: %w", record.ReferenceNumber, err)
	}
	if !found {
		return nil, nil
	}
	return &previous, nil
}

// FindByReferenceNumbers finds records by regulatory reference number
func (r *MongoTransitRecordRepository) FindByReferenceNumbers(ctx context.Context, referenceNumbers []string) ([]*entity.TransitRecord, error) {
	if len(referenceNumbers) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": referenceNumbers}})
}

// FindByMrns finds records whose transit mrn is any of mrns
func (r *MongoTransitRecordRepository) FindByMrns(ctx context.Context, mrns []string) ([]*entity.TransitRecord, error) {
	if len(mrns) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"mrn": bson.M{"$in": mrns}})
}

func (r *MongoTransitRecordRepository) find(ctx context.Context, filter bson.M) ([]*entity.TransitRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*entity.TransitRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MongoCustomsDeclarationRepository implements CustomsDeclarationRepository
type MongoCustomsDeclarationRepository struct {
	collection *mongo.Collection
}

// NewMongoCustomsDeclarationRepository creates a new customs declaration repository
func NewMongoCustomsDeclarationRepository(db *mongo.Database) *MongoCustomsDeclarationRepository {
	return &MongoCustomsDeclarationRepository{
		collection: db.Collection("customsDeclarations"),
	}
}

// EnsureIndexes creates the multikey index used to find declarations by reference
func (r *MongoCustomsDeclarationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"references": 1},
	})
	return err
}

// ReplaceIfNewer replaces reference lists for all declarations in one unordered bulk write
func (r *MongoCustomsDeclarationRepository) ReplaceIfNewer(ctx context.Context, declarations []*entity.CustomsDeclaration) error {
	if len(declarations) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(declarations))
	for _, d := range declarations {
		fields := bson.M{"references": d.References}
		models = append(models, newerWriteModel(d.Mrn, fields, utils.StoreTime(d.UpdatedAt)))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to write customs declarations: %w", err)
	}
	return nil
}

// FindByMrns finds declarations by mrn
func (r *MongoCustomsDeclarationRepository) FindByMrns(ctx context.Context, mrns []string) ([]*entity.CustomsDeclaration, error) {
	if len(mrns) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": mrns}})
}

// FindByReference finds declarations that list the reference
func (r *MongoCustomsDeclarationRepository) FindByReference(ctx context.Context, referenceNumber string) ([]*entity.CustomsDeclaration, error) {
	return r.find(ctx, bson.M{"references": referenceNumber})
}

func (r *MongoCustomsDeclarationRepository) find(ctx context.Context, filter bson.M) ([]*entity.CustomsDeclaration, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var declarations []*entity.CustomsDeclaration
	if err := cursor.All(ctx, &declarations); err != nil {
		return nil, err
	}
	return declarations, nil
}
