package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const updatedAtField = "updatedAt"

// newerThanStored is true when the stored document has no updatedAt yet or an older one.
// It is evaluated by the server against the document as it was before the update.
func newerThanStored(ts time.Time) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$" + updatedAtField}}, "missing"}}},
		bson.D{{Key: "$lt", Value: bson.A{"$" + updatedAtField, ts}}},
	}}}
}

// newerPipeline builds an aggregation-pipeline update that sets every field in fields,
// plus updatedAt, to the incoming value when the incoming timestamp is newer, and to its
// own current value otherwise. Values are wrapped in $literal so payload strings that start
// with "$" are never read as field paths.
func newerPipeline(fields bson.M, ts time.Time) mongo.Pipeline {
	cond := newerThanStored(ts)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make(bson.D, 0, len(keys)+1)
	for _, k := range keys {
		set = append(set, bson.E{Key: k, Value: bson.D{{Key: "$cond", Value: bson.A{
			cond,
			bson.D{{Key: "$literal", Value: fields[k]}},
			"$" + k,
		}}}})
	}
	set = append(set, bson.E{Key: updatedAtField, Value: bson.D{{Key: "$cond", Value: bson.A{
		cond,
		ts,
		"$" + updatedAtField,
	}}}})

	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// upsertIfNewer applies newerPipeline to the document with the given _id in a single
// findAndModify, creating it when absent. The pre-image is decoded into previous; found
// is false when no document existed before the write.
func upsertIfNewer(ctx context.Context, collection *mongo.Collection, id string, fields bson.M, ts time.Time, previous interface{}) (bool, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, newerPipeline(fields, ts), opts).Decode(previous)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// newerWriteModel is the bulk-write form of upsertIfNewer.
func newerWriteModel(id string, fields bson.M, ts time.Time) mongo.WriteModel {
	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": id}).
		SetUpdate(newerPipeline(fields, ts)).
		SetUpsert(true)
}
