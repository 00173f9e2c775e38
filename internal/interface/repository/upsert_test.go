package repository

import (
	"context"
	"testing"
	"time"

	"movement-hold-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNewerPipeline(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	pipeline := newerPipeline(bson.M{"state": "OPEN", "payload": bson.M{"a": "$notAField"}}, ts)

	require.Len(t, pipeline, 1)
	stage := pipeline[0]
	require.Len(t, stage, 1)
	assert.Equal(t, "$set", stage[0].Key)

	set, ok := stage[0].Value.(bson.D)
	require.True(t, ok)
	require.Len(t, set, 3)

	// fields sorted, updatedAt last
	assert.Equal(t, "payload", set[0].Key)
	assert.Equal(t, "state", set[1].Key)
	assert.Equal(t, updatedAtField, set[2].Key)

	cond := set[0].Value.(bson.D)[0]
	assert.Equal(t, "$cond", cond.Key)
	branches := cond.Value.(bson.A)
	require.Len(t, branches, 3)
	assert.Equal(t, bson.D{{Key: "$literal", Value: bson.M{"a": "$notAField"}}}, branches[1])
	assert.Equal(t, "$payload", branches[2])

	tsBranches := set[2].Value.(bson.D)[0].Value.(bson.A)
	assert.Equal(t, ts, tsBranches[1])
	assert.Equal(t, "$updatedAt", tsBranches[2])
}

func TestNewerThanStored(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cond := newerThanStored(ts)

	require.Len(t, cond, 1)
	assert.Equal(t, "$or", cond[0].Key)
	clauses := cond[0].Value.(bson.A)
	require.Len(t, clauses, 2)
	assert.Equal(t, bson.D{{Key: "$lt", Value: bson.A{"$updatedAt", ts}}}, clauses[1])
}

func TestMongoMovementRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)

	mt.Run("first sighting returns no previous snapshot", func(mt *mtest.T) {
		repo := NewMongoMovementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		prev, err := repo.UpsertIfNewer(ctx, &entity.Movement{MovementID: "MV1", State: "OPEN", UpdatedAt: ts})
		require.NoError(mt, err)
		assert.Nil(mt, prev)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.True(mt, started.Command.Lookup("upsert").Boolean())
		assert.Equal(mt, bson.TypeArray, started.Command.Lookup("update").Type)
	})

	mt.Run("returns the pre-image", func(mt *mtest.T) {
		repo := NewMongoMovementRepository(mt.DB)
		stored := ts.Add(-time.Hour).Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "MV1"},
			{Key: "state", Value: "OPEN"},
			{Key: "updatedAt", Value: stored},
			{Key: "holdRequired", Value: true},
		}}))

		prev, err := repo.UpsertIfNewer(ctx, &entity.Movement{MovementID: "MV1", State: "EMBARKED", UpdatedAt: ts})
		require.NoError(mt, err)
		require.NotNil(mt, prev)
		assert.Equal(mt, "OPEN", prev.State)
		assert.True(mt, prev.UpdatedAt.Equal(stored))
		assert.True(mt, prev.IsHeld())
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewMongoMovementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.movements", mtest.FirstBatch))

		m, err := repo.FindByID(ctx, "missing")
		require.NoError(mt, err)
		assert.Nil(mt, m)
	})

	mt.Run("find eta", func(mt *mtest.T) {
		repo := NewMongoMovementEtaRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.movementEtas", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "MV1"},
			{Key: "arrivalDateTime", Value: "2024-03-01T12:30:00"},
		}))

		eta, err := repo.FindByID(ctx, "MV1")
		require.NoError(mt, err)
		require.NotNil(mt, eta)
		assert.Equal(mt, "2024-03-01T12:30:00", eta.ArrivalDateTime)
	})

	mt.Run("find missing eta", func(mt *mtest.T) {
		repo := NewMongoMovementEtaRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.movementEtas", mtest.FirstBatch))

		eta, err := repo.FindByID(ctx, "missing")
		require.NoError(mt, err)
		assert.Nil(mt, eta)
	})

	mt.Run("set hold on unknown movement fails", func(mt *mtest.T) {
		repo := NewMongoMovementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetHold(ctx, "missing", true)
		assert.Error(mt, err)
	})

	mt.Run("set hold", func(mt *mtest.T) {
		repo := NewMongoMovementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.SetHold(ctx, "MV1", true))
	})
}

func TestMongoMovementMatchRepository_FindByMrns(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("empty input skips the query", func(mt *mtest.T) {
		repo := NewMongoMovementMatchRepository(mt.DB)
		matches, err := repo.FindByMrns(ctx, nil)
		require.NoError(mt, err)
		assert.Empty(mt, matches)
	})

	mt.Run("decodes matches", func(mt *mtest.T) {
		repo := NewMongoMovementMatchRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.movementMatches", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "MV1:24GB1"}, {Key: "movementId", Value: "MV1"}, {Key: "mrn", Value: "24GB1"}},
			bson.D{{Key: "_id", Value: "MV2:24GB1"}, {Key: "movementId", Value: "MV2"}, {Key: "mrn", Value: "24GB1"}},
		))

		matches, err := repo.FindByMrns(ctx, []string{"24GB1"})
		require.NoError(mt, err)
		require.Len(mt, matches, 2)
		assert.Equal(mt, "MV1", matches[0].MovementID)
		assert.Equal(mt, "MV2", matches[1].MovementID)
	})
}

func TestMongoCustomsDeclarationRepository_ReplaceIfNewer(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("one unordered bulk write", func(mt *mtest.T) {
		repo := NewMongoCustomsDeclarationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 1}))

		err := repo.ReplaceIfNewer(ctx, []*entity.CustomsDeclaration{
			{Mrn: "24GB1", References: []string{"CHED.1"}, UpdatedAt: ts},
			{Mrn: "24GB2", References: []string{"CHED.2", "CHED.3"}, UpdatedAt: ts},
		})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.False(mt, started.Command.Lookup("ordered").Boolean())
	})

	mt.Run("nothing to write", func(mt *mtest.T) {
		repo := NewMongoCustomsDeclarationRepository(mt.DB)
		require.NoError(mt, repo.ReplaceIfNewer(ctx, nil))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestMongoAuditRepository_FindByMessageType(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("decodes records", func(mt *mtest.T) {
		repo := NewMongoAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.auditLogs", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "a1"},
				{Key: "direction", Value: entity.DirectionOutbound},
				{Key: "target", Value: "hold-action"},
				{Key: "payload", Value: `{"movementId":"MV1"}`},
				{Key: "createdAt", Value: now},
				{Key: "messageType", Value: entity.MessageTypeHoldAction},
			},
		))

		records, err := repo.FindByMessageType(ctx, entity.MessageTypeHoldAction, now.Add(-15*time.Minute))
		require.NoError(mt, err)
		require.Len(mt, records, 1)
		assert.Equal(mt, "hold-action", records[0].Target)
		assert.True(mt, records[0].CreatedAt.Equal(now))
	})
}
