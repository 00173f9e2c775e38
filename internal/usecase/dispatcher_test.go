package usecase

import (
	"context"
	"testing"

	"movement-hold-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDispatcher_Dispatch(t *testing.T) {
	plain := `{"referenceNumber":"REF.A","status":"submitted","inspectionRequired":"required",` +
		`"lastUpdated":"2024-03-01T09:00:00Z","transit":{"indicator":"NO"}}`

	t.Run("compressed body reaches its handler and is audited", func(t *testing.T) {
		h := newHarness(t)

		err := h.dispatcher.Dispatch(context.Background(), entity.InboundMessage{
			MessageID:       "m1",
			ResourceType:    entity.ResourceTypePreNotification,
			ContentEncoding: entity.ContentEncodingGzipBase64,
			Body:            gzipBase64(t, plain),
		})
		require.NoError(t, err)

		rec, err := h.store.TransitRecords.FindByReferenceNumbers(context.Background(), []string{"REF.A"})
		require.NoError(t, err)
		require.Len(t, rec, 1)
		assert.True(t, rec[0].OverrideRequired)

		inbound := h.auditRecords(entity.ResourceTypePreNotification)
		require.Len(t, inbound, 1)
		assert.Equal(t, entity.DirectionInbound, inbound[0].Direction)
		assert.JSONEq(t, plain, inbound[0].Payload)
	})

	t.Run("unknown resource type is skipped", func(t *testing.T) {
		h := newHarness(t)

		err := h.dispatcher.Dispatch(context.Background(), entity.InboundMessage{MessageID: "m2", ResourceType: "gvms-route", Body: `{}`})
		assert.NoError(t, err)
		assert.Empty(t, h.store.Audit.All())
		assert.False(t, h.dispatcher.Supports("gvms-route"))
		assert.True(t, h.dispatcher.Supports(entity.ResourceTypeMovement))
	})

	t.Run("unsupported encoding is left for redelivery", func(t *testing.T) {
		h := newHarness(t)

		err := h.dispatcher.Dispatch(context.Background(), entity.InboundMessage{
			MessageID:       "m3",
			ResourceType:    entity.ResourceTypePreNotification,
			ContentEncoding: "deflate",
			Body:            plain,
		})
		assert.ErrorIs(t, err, ErrUnsupportedEncoding)
	})

	t.Run("malformed payload is left for redelivery", func(t *testing.T) {
		h := newHarness(t)

		err := h.dispatcher.Dispatch(context.Background(), entity.InboundMessage{
			MessageID:    "m4",
			ResourceType: entity.ResourceTypeMovement,
			Body:         `{"movementId":`,
		})
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}
