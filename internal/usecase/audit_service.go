package usecase

import (
	"context"
	"encoding/json"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"

	"github.com/google/uuid"
)

// AuditWindow is the trailing window served by Recent
const AuditWindow = 15 * time.Minute

// AuditService writes and reads the append-only audit log. Write failures are logged
// and never returned, so auditing cannot change the outcome of the operation it records.
type AuditService struct {
	auditRepo repository.AuditRepository
	logger    logger.Logger
	now       func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repository.AuditRepository, logger logger.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordInbound audits a received message body, tagged with its resource type
func (s *AuditService) RecordInbound(ctx context.Context, resourceType string, body []byte) {
	s.insert(ctx, &entity.AuditRecord{
		ID:          uuid.NewString(),
		Direction:   entity.DirectionInbound,
		Target:      resourceType,
		Payload:     string(body),
		CreatedAt:   s.now().UTC(),
		MessageType: resourceType,
	})
}

// RecordOutbound audits an outbound action attempt
func (s *AuditService) RecordOutbound(ctx context.Context, target, messageType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal audit payload", "target", target, "error", err)
		return
	}

	s.insert(ctx, &entity.AuditRecord{
		ID:          uuid.NewString(),
		Direction:   entity.DirectionOutbound,
		Target:      target,
		Payload:     string(data),
		CreatedAt:   s.now().UTC(),
		MessageType: messageType,
	})
}

// Recent returns audit records of one message type from the last AuditWindow
func (s *AuditService) Recent(ctx context.Context, messageType string) ([]*entity.AuditRecord, error) {
	return s.auditRepo.FindByMessageType(ctx, messageType, s.now().UTC().Add(-AuditWindow))
}

func (s *AuditService) insert(ctx context.Context, record *entity.AuditRecord) {
	// The record must survive a cancelled caller.
	ctx = context.WithoutCancel(ctx)

	if err := s.auditRepo.Insert(ctx, record); err != nil {
		s.logger.Error("Failed to write audit record",
			"direction", record.Direction,
			"target", record.Target,
			"messageType", record.MessageType,
			"error", err)
	}
}
