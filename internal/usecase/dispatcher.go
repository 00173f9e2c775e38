package usecase

import (
	"context"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/logger"
)

// MessageDispatcher decodes inbound messages and hands them to the handler for their resource type
type MessageDispatcher struct {
	router       ResourceRouter
	audit        *AuditService
	auditInbound bool
	logger       logger.Logger
}

// NewMessageDispatcher creates a new dispatcher. audit may be nil when inbound auditing is off.
func NewMessageDispatcher(router ResourceRouter, audit *AuditService, auditInbound bool, logger logger.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		router:       router,
		audit:        audit,
		auditInbound: auditInbound && audit != nil,
		logger:       logger,
	}
}

// Dispatch processes one queue message. A nil return means the message may be acknowledged.
func (d *MessageDispatcher) Dispatch(ctx context.Context, msg entity.InboundMessage) error {
	body, err := DecodeBody(msg.ResourceType, msg.Body, msg.ContentEncoding)
	if err != nil {
		d.logger.Error("Failed to decode message body",
			"messageId", msg.MessageID,
			"resourceType", msg.ResourceType,
			"contentEncoding", msg.ContentEncoding,
			"error", err)
		return err
	}

	return d.HandleEvent(ctx, msg.ResourceType, body)
}

// Supports reports whether a handler is registered for the resource type
func (d *MessageDispatcher) Supports(resourceType string) bool {
	return d.router.GetHandler(resourceType) != nil
}

// HandleEvent processes a plain JSON body of the given resource type. Unknown resource
// types are skipped without error.
func (d *MessageDispatcher) HandleEvent(ctx context.Context, resourceType string, body []byte) error {
	handler := d.router.GetHandler(resourceType)
	if handler == nil {
		// Not an error, nothing here consumes this resource type
		d.logger.Warn("No handler found for resource type, skipping", "resourceType", resourceType)
		return nil
	}

	if d.auditInbound {
		d.audit.RecordInbound(ctx, resourceType, body)
	}

	handlerType := fmt.Sprintf("%T", handler)
	if err := handler.Handle(ctx, body); err != nil {
		d.logger.Error("Handler failed to process message",
			"resourceType", resourceType,
			"handler", handlerType,
			"payload", truncate(string(body), 512),
			"error", err)
		return err
	}

	d.logger.Debug("Message processed", "resourceType", resourceType, "handler", handlerType)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
