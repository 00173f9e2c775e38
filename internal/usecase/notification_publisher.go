package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/metrics"

	"github.com/google/uuid"
)

// Outbound message types
const (
	MessageTypeEtaNotification   = "EtaNotification"
	MessageTypeMatchNotification = "MatchNotification"
)

// NotificationPublisher serializes notifications and hands them to the outbound
// messaging collaborator. An empty destination disables that kind of notification.
type NotificationPublisher struct {
	notificationRepo repository.NotificationRepository
	etaDestination   string
	matchDestination string
	metrics          *metrics.Metrics
	logger           logger.Logger
}

// NewNotificationPublisher creates a new notification publisher
func NewNotificationPublisher(
	notificationRepo repository.NotificationRepository,
	etaDestination string,
	matchDestination string,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *NotificationPublisher {
	return &NotificationPublisher{
		notificationRepo: notificationRepo,
		etaDestination:   etaDestination,
		matchDestination: matchDestination,
		metrics:          metrics,
		logger:           logger,
	}
}

// PublishEta sends arrival-time notifications
func (p *NotificationPublisher) PublishEta(ctx context.Context, notifications []entity.EtaNotification) error {
	bodies := make([]interface{}, len(notifications))
	for i := range notifications {
		bodies[i] = notifications[i]
	}
	return p.publish(ctx, entity.NotificationKindEta, p.etaDestination, MessageTypeEtaNotification, bodies)
}

// PublishMatches sends regulatory-match notifications
func (p *NotificationPublisher) PublishMatches(ctx context.Context, notifications []entity.MatchNotification) error {
	bodies := make([]interface{}, len(notifications))
	for i := range notifications {
		bodies[i] = notifications[i]
	}
	return p.publish(ctx, entity.NotificationKindMatch, p.matchDestination, MessageTypeMatchNotification, bodies)
}

func (p *NotificationPublisher) publish(ctx context.Context, kind, destination, messageType string, bodies []interface{}) error {
	if len(bodies) == 0 {
		return nil
	}
	if destination == "" {
		p.logger.Debug("No destination configured, notifications dropped", "kind", kind, "count", len(bodies))
		return nil
	}

	messages := make([]entity.OutboundMessage, 0, len(bodies))
	for _, body := range bodies {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s notification: %w", kind, err)
		}
		messages = append(messages, entity.OutboundMessage{
			ID:         uuid.NewString(),
			Body:       string(data),
			Attributes: map[string]string{entity.AttributeMessageType: messageType},
		})
	}

	if err := p.notificationRepo.SendBatch(ctx, destination, messages); err != nil {
		p.metrics.IncError("send_" + kind)
		return fmt.Errorf("failed to send %s notifications: %w", kind, err)
	}

	p.metrics.AddNotifications(kind, len(messages))
	p.logger.Info("Notifications sent", "kind", kind, "destination", destination, "count", len(messages))
	return nil
}
