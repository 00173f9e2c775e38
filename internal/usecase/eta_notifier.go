package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/utils"
)

// EtaNotifier sends arrival-time notifications for embarked movements. It notifies only
// when both the snapshot and its arrival time are strictly newer than what is stored.
type EtaNotifier struct {
	etaRepo   repository.MovementEtaRepository
	lookup    *ReferenceLookup
	publisher *NotificationPublisher
	logger    logger.Logger
}

// NewEtaNotifier creates a new arrival-time notifier
func NewEtaNotifier(
	etaRepo repository.MovementEtaRepository,
	lookup *ReferenceLookup,
	publisher *NotificationPublisher,
	logger logger.Logger,
) *EtaNotifier {
	return &EtaNotifier{
		etaRepo:   etaRepo,
		lookup:    lookup,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify handles one embarked snapshot. It returns the number of notifications sent.
// Notifications go out before the snapshot is stored, so a failed publish is retried
// when the message is redelivered.
func (n *EtaNotifier) Notify(ctx context.Context, event *entity.MovementEvent, mrns []string) (int, error) {
	log := n.logger.With("movementId", event.MovementID)

	if event.Crossing == nil || strings.TrimSpace(event.Crossing.ArrivalDateTime) == "" {
		log.Info("Embarked movement without arrival time, no notification")
		return 0, nil
	}

	arrival, err := utils.ParseArrival(event.Crossing.ArrivalDateTime)
	if err != nil {
		return 0, &DecodeError{ResourceType: entity.ResourceTypeMovement, Err: err}
	}

	eta := &entity.MovementEta{
		MovementID:      event.MovementID,
		Mrns:            mrns,
		ArrivalDateTime: arrival.Format(utils.ARRIVAL_LAYOUT),
		UpdatedAt:       utils.StoreTime(event.UpdatedDateTime),
	}

	previous, err := n.etaRepo.FindByID(ctx, event.MovementID)
	if err != nil {
		return 0, fmt.Errorf("failed to load movement eta %s: %w", event.MovementID, err)
	}
	if previous != nil && !entity.IsNewer(previous.UpdatedAt, eta.UpdatedAt) {
		log.Debug("Embarked snapshot already handled, no notification", "storedUpdatedAt", previous.UpdatedAt)
		return 0, nil
	}

	sent := 0
	if previous == nil || arrivalLater(previous, arrival) {
		sent, err = n.publish(ctx, event.MovementID, eta, mrns)
		if err != nil {
			return 0, err
		}
	} else {
		log.Debug("Arrival time not later than stored one, no notification",
			"storedArrival", previous.ArrivalDateTime,
			"incomingArrival", eta.ArrivalDateTime)
	}

	if _, err := n.etaRepo.UpsertIfNewer(ctx, eta); err != nil {
		return sent, err
	}
	return sent, nil
}

// arrivalLater reports whether arrival is after the stored one. An unparsable stored
// arrival cannot be compared, so the new one wins.
func arrivalLater(previous *entity.MovementEta, arrival time.Time) bool {
	prevArrival, err := utils.ParseArrival(previous.ArrivalDateTime)
	return err != nil || arrival.After(prevArrival)
}

func (n *EtaNotifier) publish(ctx context.Context, movementID string, eta *entity.MovementEta, mrns []string) (int, error) {
	byMrn, err := n.lookup.ReferencesByMrn(ctx, mrns)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	var notifications []entity.EtaNotification
	for _, mrn := range utils.UniqueStrings(mrns) {
		for _, ref := range byMrn[mrn] {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			notifications = append(notifications, entity.EtaNotification{
				MovementID:      movementID,
				Mrn:             mrn,
				ReferenceNumber: ref,
				ArrivalDateTime: eta.ArrivalDateTime,
				UpdatedAt:       eta.UpdatedAt,
			})
		}
	}

	if len(notifications) == 0 {
		n.logger.Info("No regulatory references for embarked movement", "movementId", movementID, "mrns", mrns)
		return 0, nil
	}

	if err := n.publisher.PublishEta(ctx, notifications); err != nil {
		return 0, err
	}
	return len(notifications), nil
}
