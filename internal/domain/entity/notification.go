package entity

import "time"

// Notification kinds
const (
	NotificationKindEta   = "eta"
	NotificationKindMatch = "match"
)

// EtaNotification tells a regulatory reference owner when an embarked movement will arrive.
type EtaNotification struct {
	MovementID      string    `json:"movementId"`
	Mrn             string    `json:"mrn"`
	ReferenceNumber string    `json:"referenceNumber"`
	ArrivalDateTime string    `json:"arrivalDateTime"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MatchNotification tells a regulatory reference owner that a movement now carries its mrn.
type MatchNotification struct {
	MovementID      string    `json:"movementId"`
	Mrn             string    `json:"mrn"`
	ReferenceNumber string    `json:"referenceNumber"`
	MatchedAt       time.Time `json:"matchedAt"`
}

// OutboundMessage is one message handed to the outbound messaging collaborator.
type OutboundMessage struct {
	ID         string
	Body       string
	Attributes map[string]string
}
