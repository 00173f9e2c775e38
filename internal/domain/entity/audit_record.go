package entity

import "time"

// Audit directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Audit message types
const (
	MessageTypeHoldAction = "HoldAction"
)

// AuditRetention is how long audit records live before the store expires them.
const AuditRetention = 24 * time.Hour

// AuditRecord is an append-only record of an inbound message or an outbound action attempt.
type AuditRecord struct {
	ID          string    `json:"id" bson:"_id"`
	Direction   string    `json:"direction" bson:"direction"`
	Target      string    `json:"target" bson:"target"`
	Payload     string    `json:"payload" bson:"payload"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	MessageType string    `json:"messageType,omitempty" bson:"messageType,omitempty"`
}
