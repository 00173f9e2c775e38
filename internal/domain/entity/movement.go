package entity

import "time"

// Movement states
const (
	MovementStateOpen      = "OPEN"
	MovementStateCheckedIn = "CHECKED_IN"
	MovementStateEmbarked  = "EMBARKED"
	MovementStateCompleted = "COMPLETED"
)

// Movement is the latest known snapshot of a goods movement as reported by its source system.
// Payload and UpdatedAt are only ever replaced together by a newer snapshot; HoldRequired is
// owned by the hold reconciler.
type Movement struct {
	MovementID   string                 `json:"movementId" bson:"_id"`
	State        string                 `json:"state" bson:"state"`
	Payload      map[string]interface{} `json:"payload" bson:"payload"`
	UpdatedAt    time.Time              `json:"updatedAt" bson:"updatedAt"`
	HoldRequired *bool                  `json:"holdRequired,omitempty" bson:"holdRequired,omitempty"`
}

// IsHeld reports the stored hold flag, treating an unset flag as not held.
func (m *Movement) IsHeld() bool {
	return m.HoldRequired != nil && *m.HoldRequired
}

// MovementEta is the arrival-time snapshot kept for embarked movements.
type MovementEta struct {
	MovementID      string    `json:"movementId" bson:"_id"`
	Mrns            []string  `json:"mrns" bson:"mrns"`
	ArrivalDateTime string    `json:"arrivalDateTime" bson:"arrivalDateTime"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// MovementEvent is the typed view of a movement snapshot message. The full message body is
// kept separately as the free-form payload.
type MovementEvent struct {
	MovementID      string       `json:"movementId"`
	State           string       `json:"state"`
	UpdatedDateTime time.Time    `json:"updatedDateTime"`
	Declarations    Declarations `json:"declarations"`
	Crossing        *Crossing    `json:"crossing,omitempty"`
}

// Declarations lists the movement reference numbers declared against a movement.
type Declarations struct {
	Mrns []string `json:"mrns"`
}

// Crossing describes the planned crossing of an embarked movement.
type Crossing struct {
	RouteID         string `json:"routeId"`
	ArrivalDateTime string `json:"arrivalDateTime"`
}

// IsNewer reports whether a snapshot stamped incoming should replace a stored one stamped
// stored. Callers handle the absent record themselves; a stored zero time is still a value.
func IsNewer(stored, incoming time.Time) bool {
	return stored.Before(incoming)
}
