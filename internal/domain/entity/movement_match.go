package entity

import (
	"fmt"
	"time"
)

// MovementMatch links a movement to a movement reference number. UpdatedAt is the
// source timestamp of the movement snapshot that produced the match.
type MovementMatch struct {
	ID         string    `json:"id" bson:"_id"` // {movementId}:{mrn} - one record per pair
	MovementID string    `json:"movementId" bson:"movementId"`
	Mrn        string    `json:"mrn" bson:"mrn"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewMovementMatch builds a match with its composite key.
func NewMovementMatch(movementID, mrn string, updatedAt time.Time) *MovementMatch {
	return &MovementMatch{
		ID:         MatchKey(movementID, mrn),
		MovementID: movementID,
		Mrn:        mrn,
		UpdatedAt:  updatedAt,
	}
}

// MatchKey returns the unique key of a (movement, mrn) pair.
func MatchKey(movementID, mrn string) string {
	return fmt.Sprintf("%s:%s", movementID, mrn)
}
