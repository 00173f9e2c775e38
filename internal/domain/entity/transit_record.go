package entity

import "time"

// TransitRecord is the correlated state of one regulatory reference.
type TransitRecord struct {
	ReferenceNumber  string    `json:"referenceNumber" bson:"_id"`
	Mrn              string    `json:"mrn,omitempty" bson:"mrn,omitempty"`
	OverrideRequired bool      `json:"overrideRequired" bson:"overrideRequired"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PreNotificationEvent is a pre-notification message for a regulatory reference.
type PreNotificationEvent struct {
	ReferenceNumber    string              `json:"referenceNumber"`
	Status             string              `json:"status"`
	InspectionRequired string              `json:"inspectionRequired"`
	LastUpdated        time.Time           `json:"lastUpdated"`
	Transit            TransitDetails      `json:"transit"`
	ExternalReferences []ExternalReference `json:"externalReferences"`
}

// TransitDetails carries the declared transit indicator.
type TransitDetails struct {
	Indicator string `json:"indicator"`
}

// ExternalReference is a reference held in another system, tagged by system name.
type ExternalReference struct {
	System    string `json:"system"`
	Reference string `json:"reference"`
}
