package entity

import "time"

// CustomsDeclaration holds the full list of regulatory references declared against an mrn.
// Each accepted declaration replaces the list; it is never merged.
type CustomsDeclaration struct {
	Mrn        string    `json:"mrn" bson:"_id"`
	References []string  `json:"references" bson:"references"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CustomsDeclarationEvent is a customs declaration message. One message may carry
// several declarations.
type CustomsDeclarationEvent struct {
	Declarations []CustomsDeclarationItem `json:"declarations"`
}

// CustomsDeclarationItem is one declaration inside a CustomsDeclarationEvent.
type CustomsDeclarationItem struct {
	Mrn         string    `json:"mrn"`
	LastUpdated time.Time `json:"lastUpdated"`
	References  []string  `json:"references"`
}
