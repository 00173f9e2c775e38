package usecase

import (
	"testing"

	"movement-hold-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func preNotification(indicator string, refs ...entity.ExternalReference) *entity.PreNotificationEvent {
	return &entity.PreNotificationEvent{
		ReferenceNumber:    "CHEDP.GB.2024.1",
		Transit:            entity.TransitDetails{Indicator: indicator},
		ExternalReferences: refs,
	}
}

func TestDetectTransit(t *testing.T) {
	tests := []struct {
		name  string
		event *entity.PreNotificationEvent
		want  TransitResult
	}{
		{
			name:  "transit with tagged reference",
			event: preNotification("YES", entity.ExternalReference{System: "NCTS", Reference: "24gb12345678901234"}),
			want:  TransitResult{Valid: true, IsTransit: true, Mrn: "24GB12345678901234"},
		},
		{
			name: "reference is trimmed and other systems are ignored",
			event: preNotification("yes",
				entity.ExternalReference{System: "ECUSTOMS", Reference: "IGNORED"},
				entity.ExternalReference{System: "ncts", Reference: "  24gb1  "},
			),
			want: TransitResult{Valid: true, IsTransit: true, Mrn: "24GB1"},
		},
		{
			name:  "transit without tagged reference",
			event: preNotification("YES", entity.ExternalReference{System: "ECUSTOMS", Reference: "X"}),
			want:  TransitResult{Valid: true, Reason: ReasonMissingTransitMrn},
		},
		{
			name:  "reference added later",
			event: preNotification("YES_ADD_LATER"),
			want:  TransitResult{Valid: true, Reason: "reference not provided yet"},
		},
		{
			name:  "not a transit",
			event: preNotification("NO"),
			want:  TransitResult{Valid: true},
		},
		{
			name:  "unknown indicator",
			event: preNotification("MAYBE"),
			want:  TransitResult{Reason: ReasonInvalidTransitIndicator},
		},
		{
			name:  "missing indicator",
			event: preNotification(""),
			want:  TransitResult{Reason: ReasonInvalidTransitIndicator},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTransit(tt.event))
		})
	}
}

func TestIsOverrideRequired(t *testing.T) {
	tests := []struct {
		status     string
		inspection string
		want       bool
	}{
		{"validated", "required", false},
		{"VALIDATED", "REQUIRED", false},
		{"Partially_Rejected", "inconclusive", false},
		{"cancelled", "required", false},
		{"deleted", "required", false},
		{"rejected", "required", false},
		{"submitted", "required", true},
		{"in_progress", "Inconclusive", true},
		{"submitted", "not_required", false},
		{"submitted", "", false},
		{"", "required", true},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.inspection, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverrideRequired(tt.status, tt.inspection))
		})
	}
}
