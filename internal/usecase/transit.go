package usecase

import (
	"strings"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/utils"
)

// Declared transit indicator values
const (
	TransitIndicatorNo          = "NO"
	TransitIndicatorYesAddLater = "YES_ADD_LATER"
	TransitIndicatorYes         = "YES"
)

// Reasons a pre-notification is not treated as a resolved transit
const (
	ReasonReferenceNotProvided    = "reference not provided yet"
	ReasonMissingTransitMrn       = "transit reference missing"
	ReasonInvalidTransitIndicator = "invalid transit indicator"
)

// TransitResult is the outcome of transit detection. Valid is false only for an
// indicator value outside the known set.
type TransitResult struct {
	Valid     bool
	IsTransit bool
	Mrn       string
	Reason    string
}

// Both tables are matched case-insensitively; keys are stored lower-case.
var (
	completeStatuses = newCaseInsensitiveSet(
		"validated",
		"rejected",
		"partially_rejected",
		"cancelled",
		"deleted",
	)
	inspectionRequiredValues = newCaseInsensitiveSet(
		"required",
		"inconclusive",
	)
)

type caseInsensitiveSet map[string]struct{}

func newCaseInsensitiveSet(values ...string) caseInsensitiveSet {
	set := make(caseInsensitiveSet, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

func (s caseInsensitiveSet) Contains(value string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// DetectTransit decides from the declared indicator whether the pre-notification covers
// a transit, and extracts its normalized mrn from the NCTS-tagged external reference.
func DetectTransit(event *entity.PreNotificationEvent) TransitResult {
	switch strings.ToUpper(strings.TrimSpace(event.Transit.Indicator)) {
	case TransitIndicatorNo:
		return TransitResult{Valid: true}
	case TransitIndicatorYesAddLater:
		return TransitResult{Valid: true, Reason: ReasonReferenceNotProvided}
	case TransitIndicatorYes:
		for _, ref := range event.ExternalReferences {
			if !strings.EqualFold(strings.TrimSpace(ref.System), utils.NCTS_SYSTEM) {
				continue
			}
			if mrn := utils.NormalizeReference(ref.Reference); mrn != "" {
				return TransitResult{Valid: true, IsTransit: true, Mrn: mrn}
			}
		}
		return TransitResult{Valid: true, Reason: ReasonMissingTransitMrn}
	default:
		return TransitResult{Reason: ReasonInvalidTransitIndicator}
	}
}

// IsOverrideRequired decides whether a hold must be asserted for a declaration.
// A complete status wins over any inspection value.
func IsOverrideRequired(status, inspectionRequired string) bool {
	if completeStatuses.Contains(status) {
		return false
	}
	return inspectionRequiredValues.Contains(inspectionRequired)
}
