// Package entitlement maps subscription tiers to the capabilities they
// unlock. The catalog is static reference data; resolution has no side
// effects and fails closed.
package entitlement

// Tier identifiers.
const (
	TierBasic      = "basic"
	TierIndividual = "individual"
	TierEnterprise = "enterprise"
)

// Feature names gated by tier.
const (
	FeatureStudyGuide   = "study-guide"
	FeaturePracticeExam = "practice-exam"
	FeatureCPDTracking  = "cpd-tracking"
	FeatureAIAssistant  = "ai-assistant"
	FeatureTeamReports  = "team-reports"
)

// CPDRequirement is a tier's continuing-professional-development duty.
// AnnualHoursRequired of zero means CPD tracking is disabled for the tier.
type CPDRequirement struct {
	Tier                string             `json:"tier"`
	AnnualHoursRequired float64            `json:"annual_hours_required"`
	CategoryMinimums    map[string]float64 `json:"category_minimums,omitempty"`
	RenewalPeriodMonths int                `json:"renewal_period_months"`
}

// Descriptor is the resolved capability set for a tier.
type Descriptor struct {
	Tier               string         `json:"tier"`
	Features           []string       `json:"features"`
	StudyGuideAccess   bool           `json:"study_guide_access"`
	PracticeExamAccess bool           `json:"practice_exam_access"`
	ToolsAccess        []string       `json:"tools_access"`
	ResourcesAccess    []string       `json:"resources_access"`
	CPD                CPDRequirement `json:"cpd"`
}

var catalog = map[string]Descriptor{
	TierBasic: {
		Tier:            TierBasic,
		Features:        []string{},
		ToolsAccess:     []string{},
		ResourcesAccess: []string{"getting-started"},
		CPD:             CPDRequirement{Tier: TierBasic, AnnualHoursRequired: 0},
	},
	TierIndividual: {
		Tier:               TierIndividual,
		Features:           []string{FeatureStudyGuide, FeaturePracticeExam, FeatureCPDTracking, FeatureAIAssistant},
		StudyGuideAccess:   true,
		PracticeExamAccess: true,
		ToolsAccess:        []string{"breach-clock", "dpia-worksheet"},
		ResourcesAccess:    []string{"getting-started", "case-library", "regulator-digest"},
		CPD: CPDRequirement{
			Tier:                TierIndividual,
			AnnualHoursRequired: 20,
			CategoryMinimums:    map[string]float64{"legal-updates": 4},
			RenewalPeriodMonths: 12,
		},
	},
	TierEnterprise: {
		Tier:               TierEnterprise,
		Features:           []string{FeatureStudyGuide, FeaturePracticeExam, FeatureCPDTracking, FeatureAIAssistant, FeatureTeamReports},
		StudyGuideAccess:   true,
		PracticeExamAccess: true,
		ToolsAccess:        []string{"breach-clock", "dpia-worksheet", "vendor-review"},
		ResourcesAccess:    []string{"getting-started", "case-library", "regulator-digest", "policy-templates"},
		CPD: CPDRequirement{
			Tier:                TierEnterprise,
			AnnualHoursRequired: 20,
			CategoryMinimums:    map[string]float64{"legal-updates": 4, "technical": 4},
			RenewalPeriodMonths: 12,
		},
	},
}

// ResolveTier returns the capability descriptor for a tier id. Unknown
// ids resolve to the basic descriptor: an unrecognized tier is treated as
// "not entitled", never as an error.
func ResolveTier(tierID string) Descriptor {
	if d, ok := catalog[tierID]; ok {
		return d
	}
	return catalog[TierBasic]
}

// HasFeature reports whether a tier unlocks a feature.
func HasFeature(tierID, feature string) bool {
	for _, f := range ResolveTier(tierID).Features {
		if f == feature {
			return true
		}
	}
	return false
}

// CPDRequirementFor returns the tier's CPD duty. Basic (and unknown) tiers
// carry a zero-hour requirement, which downstream reads as "satisfied".
func CPDRequirementFor(tierID string) CPDRequirement {
	return ResolveTier(tierID).CPD
}

// Tiers lists the known tier ids.
func Tiers() []string {
	return []string{TierBasic, TierIndividual, TierEnterprise}
}
