package call

import "strings"

// Topic names one interview subject tracked for coverage. The required
// subset gates interview completion; the rest are informational.
type Topic string

const (
	TopicReferralReason  Topic = "referral_reason"
	TopicSocialHistory   Topic = "social_history"
	TopicADLStatus       Topic = "adl_status"
	TopicIADLStatus      Topic = "iadl_status"
	TopicReviewOfSystems Topic = "review_of_systems"
	TopicEquipment       Topic = "equipment"
	TopicMedications     Topic = "medications"
	TopicAllergies       Topic = "allergies"
	TopicMedicalHistory  Topic = "medical_history"
)

// requiredTopics gates interview completion, in fixed display order.
var requiredTopics = []Topic{
	TopicReferralReason,
	TopicSocialHistory,
	TopicADLStatus,
	TopicIADLStatus,
	TopicReviewOfSystems,
}

// allTopics is every trackable topic in fixed display order.
var allTopics = []Topic{
	TopicReferralReason,
	TopicSocialHistory,
	TopicADLStatus,
	TopicIADLStatus,
	TopicReviewOfSystems,
	TopicEquipment,
	TopicMedications,
	TopicAllergies,
	TopicMedicalHistory,
}

// RequiredTopics returns the fixed required-topic set.
func RequiredTopics() []Topic {
	topics := make([]Topic, len(requiredTopics))
	copy(topics, requiredTopics)
	return topics
}

// MarkCovered adds a topic to the coverage set. Idempotent; the set
// only grows.
func (c *Call) MarkCovered(topic Topic) {
	c.CoveredTopics[topic] = true
}

// Covered returns the covered topics in fixed display order.
func (c *Call) Covered() []Topic {
	covered := []Topic{}
	for _, topic := range allTopics {
		if c.CoveredTopics[topic] {
			covered = append(covered, topic)
		}
	}
	return covered
}

// UncoveredTopics returns the required topics not yet covered, in
// fixed display order.
func (c *Call) UncoveredTopics() []Topic {
	uncovered := []Topic{}
	for _, topic := range requiredTopics {
		if !c.CoveredTopics[topic] {
			uncovered = append(uncovered, topic)
		}
	}
	return uncovered
}

// Section identifies a clinical section with a per-item assessment
// breakdown.
type Section string

const (
	SectionADL             Section = "adl"
	SectionIADL            Section = "iadl"
	SectionReviewOfSystems Section = "review_of_systems"
)

// Breakdown partitions a section's fixed items into assessed and
// not-assessed, preserving enumeration order. The partition is
// exhaustive and disjoint.
type Breakdown struct {
	Assessed    []string `json:"assessed"`
	NotAssessed []string `json:"not_assessed"`
}

// Complete reports whether every item of the section was assessed.
func (b Breakdown) Complete() bool {
	return len(b.NotAssessed) == 0
}

// AssessmentBreakdown partitions the named section's fixed items. A
// section can be covered (one field recorded) while most of its items
// remain unassessed; this is how that gap is surfaced.
func (c *Call) AssessmentBreakdown(section Section) Breakdown {
	breakdown := Breakdown{Assessed: []string{}, NotAssessed: []string{}}
	switch section {
	case SectionADL:
		for _, activity := range adlActivities {
			if c.ADL.Level(activity) != NotAssessed {
				breakdown.Assessed = append(breakdown.Assessed, activity)
			} else {
				breakdown.NotAssessed = append(breakdown.NotAssessed, activity)
			}
		}
	case SectionIADL:
		for _, activity := range iadlActivities {
			if c.IADL.Level(activity) != NotAssessed {
				breakdown.Assessed = append(breakdown.Assessed, activity)
			} else {
				breakdown.NotAssessed = append(breakdown.NotAssessed, activity)
			}
		}
	case SectionReviewOfSystems:
		for _, screen := range rosScreens {
			name := strings.ReplaceAll(screen, "_", " ")
			if c.ReviewOfSystems.screenValue(screen) != "" {
				breakdown.Assessed = append(breakdown.Assessed, name)
			} else {
				breakdown.NotAssessed = append(breakdown.NotAssessed, name)
			}
		}
	}
	return breakdown
}
