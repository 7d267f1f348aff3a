package call

import (
	"fmt"
	"strings"
	"time"
)

// Meta summarizes the call for the document header.
type Meta struct {
	CallID            string      `json:"call_id"`
	StartedAt         time.Time   `json:"started_at"`
	EndedAt           *time.Time  `json:"ended_at"`
	Status            Status      `json:"status"`
	SpeakerType       SpeakerType `json:"speaker_type"`
	TopicsCovered     []Topic     `json:"topics_covered"`
	TopicsNotCovered  []Topic     `json:"topics_not_covered"`
	HasUrgentConcerns bool        `json:"has_urgent_concerns"`
}

// PatientInfo carries identification gathered during the call.
type PatientInfo struct {
	Name                  string `json:"name"`
	DateOfBirth           string `json:"date_of_birth"`
	CaregiverName         string `json:"caregiver_name"`
	CaregiverRelationship string `json:"caregiver_relationship"`
}

// FunctionalStatus groups the ADL and IADL sections.
type FunctionalStatus struct {
	ADL  ADLStatus  `json:"adl"`
	IADL IADLStatus `json:"iadl"`
}

// Document is the structured record handed to the persistence
// collaborator once the call ends. Enum values serialize as their
// string codes and timestamps as ISO-8601.
type Document struct {
	Meta             Meta                 `json:"meta"`
	Patient          PatientInfo          `json:"patient"`
	ReferralReason   string               `json:"referral_reason"`
	SocialHistory    SocialHistory        `json:"social_history"`
	FunctionalStatus FunctionalStatus     `json:"functional_status"`
	Equipment        Equipment            `json:"equipment"`
	ReviewOfSystems  ReviewOfSystems      `json:"review_of_systems"`
	Medications      []Medication         `json:"medications"`
	Allergies        []Allergy            `json:"allergies"`
	MedicalHistory   []MedicalHistoryItem `json:"medical_history"`
	UrgentConcerns   []UrgentConcern      `json:"urgent_concerns"`
	Transcript       []TranscriptEntry    `json:"transcript"`
}

// Document builds the output record from the current state.
func (c *Call) Document() Document {
	return Document{
		Meta: Meta{
			CallID:            c.ID,
			StartedAt:         c.StartedAt,
			EndedAt:           c.EndedAt,
			Status:            c.Status,
			SpeakerType:       c.Speaker,
			TopicsCovered:     c.Covered(),
			TopicsNotCovered:  c.UncoveredTopics(),
			HasUrgentConcerns: c.HasUrgentConcerns(),
		},
		Patient: PatientInfo{
			Name:                  c.PatientName,
			DateOfBirth:           c.PatientDateOfBirth,
			CaregiverName:         c.CaregiverName,
			CaregiverRelationship: c.CaregiverRelationship,
		},
		ReferralReason:   c.ReferralReason,
		SocialHistory:    c.SocialHistory,
		FunctionalStatus: FunctionalStatus{ADL: c.ADL, IADL: c.IADL},
		Equipment:        c.Equipment,
		ReviewOfSystems:  c.ReviewOfSystems,
		Medications:      append([]Medication{}, c.Medications...),
		Allergies:        append([]Allergy{}, c.Allergies...),
		MedicalHistory:   append([]MedicalHistoryItem{}, c.MedicalHistory...),
		UrgentConcerns:   append([]UrgentConcern{}, c.UrgentConcerns...),
		Transcript:       append([]TranscriptEntry{}, c.Transcript...),
	}
}

// Summary renders a human-readable digest of the call for consoles.
func (c *Call) Summary() string {
	var b strings.Builder
	divider := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "%s\nCALL SUMMARY\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "Call ID: %s\n", c.ID)
	fmt.Fprintf(&b, "Status: %s\n", c.Status)
	fmt.Fprintf(&b, "Speaker: %s\n", c.Speaker)
	if c.PatientName != "" {
		fmt.Fprintf(&b, "Patient: %s\n", c.PatientName)
	}

	covered := topicList(c.Covered())
	if covered == "" {
		covered = "None"
	}
	fmt.Fprintf(&b, "\nTopics Covered: %s\n", covered)
	if uncovered := c.UncoveredTopics(); len(uncovered) > 0 {
		fmt.Fprintf(&b, "Topics NOT Covered: %s\n", topicList(uncovered))
	}

	if c.HasUrgentConcerns() {
		b.WriteString("\nURGENT CONCERNS:\n")
		for _, concern := range c.UrgentConcerns {
			fmt.Fprintf(&b, "  - %s: %s\n", concern.ConcernType, concern.Description)
		}
	}

	reason := c.ReferralReason
	if reason == "" {
		reason = "Not recorded"
	}
	fmt.Fprintf(&b, "\nReferral Reason: %s\n", reason)

	if len(c.Medications) > 0 {
		fmt.Fprintf(&b, "\nMedications (%d):\n", len(c.Medications))
		for _, med := range c.Medications {
			line := "  - " + med.Name
			if med.Dose != "" {
				line += " " + med.Dose
			}
			if med.Frequency != "" {
				line += " " + med.Frequency
			}
			b.WriteString(line + "\n")
		}
	}

	if len(c.Allergies) > 0 {
		fmt.Fprintf(&b, "\nAllergies (%d):\n", len(c.Allergies))
		for _, allergy := range c.Allergies {
			line := "  - " + allergy.Allergen
			if allergy.Reaction != "" {
				line += " (" + allergy.Reaction + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + divider + "\n")
	return b.String()
}

func topicList(topics []Topic) string {
	names := make([]string, len(topics))
	for i, topic := range topics {
		names[i] = string(topic)
	}
	return strings.Join(names, ", ")
}
