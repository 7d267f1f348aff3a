// Package call holds the aggregate clinical record for a single intake
// call: identification, clinical sections, append-only entry lists, the
// conversation transcript, and topic-coverage tracking.
//
// A Call is mutated by exactly one event-consumption loop at a time.
// Concurrent readers must work off Snapshot copies.
package call

import (
	"time"

	"github.com/jinzhu/copier"
)

// Status is the lifecycle state of an intake call.
type Status string

const (
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"
	StatusCallbackRequested Status = "callback_requested"
	StatusUrgentEscalation  Status = "urgent_escalation"
	StatusAbandoned         Status = "abandoned"
)

// SpeakerType identifies who is answering the interview questions.
type SpeakerType string

const (
	SpeakerPatient   SpeakerType = "patient"
	SpeakerCaregiver SpeakerType = "caregiver"
	SpeakerUnknown   SpeakerType = "unknown"
)

// TranscriptEntry is one completed turn of the conversation.
type TranscriptEntry struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Call is the aggregate root for one intake interview.
//
// CoveredTopics is exported so deep copies work; treat it as read-only
// and mutate it through MarkCovered only.
type Call struct {
	ID        string      `json:"call_id"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at"`
	Status    Status      `json:"status"`
	Speaker   SpeakerType `json:"speaker_type"`

	PatientName           string `json:"patient_name"`
	PatientDateOfBirth    string `json:"patient_date_of_birth"`
	CaregiverName         string `json:"caregiver_name"`
	CaregiverRelationship string `json:"caregiver_relationship"`

	ReferralReason  string          `json:"referral_reason"`
	SocialHistory   SocialHistory   `json:"social_history"`
	ADL             ADLStatus       `json:"adl_status"`
	IADL            IADLStatus      `json:"iadl_status"`
	ReviewOfSystems ReviewOfSystems `json:"review_of_systems"`
	Equipment       Equipment       `json:"equipment"`

	Medications    []Medication         `json:"medications"`
	Allergies      []Allergy            `json:"allergies"`
	MedicalHistory []MedicalHistoryItem `json:"medical_history"`
	UrgentConcerns []UrgentConcern      `json:"urgent_concerns"`

	Transcript []TranscriptEntry `json:"transcript"`

	CoveredTopics map[Topic]bool `json:"-"`
}

// Option configures a new Call.
type Option func(*Call)

// WithPatientName seeds the patient name, typically from a scheduling
// system, before the interview starts.
func WithPatientName(name string) Option {
	return func(c *Call) { c.PatientName = name }
}

// New creates an in-progress Call with the given immutable identifier.
func New(id string, opts ...Option) *Call {
	c := &Call{
		ID:            id,
		StartedAt:     time.Now(),
		Status:        StatusInProgress,
		Speaker:       SpeakerUnknown,
		ADL:           newADLStatus(),
		IADL:          newIADLStatus(),
		Equipment:     Equipment{Other: []string{}},
		CoveredTopics: map[Topic]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ended reports whether the call has reached a terminal status.
func (c *Call) Ended() bool {
	return c.EndedAt != nil
}

// End transitions the call into a terminal status exactly once. The
// second and subsequent calls are no-ops and return false.
func (c *Call) End(status Status, at time.Time) bool {
	if c.Ended() {
		return false
	}
	c.Status = status
	c.EndedAt = &at
	return true
}

// AppendTranscript records one completed turn. Entries are append-only;
// corrections arrive as new entries.
func (c *Call) AppendTranscript(speaker, text string) TranscriptEntry {
	entry := TranscriptEntry{Speaker: speaker, Text: text, Timestamp: time.Now()}
	c.Transcript = append(c.Transcript, entry)
	return entry
}

// SetReferralReason records the referral reason, folding any additional
// concerns into the same free-text field.
func (c *Call) SetReferralReason(reason, additionalConcerns string) {
	c.ReferralReason = reason
	if additionalConcerns != "" {
		c.ReferralReason += " Additional concerns: " + additionalConcerns
	}
}

// AddMedication appends an entry and returns the new list length.
func (c *Call) AddMedication(m Medication) int {
	c.Medications = append(c.Medications, m)
	return len(c.Medications)
}

// AddAllergy appends an entry and returns the new list length.
func (c *Call) AddAllergy(a Allergy) int {
	c.Allergies = append(c.Allergies, a)
	return len(c.Allergies)
}

// AddMedicalHistory appends an entry and returns the new list length.
func (c *Call) AddMedicalHistory(item MedicalHistoryItem) int {
	c.MedicalHistory = append(c.MedicalHistory, item)
	return len(c.MedicalHistory)
}

// AddUrgentConcern appends an urgent concern. Flagging a concern never
// changes the call status; escalation is an orthogonal signal.
func (c *Call) AddUrgentConcern(concern UrgentConcern) int {
	c.UrgentConcerns = append(c.UrgentConcerns, concern)
	return len(c.UrgentConcerns)
}

// HasUrgentConcerns reports whether any urgent concern was flagged.
func (c *Call) HasUrgentConcerns() bool {
	return len(c.UrgentConcerns) > 0
}

// Snapshot returns a deep copy safe for concurrent readers while the
// consumption loop keeps mutating the original.
func (c *Call) Snapshot() Call {
	var snapshot Call
	if err := copier.CopyWithOption(&snapshot, c, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on invalid input types; fall back to the
		// shallow copy so observers still get something coherent.
		snapshot = *c
	}
	covered := make(map[Topic]bool, len(c.CoveredTopics))
	for topic := range c.CoveredTopics {
		covered[topic] = true
	}
	snapshot.CoveredTopics = covered
	return snapshot
}
