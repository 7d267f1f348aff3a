package tools

// Tool names, exactly as the remote agent is prompted with them.
const (
	NameRecordReferralReason  = "record_referral_reason"
	NameRecordSocialHistory   = "record_social_history"
	NameRecordADLStatus       = "record_adl_status"
	NameRecordIADLStatus      = "record_iadl_status"
	NameRecordEquipment       = "record_equipment"
	NameRecordReviewOfSystems = "record_review_of_systems"
	NameRecordMedication      = "record_medication"
	NameRecordAllergy         = "record_allergy"
	NameRecordMedicalHistory  = "record_medical_history"
	NameFlagUrgentConcern     = "flag_urgent_concern"
	NameRecordSpeakerInfo     = "record_speaker_info"
	NameCheckCoverageStatus   = "check_coverage_status"
	NameEndInterview          = "end_interview"
)

// Names lists every tool in schema order.
func Names() []string {
	return []string{
		NameRecordReferralReason,
		NameRecordSocialHistory,
		NameRecordADLStatus,
		NameRecordIADLStatus,
		NameRecordEquipment,
		NameRecordReviewOfSystems,
		NameRecordMedication,
		NameRecordAllergy,
		NameRecordMedicalHistory,
		NameFlagUrgentConcern,
		NameRecordSpeakerInfo,
		NameCheckCoverageStatus,
		NameEndInterview,
	}
}

// SuppressesContinuation reports whether a tool's acknowledgment must
// NOT be followed by a response trigger. Ending the interview already
// produces a closing turn; triggering another one duplicates the
// goodbye. This is a per-tool flag, not a general policy.
func SuppressesContinuation(name string) bool {
	return name == NameEndInterview
}

// The argument structs below are the single source of truth for each
// tool's wire schema: json tags name the fields, omitempty marks the
// optional ones, and jsonschema tags carry enums and descriptions for
// the generated parameter schemas.

type referralReasonArgs struct {
	Reason             string `json:"reason" jsonschema:"description=The primary reason for referral in the patient's own words or summarized"`
	AdditionalConcerns string `json:"additional_concerns,omitempty" jsonschema:"description=Any additional concerns mentioned beyond the primary reason"`
}

type socialHistoryArgs struct {
	Category string `json:"category" jsonschema:"enum=living_situation,enum=support_system,enum=activities,enum=goals_of_care,enum=tobacco,enum=alcohol,enum=other_substances,description=Which aspect of social history this covers"`
	Details  string `json:"details" jsonschema:"description=The information provided about this category"`
}

type adlStatusArgs struct {
	Activity string `json:"activity" jsonschema:"enum=bathing,enum=dressing,enum=eating,enum=ambulation,enum=transfers,enum=toileting,description=Which ADL activity"`
	Level    string `json:"level" jsonschema:"enum=independent,enum=needs_assistance,enum=dependent,description=Level of independence"`
	Notes    string `json:"notes,omitempty" jsonschema:"description=Additional details about assistance needed or circumstances"`
}

type iadlStatusArgs struct {
	Activity string `json:"activity" jsonschema:"enum=shopping,enum=meal_preparation,enum=housework,enum=scheduling_appointments,enum=managing_finances,enum=driving_transportation,enum=medication_management,enum=telephone_use,description=Which IADL activity"`
	Level    string `json:"level" jsonschema:"enum=independent,enum=needs_assistance,enum=dependent,description=Level of independence"`
	Notes    string `json:"notes,omitempty" jsonschema:"description=Additional details about who helps or how"`
}

type equipmentArgs struct {
	EquipmentType string `json:"equipment_type" jsonschema:"enum=gait_aid,enum=hearing_aids,enum=glasses,enum=grab_bars,enum=shower_chair,enum=raised_toilet_seat,enum=hospital_bed,enum=oxygen,enum=other,description=Type of equipment"`
	Details       string `json:"details,omitempty" jsonschema:"description=Specifics such as 'walker with wheels' or 'uses oxygen at night'"`
}

type reviewOfSystemsArgs struct {
	System   string `json:"system" jsonschema:"enum=memory,enum=mood,enum=falls,enum=sleep,enum=pain,enum=vision,enum=hearing,enum=urinary,enum=bowel,enum=appetite_weight,description=Which system or symptom area"`
	Findings string `json:"findings" jsonschema:"description=What the patient reported about this system"`
}

type medicationArgs struct {
	Name      string `json:"name" jsonschema:"description=Medication name (brand or generic)"`
	Dose      string `json:"dose,omitempty" jsonschema:"description=Dose if known such as '10mg' or 'one pill'"`
	Frequency string `json:"frequency,omitempty" jsonschema:"description=How often taken such as 'once daily' or 'twice a day'"`
	Purpose   string `json:"purpose,omitempty" jsonschema:"description=What the patient thinks it's for"`
}

type allergyArgs struct {
	Allergen string `json:"allergen" jsonschema:"description=What the patient is allergic to"`
	Reaction string `json:"reaction,omitempty" jsonschema:"description=What happens when exposed (rash or swelling or anaphylaxis etc.)"`
	Severity string `json:"severity,omitempty" jsonschema:"enum=mild,enum=moderate,enum=severe,enum=unknown,description=Severity of the reaction"`
}

type medicalHistoryArgs struct {
	Condition string `json:"condition" jsonschema:"description=Name of the condition or surgery"`
	Year      string `json:"year,omitempty" jsonschema:"description=When diagnosed or when surgery occurred"`
	Status    string `json:"status,omitempty" jsonschema:"enum=active,enum=resolved,enum=managed,enum=unknown,description=Current status of the condition"`
	Notes     string `json:"notes,omitempty" jsonschema:"description=Additional details"`
}

type urgentConcernArgs struct {
	ConcernType string `json:"concern_type" jsonschema:"enum=chest_pain,enum=breathing_difficulty,enum=fall_with_injury,enum=suicidal_ideation,enum=abuse_concern,enum=acute_confusion,enum=other_emergency,description=Type of urgent concern"`
	Description string `json:"description" jsonschema:"description=Details about the concern"`
}

type speakerInfoArgs struct {
	SpeakerType           string `json:"speaker_type" jsonschema:"enum=patient,enum=caregiver,description=Whether speaking with the patient directly or a caregiver"`
	PatientName           string `json:"patient_name,omitempty" jsonschema:"description=Patient's name if provided"`
	CaregiverName         string `json:"caregiver_name,omitempty" jsonschema:"description=Caregiver's name if applicable"`
	CaregiverRelationship string `json:"caregiver_relationship,omitempty" jsonschema:"description=Caregiver's relationship to patient (spouse or daughter etc.)"`
}

type checkCoverageArgs struct{}

type endInterviewArgs struct {
	Reason  string `json:"reason" jsonschema:"enum=completed,enum=callback_requested,enum=patient_declined,enum=urgent_escalation,enum=technical_issue,description=Why the interview is ending"`
	Summary string `json:"summary,omitempty" jsonschema:"description=Brief summary of what was covered"`
}
