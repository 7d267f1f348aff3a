package tools

import (
	"github.com/invopop/jsonschema"
)

// Definition is one tool declaration in the shape the realtime session
// configuration expects.
type Definition struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Definitions returns the full tool set declared to the remote agent,
// in schema order. Parameter schemas are reflected from the argument
// structs so the wire contract and the decoder can never drift apart.
func Definitions() []Definition {
	return []Definition{
		define(NameRecordReferralReason,
			"Record the primary reason the patient was referred for home care. Call this as soon as the reason is clear.",
			referralReasonArgs{}),
		define(NameRecordSocialHistory,
			"Record social history details such as living situation, support system, activities, or goals of care.",
			socialHistoryArgs{}),
		define(NameRecordADLStatus,
			"Record the patient's level of independence with an activity of daily living (ADL).",
			adlStatusArgs{}),
		define(NameRecordIADLStatus,
			"Record the patient's level of independence with an instrumental activity of daily living (IADL).",
			iadlStatusArgs{}),
		define(NameRecordEquipment,
			"Record medical equipment or assistive devices the patient uses or has at home.",
			equipmentArgs{}),
		define(NameRecordReviewOfSystems,
			"Record review of systems findings such as memory, mood, falls, sleep, pain, vision, or hearing.",
			reviewOfSystemsArgs{}),
		define(NameRecordMedication,
			"Record a medication the patient is taking. Call once per medication.",
			medicationArgs{}),
		define(NameRecordAllergy,
			"Record a medication or other allergy. Call once per allergy.",
			allergyArgs{}),
		define(NameRecordMedicalHistory,
			"Record a significant medical condition or past surgery. Call once per condition.",
			medicalHistoryArgs{}),
		define(NameFlagUrgentConcern,
			"Flag an urgent clinical concern that needs immediate attention, such as chest pain, trouble breathing, a recent fall with injury, or thoughts of self-harm.",
			urgentConcernArgs{}),
		define(NameRecordSpeakerInfo,
			"Record who you are speaking with: the patient directly, or a caregiver or family member.",
			speakerInfoArgs{}),
		define(NameCheckCoverageStatus,
			"Check which required interview topics and assessment items are still outstanding. Call this before wrapping up.",
			checkCoverageArgs{}),
		define(NameEndInterview,
			"End the interview. Call this after the closing summary, or earlier if the patient declines, asks for a callback, or an urgent escalation takes over.",
			endInterviewArgs{}),
	}
}

func define(name, description string, args any) Definition {
	return Definition{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters:  reflectParameters(args),
	}
}

// reflectParameters builds a self-contained parameters schema: no $ref
// indirection, no $schema header, required fields derived from the
// absence of omitempty.
func reflectParameters(args any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}
	schema := reflector.Reflect(args)
	schema.Version = ""
	if schema.Required == nil {
		schema.Required = []string{}
	}
	return schema
}
