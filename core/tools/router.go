// Package tools routes structured tool invocations from the remote
// agent onto call-state mutations and builds the acknowledgment each
// invocation sends back down the channel.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caretone/intake-core/core/call"
	"go.opentelemetry.io/otel/attribute"
)

// Router dispatches (name, arguments) pairs onto exactly one
// call-state mutation each. It never fails outright: every outcome,
// including unknown tools and malformed arguments, is a structured
// Result the session keeps running on.
type Router struct {
	call *call.Call
	now  func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// NewRouter creates a router bound to one call's state.
func NewRouter(c *call.Call, opts ...Option) *Router {
	r := &Router{call: c, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle executes one tool invocation synchronously. Handlers never
// perform blocking I/O, so dispatching a tool can never stall event
// consumption.
func (r *Router) Handle(ctx context.Context, name, arguments string) Result {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	result := r.dispatch(ctx, name, arguments)
	if result.Success {
		logger.InfoContext(ctx, "tool executed", "tool", name, "recorded", result.Recorded)
	} else {
		logger.WarnContext(ctx, "tool rejected", "tool", name, "error", result.Error)
	}
	return result
}

func (r *Router) dispatch(ctx context.Context, name, arguments string) Result {
	switch name {
	case NameRecordReferralReason:
		args, err := decode[referralReasonArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordReferralReason(args)
	case NameRecordSocialHistory:
		args, err := decode[socialHistoryArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordSocialHistory(args)
	case NameRecordADLStatus:
		args, err := decode[adlStatusArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordADLStatus(args)
	case NameRecordIADLStatus:
		args, err := decode[iadlStatusArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordIADLStatus(args)
	case NameRecordEquipment:
		args, err := decode[equipmentArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordEquipment(args)
	case NameRecordReviewOfSystems:
		args, err := decode[reviewOfSystemsArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordReviewOfSystems(args)
	case NameRecordMedication:
		args, err := decode[medicationArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordMedication(args)
	case NameRecordAllergy:
		args, err := decode[allergyArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordAllergy(args)
	case NameRecordMedicalHistory:
		args, err := decode[medicalHistoryArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordMedicalHistory(args)
	case NameFlagUrgentConcern:
		args, err := decode[urgentConcernArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.flagUrgentConcern(ctx, args)
	case NameRecordSpeakerInfo:
		args, err := decode[speakerInfoArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.recordSpeakerInfo(args)
	case NameCheckCoverageStatus:
		return r.checkCoverageStatus()
	case NameEndInterview:
		args, err := decode[endInterviewArgs](arguments)
		if err != nil {
			return failure("%v", err)
		}
		return r.endInterview(args)
	default:
		return failure("Unknown tool: %s", name)
	}
}

func decode[T any](arguments string) (T, error) {
	var args T
	if strings.TrimSpace(arguments) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return args, fmt.Errorf("invalid tool arguments: %v", err)
	}
	return args, nil
}

func (r *Router) recordReferralReason(args referralReasonArgs) Result {
	if args.Reason == "" {
		return failure("missing required field: reason")
	}
	r.call.SetReferralReason(args.Reason, args.AdditionalConcerns)
	r.call.MarkCovered(call.TopicReferralReason)
	return success("referral_reason", "Referral reason recorded.")
}

func (r *Router) recordSocialHistory(args socialHistoryArgs) Result {
	if args.Details == "" {
		return failure("missing required field: details")
	}
	if !r.call.SocialHistory.SetCategory(args.Category, args.Details) {
		return failure("Unknown social history category: %s", args.Category)
	}
	r.call.MarkCovered(call.TopicSocialHistory)
	return success(
		"social_history."+args.Category,
		fmt.Sprintf("Social history (%s) recorded.", args.Category),
	)
}

func (r *Router) recordADLStatus(args adlStatusArgs) Result {
	level, ok := call.ParseIndependenceLevel(args.Level)
	if !ok {
		return failure("Unknown independence level: %s", args.Level)
	}
	if !r.call.ADL.Set(args.Activity, level) {
		return failure("Unknown ADL activity: %s", args.Activity)
	}
	if args.Notes != "" {
		r.call.ADL.AppendNote(args.Activity, args.Notes)
	}
	r.call.MarkCovered(call.TopicADLStatus)
	return success(
		"adl."+args.Activity,
		fmt.Sprintf("ADL status for %s recorded as %s.", args.Activity, args.Level),
	).withField("level", args.Level)
}

func (r *Router) recordIADLStatus(args iadlStatusArgs) Result {
	level, ok := call.ParseIndependenceLevel(args.Level)
	if !ok {
		return failure("Unknown independence level: %s", args.Level)
	}
	if !r.call.IADL.Set(args.Activity, level) {
		return failure("Unknown IADL activity: %s", args.Activity)
	}
	if args.Notes != "" {
		r.call.IADL.AppendNote(args.Activity, args.Notes)
	}
	r.call.MarkCovered(call.TopicIADLStatus)
	return success(
		"iadl."+args.Activity,
		fmt.Sprintf("IADL status for %s recorded as %s.", args.Activity, args.Level),
	).withField("level", args.Level)
}

func (r *Router) recordEquipment(args equipmentArgs) Result {
	if !r.call.Equipment.Record(args.EquipmentType, args.Details) {
		return failure("Unknown equipment type: %s", args.EquipmentType)
	}
	r.call.MarkCovered(call.TopicEquipment)
	return success(
		"equipment."+args.EquipmentType,
		fmt.Sprintf("Equipment (%s) recorded.", args.EquipmentType),
	)
}

func (r *Router) recordReviewOfSystems(args reviewOfSystemsArgs) Result {
	if args.Findings == "" {
		return failure("missing required field: findings")
	}
	if !r.call.ReviewOfSystems.SetFinding(args.System, args.Findings) {
		return failure("Unknown system: %s", args.System)
	}
	r.call.MarkCovered(call.TopicReviewOfSystems)
	return success(
		"review_of_systems."+args.System,
		fmt.Sprintf("Review of systems (%s) recorded.", args.System),
	)
}

func (r *Router) recordMedication(args medicationArgs) Result {
	if args.Name == "" {
		return failure("missing required field: name")
	}
	total := r.call.AddMedication(call.Medication{
		Name:      args.Name,
		Dose:      args.Dose,
		Frequency: args.Frequency,
		Purpose:   args.Purpose,
	})
	r.call.MarkCovered(call.TopicMedications)
	return success("medication", fmt.Sprintf("Medication %q recorded.", args.Name)).
		withField("medication", args.Name).
		withField("total_medications", total)
}

func (r *Router) recordAllergy(args allergyArgs) Result {
	if args.Allergen == "" {
		return failure("missing required field: allergen")
	}
	total := r.call.AddAllergy(call.Allergy{
		Allergen: args.Allergen,
		Reaction: args.Reaction,
		Severity: args.Severity,
	})
	r.call.MarkCovered(call.TopicAllergies)
	return success("allergy", fmt.Sprintf("Allergy to %q recorded.", args.Allergen)).
		withField("allergen", args.Allergen).
		withField("total_allergies", total)
}

func (r *Router) recordMedicalHistory(args medicalHistoryArgs) Result {
	if args.Condition == "" {
		return failure("missing required field: condition")
	}
	total := r.call.AddMedicalHistory(call.MedicalHistoryItem{
		Condition:     args.Condition,
		YearDiagnosed: args.Year,
		CurrentStatus: args.Status,
		Notes:         args.Notes,
	})
	r.call.MarkCovered(call.TopicMedicalHistory)
	return success("medical_history", fmt.Sprintf("Medical history %q recorded.", args.Condition)).
		withField("condition", args.Condition).
		withField("total_conditions", total)
}

func (r *Router) flagUrgentConcern(ctx context.Context, args urgentConcernArgs) Result {
	if args.ConcernType == "" {
		return failure("missing required field: concern_type")
	}
	if args.Description == "" {
		return failure("missing required field: description")
	}
	r.call.AddUrgentConcern(call.UrgentConcern{
		ConcernType: args.ConcernType,
		Description: args.Description,
		Timestamp:   r.now(),
	})
	logger.WarnContext(ctx, "urgent concern flagged",
		"concern_type", args.ConcernType, "description", args.Description)

	return success("urgent_concern",
		"URGENT: Concern has been flagged for clinical review. "+
			"If this is a medical emergency, advise the patient to call 911.",
	).withField("concern_type", args.ConcernType)
}

func (r *Router) recordSpeakerInfo(args speakerInfoArgs) Result {
	switch args.SpeakerType {
	case "patient":
		r.call.Speaker = call.SpeakerPatient
	case "caregiver":
		r.call.Speaker = call.SpeakerCaregiver
	default:
		r.call.Speaker = call.SpeakerUnknown
	}
	if args.PatientName != "" {
		r.call.PatientName = args.PatientName
	}
	if args.CaregiverName != "" {
		r.call.CaregiverName = args.CaregiverName
	}
	if args.CaregiverRelationship != "" {
		r.call.CaregiverRelationship = args.CaregiverRelationship
	}
	return success("speaker_info", fmt.Sprintf("Speaking with %s.", args.SpeakerType)).
		withField("speaker_type", args.SpeakerType)
}

func (r *Router) checkCoverageStatus() Result {
	adl := r.call.AssessmentBreakdown(call.SectionADL)
	iadl := r.call.AssessmentBreakdown(call.SectionIADL)
	ros := r.call.AssessmentBreakdown(call.SectionReviewOfSystems)
	uncovered := r.call.UncoveredTopics()

	var gaps []string
	if len(adl.NotAssessed) > 0 {
		gaps = append(gaps, "ADLs not yet asked: "+strings.Join(adl.NotAssessed, ", "))
	}
	if len(iadl.NotAssessed) > 0 {
		gaps = append(gaps, "IADLs not yet asked: "+strings.Join(iadl.NotAssessed, ", "))
	}
	if len(ros.NotAssessed) > 0 {
		gaps = append(gaps, "Review of systems not yet asked: "+strings.Join(ros.NotAssessed, ", "))
	}

	message := "All key items have been assessed. Ready to wrap up."
	if len(gaps) > 0 {
		message = "Items still to cover: " + strings.Join(gaps, "; ")
	}

	return Result{Success: true, Message: message, Fields: map[string]any{
		"topics_covered":       r.call.Covered(),
		"topics_remaining":     uncovered,
		"adl_status":           adl,
		"iadl_status":          iadl,
		"review_of_systems":    ros,
		"all_required_covered": len(uncovered) == 0,
		"all_items_assessed":   adl.Complete() && iadl.Complete() && ros.Complete(),
	}}
}

// terminalStatus maps an end reason onto a terminal call status.
func terminalStatus(reason string) (call.Status, bool) {
	switch reason {
	case "completed":
		return call.StatusCompleted, true
	case "callback_requested":
		return call.StatusCallbackRequested, true
	case "patient_declined":
		return call.StatusAbandoned, true
	case "urgent_escalation":
		return call.StatusUrgentEscalation, true
	case "technical_issue":
		return call.StatusAbandoned, true
	}
	return "", false
}

func (r *Router) endInterview(args endInterviewArgs) Result {
	status, ok := terminalStatus(args.Reason)
	if !ok {
		return failure("Unknown end reason: %s", args.Reason)
	}
	// Re-entrant terminations are rejected; the first terminal
	// transition is the only one.
	if !r.call.End(status, r.now()) {
		return failure("interview already ended")
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Interview ended: %s.", args.Reason),
		Fields: map[string]any{
			"status":              r.call.Status,
			"topics_not_covered":  r.call.UncoveredTopics(),
			"has_urgent_concerns": r.call.HasUrgentConcerns(),
			"summary":             args.Summary,
		},
	}
}
