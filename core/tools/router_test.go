package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/caretone/intake-core/core/call"
)

func newTestRouter(t *testing.T) (*Router, *call.Call) {
	t.Helper()
	c := call.New("test-call")
	return NewRouter(c, WithClock(func() time.Time {
		return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	})), c
}

func TestHandleUnknownTool(t *testing.T) {
	router, _ := newTestRouter(t)

	result := router.Handle(context.Background(), "transfer_call", "{}")
	if result.Success {
		t.Fatalf("expected failure for unknown tool, got success")
	}
	if result.Error != "Unknown tool: transfer_call" {
		t.Fatalf("expected unknown tool error, got %q", result.Error)
	}
}

func TestHandleMalformedArguments(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameRecordADLStatus, "{not json")
	if result.Success {
		t.Fatalf("expected failure for malformed arguments, got success")
	}
	if c.ADL.Level("bathing") != call.NotAssessed {
		t.Fatalf("expected no state change on malformed arguments")
	}
}

func TestReferralReasonWithAdditionalConcerns(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameRecordReferralReason,
		`{"reason": "recent hip fracture", "additional_concerns": "worried about stairs"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Message != "Referral reason recorded." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	want := "recent hip fracture Additional concerns: worried about stairs"
	if c.ReferralReason != want {
		t.Fatalf("expected referral reason %q, got %q", want, c.ReferralReason)
	}
	if !c.CoveredTopics[call.TopicReferralReason] {
		t.Fatalf("expected referral_reason to be marked covered")
	}
}

func TestReferralReasonMissingReason(t *testing.T) {
	router, _ := newTestRouter(t)

	result := router.Handle(context.Background(), NameRecordReferralReason, `{}`)
	if result.Success {
		t.Fatalf("expected failure for missing reason")
	}
}

func TestTableValidationRejectsUnknownTags(t *testing.T) {
	cases := []struct {
		name      string
		tool      string
		arguments string
		wantErr   string
	}{
		{
			name:      "adl activity",
			tool:      NameRecordADLStatus,
			arguments: `{"activity": "swimming", "level": "independent"}`,
			wantErr:   "Unknown ADL activity: swimming",
		},
		{
			name:      "adl level",
			tool:      NameRecordADLStatus,
			arguments: `{"activity": "bathing", "level": "sometimes"}`,
			wantErr:   "Unknown independence level: sometimes",
		},
		{
			name:      "iadl activity",
			tool:      NameRecordIADLStatus,
			arguments: `{"activity": "gardening", "level": "dependent"}`,
			wantErr:   "Unknown IADL activity: gardening",
		},
		{
			name:      "social history category",
			tool:      NameRecordSocialHistory,
			arguments: `{"category": "diet", "details": "low salt"}`,
			wantErr:   "Unknown social history category: diet",
		},
		{
			name:      "equipment type",
			tool:      NameRecordEquipment,
			arguments: `{"equipment_type": "stairlift"}`,
			wantErr:   "Unknown equipment type: stairlift",
		},
		{
			name:      "review of systems",
			tool:      NameRecordReviewOfSystems,
			arguments: `{"system": "cardiac", "findings": "none"}`,
			wantErr:   "Unknown system: cardiac",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, c := newTestRouter(t)
			result := router.Handle(context.Background(), tc.tool, tc.arguments)
			if result.Success {
				t.Fatalf("expected failure, got success")
			}
			if result.Error != tc.wantErr {
				t.Fatalf("expected error %q, got %q", tc.wantErr, result.Error)
			}
			if len(c.Covered()) != 0 {
				t.Fatalf("expected no coverage marks on rejected invocation")
			}
		})
	}
}

func TestADLStatusRecordsLevelAndNotes(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameRecordADLStatus,
		`{"activity": "bathing", "level": "needs_assistance", "notes": "uses shower chair"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Message != "ADL status for bathing recorded as needs_assistance." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Recorded != "adl.bathing" {
		t.Fatalf("expected recorded adl.bathing, got %q", result.Recorded)
	}
	if c.ADL.Bathing != call.NeedsAssistance {
		t.Fatalf("expected bathing needs_assistance, got %q", c.ADL.Bathing)
	}
	if c.ADL.Notes != "bathing: uses shower chair" {
		t.Fatalf("unexpected notes %q", c.ADL.Notes)
	}
	if !c.CoveredTopics[call.TopicADLStatus] {
		t.Fatalf("expected adl_status to be marked covered")
	}
}

func TestMedicationAccumulates(t *testing.T) {
	router, c := newTestRouter(t)

	router.Handle(context.Background(), NameRecordMedication,
		`{"name": "lisinopril", "dose": "10mg", "frequency": "once daily"}`)
	result := router.Handle(context.Background(), NameRecordMedication,
		`{"name": "metformin"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if len(c.Medications) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(c.Medications))
	}
	if got := result.Fields["total_medications"]; got != 2 {
		t.Fatalf("expected total_medications 2, got %v", got)
	}
}

func TestUrgentConcernDoesNotChangeStatus(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameFlagUrgentConcern,
		`{"concern_type": "chest_pain", "description": "intermittent chest pain since yesterday"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if c.Status != call.StatusInProgress {
		t.Fatalf("expected status in_progress after urgent concern, got %q", c.Status)
	}
	if !c.HasUrgentConcerns() {
		t.Fatalf("expected urgent concern to be recorded")
	}
	if c.UrgentConcerns[0].Timestamp.IsZero() {
		t.Fatalf("expected concern timestamp to be set")
	}
}

func TestSpeakerInfoSetsIdentification(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameRecordSpeakerInfo,
		`{"speaker_type": "caregiver", "caregiver_name": "Maria", "caregiver_relationship": "daughter"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if c.Speaker != call.SpeakerCaregiver {
		t.Fatalf("expected caregiver speaker, got %q", c.Speaker)
	}
	if c.CaregiverName != "Maria" || c.CaregiverRelationship != "daughter" {
		t.Fatalf("expected caregiver identification to be stored")
	}
}

func TestCheckCoverageStatusPayload(t *testing.T) {
	router, c := newTestRouter(t)

	router.Handle(context.Background(), NameRecordReferralReason, `{"reason": "fall at home"}`)
	router.Handle(context.Background(), NameRecordADLStatus, `{"activity": "bathing", "level": "independent"}`)

	result := router.Handle(context.Background(), NameCheckCoverageStatus, "")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	for _, key := range []string{
		"topics_covered", "topics_remaining", "adl_status", "iadl_status",
		"review_of_systems", "all_required_covered", "all_items_assessed", "message",
	} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected payload key %q, got %v", key, payload)
		}
	}
	if payload["all_required_covered"] != false {
		t.Fatalf("expected all_required_covered false with uncovered topics")
	}
	if payload["all_items_assessed"] != false {
		t.Fatalf("expected all_items_assessed false with unassessed items")
	}
	if c.Ended() {
		t.Fatalf("coverage check must not end the call")
	}
}

func TestEndInterviewStatusMapping(t *testing.T) {
	cases := []struct {
		reason string
		want   call.Status
	}{
		{"completed", call.StatusCompleted},
		{"callback_requested", call.StatusCallbackRequested},
		{"patient_declined", call.StatusAbandoned},
		{"urgent_escalation", call.StatusUrgentEscalation},
		{"technical_issue", call.StatusAbandoned},
	}

	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			router, c := newTestRouter(t)
			result := router.Handle(context.Background(), NameEndInterview,
				`{"reason": "`+tc.reason+`", "summary": "done"}`)
			if !result.Success {
				t.Fatalf("expected success, got error %q", result.Error)
			}
			if c.Status != tc.want {
				t.Fatalf("expected status %q, got %q", tc.want, c.Status)
			}
			if !c.Ended() {
				t.Fatalf("expected call to be ended")
			}
		})
	}
}

func TestEndInterviewRejectsUnknownReason(t *testing.T) {
	router, c := newTestRouter(t)

	result := router.Handle(context.Background(), NameEndInterview, `{"reason": "bored"}`)
	if result.Success {
		t.Fatalf("expected failure for unknown end reason")
	}
	if c.Ended() {
		t.Fatalf("expected call to remain in progress")
	}
}

func TestEndInterviewExactlyOnce(t *testing.T) {
	router, c := newTestRouter(t)

	first := router.Handle(context.Background(), NameEndInterview, `{"reason": "completed"}`)
	if !first.Success {
		t.Fatalf("expected first end to succeed, got error %q", first.Error)
	}
	endedAt := *c.EndedAt

	second := router.Handle(context.Background(), NameEndInterview, `{"reason": "callback_requested"}`)
	if second.Success {
		t.Fatalf("expected second end to be rejected")
	}
	if second.Error != "interview already ended" {
		t.Fatalf("unexpected error %q", second.Error)
	}
	if c.Status != call.StatusCompleted {
		t.Fatalf("expected status to stay completed, got %q", c.Status)
	}
	if !c.EndedAt.Equal(endedAt) {
		t.Fatalf("expected ended timestamp to be immutable")
	}
}

func TestEndInterviewReportsOutstandingTopics(t *testing.T) {
	router, c := newTestRouter(t)

	router.Handle(context.Background(), NameRecordReferralReason, `{"reason": "weakness"}`)
	result := router.Handle(context.Background(), NameEndInterview, `{"reason": "callback_requested"}`)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	remaining, ok := result.Fields["topics_not_covered"].([]call.Topic)
	if !ok {
		t.Fatalf("expected topics_not_covered to be a topic list, got %T", result.Fields["topics_not_covered"])
	}
	if len(remaining) != 4 {
		t.Fatalf("expected 4 outstanding topics, got %v", remaining)
	}
	if result.Fields["has_urgent_concerns"] != false {
		t.Fatalf("expected has_urgent_concerns false")
	}
	_ = c
}

func TestFullInterviewScenario(t *testing.T) {
	router, c := newTestRouter(t)
	ctx := context.Background()

	steps := []struct {
		tool      string
		arguments string
	}{
		{NameRecordSpeakerInfo, `{"speaker_type": "patient", "patient_name": "Ruth Harmon"}`},
		{NameRecordReferralReason, `{"reason": "discharged after hip replacement"}`},
		{NameRecordSocialHistory, `{"category": "living_situation", "details": "lives alone in a two-story house"}`},
		{NameRecordADLStatus, `{"activity": "bathing", "level": "needs_assistance"}`},
		{NameRecordIADLStatus, `{"activity": "shopping", "level": "dependent"}`},
		{NameRecordEquipment, `{"equipment_type": "gait_aid", "details": "walker with wheels"}`},
		{NameRecordReviewOfSystems, `{"system": "falls", "findings": "two falls in the last month"}`},
		{NameRecordMedication, `{"name": "lisinopril", "dose": "10mg"}`},
		{NameRecordAllergy, `{"allergen": "penicillin", "reaction": "rash"}`},
		{NameRecordMedicalHistory, `{"condition": "hypertension", "status": "managed"}`},
	}
	for _, step := range steps {
		if result := router.Handle(ctx, step.tool, step.arguments); !result.Success {
			t.Fatalf("step %s failed: %s", step.tool, result.Error)
		}
	}

	if remaining := c.UncoveredTopics(); len(remaining) != 0 {
		t.Fatalf("expected all required topics covered, got remaining %v", remaining)
	}

	result := router.Handle(ctx, NameEndInterview, `{"reason": "completed", "summary": "full intake"}`)
	if !result.Success {
		t.Fatalf("expected end to succeed, got error %q", result.Error)
	}
	if c.Status != call.StatusCompleted {
		t.Fatalf("expected completed status, got %q", c.Status)
	}
	if c.Equipment.GaitAid != "walker with wheels" {
		t.Fatalf("expected gait aid to be recorded, got %q", c.Equipment.GaitAid)
	}
}
