package call

import (
	"time"

	"github.com/caretone/intake-core/internal/utils"
)

// IndependenceLevel grades a functional activity. NotAssessed is the
// sentinel that distinguishes "never asked" from an assessed-normal
// answer.
type IndependenceLevel string

const (
	Independent     IndependenceLevel = "independent"
	NeedsAssistance IndependenceLevel = "needs_assistance"
	Dependent       IndependenceLevel = "dependent"
	NotAssessed     IndependenceLevel = "not_assessed"
)

// ParseIndependenceLevel maps a wire value onto a recordable level.
// NotAssessed is not accepted from the wire; it only ever appears as
// the default.
func ParseIndependenceLevel(s string) (IndependenceLevel, bool) {
	switch IndependenceLevel(s) {
	case Independent, NeedsAssistance, Dependent:
		return IndependenceLevel(s), true
	}
	return "", false
}

// SocialHistory covers living situation, supports, activities, goals
// of care, and substance use.
type SocialHistory struct {
	LivingSituation   string `json:"living_situation"`
	HomeType          string `json:"home_type"`
	StairsInHome      *bool  `json:"stairs_in_home"`
	PrimaryCaregiver  string `json:"primary_caregiver"`
	SupportSystem     string `json:"support_system"`
	HobbiesActivities string `json:"hobbies_activities"`
	GoalsOfCare       string `json:"goals_of_care"`
	TobaccoUse        string `json:"tobacco_use"`
	AlcoholUse        string `json:"alcohol_use"`
	OtherSubstances   string `json:"other_substances"`
	Notes             string `json:"notes"`
}

// SetCategory records details under a closed category tag. Unknown
// tags are rejected rather than silently creating fields.
func (s *SocialHistory) SetCategory(category, details string) bool {
	switch category {
	case "living_situation":
		s.LivingSituation = details
	case "support_system":
		s.SupportSystem = details
	case "activities":
		s.HobbiesActivities = details
	case "goals_of_care":
		s.GoalsOfCare = details
	case "tobacco":
		s.TobaccoUse = details
	case "alcohol":
		s.AlcoholUse = details
	case "other_substances":
		s.OtherSubstances = details
	default:
		return false
	}
	return true
}

// ADLStatus tracks the six basic activities of daily living.
type ADLStatus struct {
	Bathing    IndependenceLevel `json:"bathing"`
	Dressing   IndependenceLevel `json:"dressing"`
	Eating     IndependenceLevel `json:"eating"`
	Ambulation IndependenceLevel `json:"ambulation"`
	Transfers  IndependenceLevel `json:"transfers"`
	Toileting  IndependenceLevel `json:"toileting"`
	Notes      string            `json:"notes"`
}

// adlActivities fixes the assessment enumeration order.
var adlActivities = []string{"bathing", "dressing", "eating", "ambulation", "transfers", "toileting"}

func newADLStatus() ADLStatus {
	return ADLStatus{
		Bathing:    NotAssessed,
		Dressing:   NotAssessed,
		Eating:     NotAssessed,
		Ambulation: NotAssessed,
		Transfers:  NotAssessed,
		Toileting:  NotAssessed,
	}
}

// Set records a level for the named activity; unknown activities are
// rejected.
func (a *ADLStatus) Set(activity string, level IndependenceLevel) bool {
	switch activity {
	case "bathing":
		a.Bathing = level
	case "dressing":
		a.Dressing = level
	case "eating":
		a.Eating = level
	case "ambulation":
		a.Ambulation = level
	case "transfers":
		a.Transfers = level
	case "toileting":
		a.Toileting = level
	default:
		return false
	}
	return true
}

// Level looks up the recorded level; the zero value reads as the
// NotAssessed sentinel.
func (a *ADLStatus) Level(activity string) IndependenceLevel {
	var level IndependenceLevel
	switch activity {
	case "bathing":
		level = a.Bathing
	case "dressing":
		level = a.Dressing
	case "eating":
		level = a.Eating
	case "ambulation":
		level = a.Ambulation
	case "transfers":
		level = a.Transfers
	case "toileting":
		level = a.Toileting
	}
	if level == "" {
		return NotAssessed
	}
	return level
}

// AppendNote accumulates activity-prefixed notes.
func (a *ADLStatus) AppendNote(activity, note string) {
	a.Notes = appendNote(a.Notes, activity, note)
}

// IADLStatus tracks the instrumental activities of daily living. Eight
// fields are recordable; six gate the assessment breakdown.
type IADLStatus struct {
	Shopping               IndependenceLevel `json:"shopping"`
	MealPreparation        IndependenceLevel `json:"meal_preparation"`
	Housework              IndependenceLevel `json:"housework"`
	SchedulingAppointments IndependenceLevel `json:"scheduling_appointments"`
	ManagingFinances       IndependenceLevel `json:"managing_finances"`
	DrivingTransportation  IndependenceLevel `json:"driving_transportation"`
	MedicationManagement   IndependenceLevel `json:"medication_management"`
	TelephoneUse           IndependenceLevel `json:"telephone_use"`
	Notes                  string            `json:"notes"`
}

func newIADLStatus() IADLStatus {
	return IADLStatus{
		Shopping:               NotAssessed,
		MealPreparation:        NotAssessed,
		Housework:              NotAssessed,
		SchedulingAppointments: NotAssessed,
		ManagingFinances:       NotAssessed,
		DrivingTransportation:  NotAssessed,
		MedicationManagement:   NotAssessed,
		TelephoneUse:           NotAssessed,
	}
}

// iadlActivities is the gating subset used for coverage breakdowns.
var iadlActivities = []string{
	"shopping", "meal_preparation", "housework",
	"managing_finances", "driving_transportation", "medication_management",
}

// Set records a level for the named activity; unknown activities are
// rejected.
func (i *IADLStatus) Set(activity string, level IndependenceLevel) bool {
	switch activity {
	case "shopping":
		i.Shopping = level
	case "meal_preparation":
		i.MealPreparation = level
	case "housework":
		i.Housework = level
	case "scheduling_appointments":
		i.SchedulingAppointments = level
	case "managing_finances":
		i.ManagingFinances = level
	case "driving_transportation":
		i.DrivingTransportation = level
	case "medication_management":
		i.MedicationManagement = level
	case "telephone_use":
		i.TelephoneUse = level
	default:
		return false
	}
	return true
}

// Level looks up the recorded level; the zero value reads as the
// NotAssessed sentinel.
func (i *IADLStatus) Level(activity string) IndependenceLevel {
	var level IndependenceLevel
	switch activity {
	case "shopping":
		level = i.Shopping
	case "meal_preparation":
		level = i.MealPreparation
	case "housework":
		level = i.Housework
	case "scheduling_appointments":
		level = i.SchedulingAppointments
	case "managing_finances":
		level = i.ManagingFinances
	case "driving_transportation":
		level = i.DrivingTransportation
	case "medication_management":
		level = i.MedicationManagement
	case "telephone_use":
		level = i.TelephoneUse
	}
	if level == "" {
		return NotAssessed
	}
	return level
}

// AppendNote accumulates activity-prefixed notes.
func (i *IADLStatus) AppendNote(activity, note string) {
	i.Notes = appendNote(i.Notes, activity, note)
}

// ReviewOfSystems holds the key geriatric review-of-systems screens.
type ReviewOfSystems struct {
	MemoryConcerns string `json:"memory_concerns"`
	MoodDepression string `json:"mood_depression"`
	FallsHistory   string `json:"falls_history"`
	SleepIssues    string `json:"sleep_issues"`
	Pain           string `json:"pain"`
	VisionChanges  string `json:"vision_changes"`
	HearingChanges string `json:"hearing_changes"`
	UrinaryIssues  string `json:"urinary_issues"`
	BowelIssues    string `json:"bowel_issues"`
	AppetiteWeight string `json:"appetite_weight"`
	Notes          string `json:"notes"`
}

// rosScreens is the gating subset used for coverage breakdowns, in
// fixed order. Breakdown items render with spaces for readability.
var rosScreens = []string{"memory_concerns", "mood_depression", "falls_history", "sleep_issues", "pain"}

// SetFinding records findings under a closed system tag; unknown tags
// are rejected.
func (r *ReviewOfSystems) SetFinding(system, findings string) bool {
	switch system {
	case "memory":
		r.MemoryConcerns = findings
	case "mood":
		r.MoodDepression = findings
	case "falls":
		r.FallsHistory = findings
	case "sleep":
		r.SleepIssues = findings
	case "pain":
		r.Pain = findings
	case "vision":
		r.VisionChanges = findings
	case "hearing":
		r.HearingChanges = findings
	case "urinary":
		r.UrinaryIssues = findings
	case "bowel":
		r.BowelIssues = findings
	case "appetite_weight":
		r.AppetiteWeight = findings
	default:
		return false
	}
	return true
}

func (r *ReviewOfSystems) screenValue(screen string) string {
	switch screen {
	case "memory_concerns":
		return r.MemoryConcerns
	case "mood_depression":
		return r.MoodDepression
	case "falls_history":
		return r.FallsHistory
	case "sleep_issues":
		return r.SleepIssues
	case "pain":
		return r.Pain
	}
	return ""
}

// Equipment records assistive devices and home-safety items. The
// boolean fields are tri-state: nil means never asked.
type Equipment struct {
	GaitAid          string   `json:"gait_aid"`
	HearingAids      *bool    `json:"hearing_aids"`
	Glasses          *bool    `json:"glasses"`
	GrabBars         *bool    `json:"grab_bars"`
	ShowerChair      *bool    `json:"shower_chair"`
	RaisedToiletSeat *bool    `json:"raised_toilet_seat"`
	HospitalBed      *bool    `json:"hospital_bed"`
	Oxygen           *bool    `json:"oxygen"`
	Other            []string `json:"other"`
	Notes            string   `json:"notes"`
}

// Record stores one equipment observation under a closed type tag.
// Gait aids keep free text, boolean items flip to true with optional
// notes, and "other" items accumulate in a list.
func (e *Equipment) Record(equipmentType, details string) bool {
	switch equipmentType {
	case "gait_aid":
		if details == "" {
			details = "uses gait aid"
		}
		e.GaitAid = details
	case "hearing_aids":
		e.HearingAids = utils.Ptr(true)
	case "glasses":
		e.Glasses = utils.Ptr(true)
	case "grab_bars":
		e.GrabBars = utils.Ptr(true)
	case "shower_chair":
		e.ShowerChair = utils.Ptr(true)
	case "raised_toilet_seat":
		e.RaisedToiletSeat = utils.Ptr(true)
	case "hospital_bed":
		e.HospitalBed = utils.Ptr(true)
	case "oxygen":
		e.Oxygen = utils.Ptr(true)
	case "other":
		e.Other = append(e.Other, details)
		return true
	default:
		return false
	}
	if equipmentType != "gait_aid" && details != "" {
		e.Notes = appendNote(e.Notes, equipmentType, details)
	}
	return true
}

// Medication is a single reported medication.
type Medication struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Purpose   string `json:"purpose"`
	Notes     string `json:"notes"`
}

// Allergy is a single reported allergy or adverse reaction.
type Allergy struct {
	Allergen string `json:"allergen"`
	Reaction string `json:"reaction"`
	Severity string `json:"severity"`
}

// MedicalHistoryItem is a single condition or past surgery.
type MedicalHistoryItem struct {
	Condition     string `json:"condition"`
	YearDiagnosed string `json:"year_diagnosed"`
	CurrentStatus string `json:"current_status"`
	Notes         string `json:"notes"`
}

// UrgentConcern is a clinical red flag raised mid-interview.
type UrgentConcern struct {
	ConcernType string    `json:"concern_type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	ActionTaken string    `json:"action_taken"`
}

func appendNote(existing, prefix, note string) string {
	line := prefix + ": " + note
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
