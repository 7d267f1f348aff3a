package call

import "testing"

func TestUncoveredTopicsShrinksMonotonically(t *testing.T) {
	c := New("abc123")

	if got := len(c.UncoveredTopics()); got != len(requiredTopics) {
		t.Fatalf("expected all %d required topics uncovered initially, got %d", len(requiredTopics), got)
	}

	previous := len(c.UncoveredTopics())
	marks := []Topic{
		TopicReferralReason,
		TopicSocialHistory,
		TopicSocialHistory, // repeat must not grow anything back
		TopicADLStatus,
		TopicMedications, // non-required topic must not affect the required set
		TopicIADLStatus,
		TopicReviewOfSystems,
	}
	for _, topic := range marks {
		c.MarkCovered(topic)
		remaining := len(c.UncoveredTopics())
		if remaining > previous {
			t.Fatalf("uncovered set grew from %d to %d after marking %q", previous, remaining, topic)
		}
		previous = remaining
	}

	if got := c.UncoveredTopics(); len(got) != 0 {
		t.Fatalf("expected empty uncovered set after all required topics marked, got %v", got)
	}
}

func TestUncoveredTopicsNotEmptyUntilAllRequiredMarked(t *testing.T) {
	c := New("abc123")

	for _, topic := range []Topic{TopicReferralReason, TopicSocialHistory, TopicADLStatus, TopicIADLStatus} {
		c.MarkCovered(topic)
	}
	c.MarkCovered(TopicEquipment)
	c.MarkCovered(TopicMedications)

	uncovered := c.UncoveredTopics()
	if len(uncovered) != 1 || uncovered[0] != TopicReviewOfSystems {
		t.Fatalf("expected only %q uncovered, got %v", TopicReviewOfSystems, uncovered)
	}
}

func TestCoveredReturnsFixedOrder(t *testing.T) {
	c := New("abc123")
	c.MarkCovered(TopicMedications)
	c.MarkCovered(TopicReferralReason)
	c.MarkCovered(TopicADLStatus)

	covered := c.Covered()
	want := []Topic{TopicReferralReason, TopicADLStatus, TopicMedications}
	if len(covered) != len(want) {
		t.Fatalf("expected %d covered topics, got %d", len(want), len(covered))
	}
	for i := range want {
		if covered[i] != want[i] {
			t.Fatalf("expected covered[%d] = %q, got %q", i, want[i], covered[i])
		}
	}
}

func TestAssessmentBreakdownIsExhaustiveAndDisjoint(t *testing.T) {
	c := New("abc123")
	c.ADL.Set("bathing", Independent)
	c.IADL.Set("shopping", NeedsAssistance)
	c.IADL.Set("telephone_use", Independent) // recordable but not gating
	c.ReviewOfSystems.SetFinding("memory", "some forgetfulness")

	testCases := []struct {
		section Section
		total   int
	}{
		{section: SectionADL, total: 6},
		{section: SectionIADL, total: 6},
		{section: SectionReviewOfSystems, total: 5},
	}

	for _, testCase := range testCases {
		breakdown := c.AssessmentBreakdown(testCase.section)
		if got := len(breakdown.Assessed) + len(breakdown.NotAssessed); got != testCase.total {
			t.Fatalf("section %s: expected %d items total, got %d", testCase.section, testCase.total, got)
		}
		seen := map[string]bool{}
		for _, item := range append(append([]string{}, breakdown.Assessed...), breakdown.NotAssessed...) {
			if seen[item] {
				t.Fatalf("section %s: item %q appears in both partitions", testCase.section, item)
			}
			seen[item] = true
		}
	}
}

func TestAssessmentBreakdownSurfacesCoverageGap(t *testing.T) {
	c := New("abc123")
	c.ADL.Set("bathing", Independent)
	c.MarkCovered(TopicADLStatus)

	for _, topic := range c.UncoveredTopics() {
		if topic == TopicADLStatus {
			t.Fatalf("expected adl_status topic covered")
		}
	}

	breakdown := c.AssessmentBreakdown(SectionADL)
	if len(breakdown.Assessed) != 1 || breakdown.Assessed[0] != "bathing" {
		t.Fatalf("expected only bathing assessed, got %v", breakdown.Assessed)
	}
	if len(breakdown.NotAssessed) != 5 {
		t.Fatalf("expected 5 ADL items not assessed, got %v", breakdown.NotAssessed)
	}
}

func TestReviewOfSystemsBreakdownUsesReadableNames(t *testing.T) {
	c := New("abc123")
	c.ReviewOfSystems.SetFinding("falls", "two falls this year")

	breakdown := c.AssessmentBreakdown(SectionReviewOfSystems)
	if len(breakdown.Assessed) != 1 || breakdown.Assessed[0] != "falls history" {
		t.Fatalf("expected assessed item %q, got %v", "falls history", breakdown.Assessed)
	}
}

func TestIADLBreakdownIgnoresNonGatingFields(t *testing.T) {
	c := New("abc123")
	c.IADL.Set("scheduling_appointments", Independent)
	c.IADL.Set("telephone_use", Independent)

	breakdown := c.AssessmentBreakdown(SectionIADL)
	if len(breakdown.Assessed) != 0 {
		t.Fatalf("expected non-gating IADL fields to not count as assessed, got %v", breakdown.Assessed)
	}
}
