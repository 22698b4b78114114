package alert

import (
	"strings"
	"testing"
)

func TestSeverityRanking(t *testing.T) {
	if SeverityError.Rank() >= SeverityWarning.Rank() || SeverityWarning.Rank() >= SeverityInfo.Rank() {
		t.Fatal("severity ranks must order ERROR < WARNING < INFO")
	}
}

func TestNewFormatsTemplate(t *testing.T) {
	a := New(StageJump, 4, "Lead", "Verbal Commit")
	if !strings.Contains(a.Message, "4") || !strings.Contains(a.Message, "Lead") {
		t.Fatalf("message not formatted: %q", a.Message)
	}
	if a.Severity != SeverityWarning {
		t.Fatalf("severity = %s", a.Severity)
	}
}

func TestNewUnknownIDNeverPanics(t *testing.T) {
	a := New("NOT_A_REAL_ALERT")
	if a.Severity != SeverityError {
		t.Fatal("unknown ids surface as errors")
	}
	if !strings.Contains(a.Message, "NOT_A_REAL_ALERT") {
		t.Fatalf("message should name the unknown id, got %q", a.Message)
	}
}

func TestValidationResultSortingAndFlags(t *testing.T) {
	res := NewValidationResult([]Alert{
		New(TargetDateToday),
		New(FailureRevived, "Lost", "Lead"),
		New(TargetEqualsStage, "Proposal"),
	})

	if got := res.Alerts[0].Severity; got != SeverityError {
		t.Fatalf("first alert severity = %s, want ERROR", got)
	}
	if got := res.Alerts[2].Severity; got != SeverityInfo {
		t.Fatalf("last alert severity = %s, want INFO", got)
	}
	if !res.HasErrors || !res.HasWarnings || !res.HasInfos {
		t.Fatalf("flags not derived: %+v", res)
	}
	if res.IsValid {
		t.Fatal("a result with errors is invalid")
	}
	if !res.AnyRequiresNote() {
		t.Fatal("FailureRevived demands a note")
	}
}

func TestValidationResultSortIsStable(t *testing.T) {
	// Two warnings keep their emission order.
	res := NewValidationResult([]Alert{
		New(StageJump, 3, "Lead", "Negotiation"),
		New(FailureToPending, "On Hold"),
	})
	if res.Alerts[0].ID != StageJump || res.Alerts[1].ID != FailureToPending {
		t.Fatalf("equal-severity order not preserved: %s, %s", res.Alerts[0].ID, res.Alerts[1].ID)
	}
}

func TestEmptyValidationResult(t *testing.T) {
	res := NewValidationResult(nil)
	if !res.IsValid || res.HasErrors || res.HasWarnings || res.HasInfos {
		t.Fatalf("empty result should be valid and flagless: %+v", res)
	}
}

func TestDefinitionsSortedForDisplay(t *testing.T) {
	defs := Definitions()
	if len(defs) != len(registry) {
		t.Fatalf("Definitions() returned %d of %d", len(defs), len(registry))
	}
	for i := 1; i < len(defs); i++ {
		prev, cur := defs[i-1], defs[i]
		if prev.Severity.Rank() > cur.Severity.Rank() {
			t.Fatal("definitions out of severity order")
		}
		if prev.Severity == cur.Severity && prev.ID > cur.ID {
			t.Fatal("definitions out of id order within a severity")
		}
	}
}
