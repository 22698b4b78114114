package transition

import (
	"strings"
	"testing"
	"time"

	"stagegate/domain/alert"
	"stagegate/domain/core"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func evaluateAt(t *testing.T, in TransitionInput, history []HistoryRecord, isNew bool) EvaluationResult {
	t.Helper()
	engine := NewEngineAt(pipelineCatalog(t), fixedClock)
	return engine.Evaluate(in, history, isNew)
}

func hasAlert(v alert.ValidationResult, id string) bool {
	for _, a := range v.Alerts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func findAlert(t *testing.T, v alert.ValidationResult, id string) alert.Alert {
	t.Helper()
	for _, a := range v.Alerts {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("alert %s not raised; got %v", id, alertIDs(v))
	return alert.Alert{}
}

func alertIDs(v alert.ValidationResult) []string {
	out := make([]string, 0, len(v.Alerts))
	for _, a := range v.Alerts {
		out = append(out, a.ID)
	}
	return out
}

func historyRow(entity string, evType EventType, tone RecommitTone, target *core.StageID, targetDate *core.Timestamp, at time.Time) HistoryRecord {
	return HistoryRecord{
		ID:         core.RecordID(core.NewID()),
		EntityID:   core.EntityID(entity),
		Type:       evType,
		ToStageID:  target,
		TargetDate: targetDate,
		Tone:       tone,
		RecordedAt: core.NewTimestamp(at),
	}
}

// anchor history gives the history-gated rules something to run against
// without triggering any of them.
func anchorHistory() []HistoryRecord {
	return []HistoryRecord{
		historyRow("e1", EventProgress, ToneNone, sid("lead"), nil, testNow.AddDate(0, -2, 0)),
	}
}

func TestValidateCleanCommitRaisesNothing(t *testing.T) {
	// Target four stages out with a sane date: no alerts at all.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("qualified"),
		NewStageID:       sid("qualified"),
		NewTargetStageID: sid("negotiation"),
		NewTargetDate:    ts(testNow.AddDate(0, 0, 30)),
	}, nil, false)

	assertEvents(t, DetectionResult{Events: res.Events}, EventCommit)
	if len(res.Validation.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alertIDs(res.Validation))
	}
	if !res.Validation.IsValid {
		t.Fatal("clean commit should be valid")
	}
}

func TestValidateTargetBehindStage(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("lead"),
		NewStageID:       sid("negotiation"),
		NewTargetStageID: sid("qualified"),
	}, nil, false)

	a := findAlert(t, res.Validation, alert.TargetBehindStage)
	if a.Severity != alert.SeverityError {
		t.Fatalf("severity = %s, want ERROR", a.Severity)
	}
	if res.Validation.IsValid {
		t.Fatal("errors must invalidate the result")
	}
}

func TestValidateTargetEqualsStage(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("lead"),
		NewStageID:       sid("qualified"),
		NewTargetStageID: sid("qualified"),
	}, nil, false)

	findAlert(t, res.Validation, alert.TargetEqualsStage)
}

func TestValidateDateWithoutTargetStage(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID: sid("lead"),
		NewStageID:     sid("lead"),
		NewTargetDate:  ts(testNow.AddDate(0, 0, 10)),
	}, nil, false)

	findAlert(t, res.Validation, alert.TargetDateWithoutStage)
}

func TestValidateTargetTypeRules(t *testing.T) {
	// Targeting the failure stage demands confirmation.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("negotiation"),
		NewStageID:       sid("negotiation"),
		NewTargetStageID: sid("lost"),
	}, nil, false)
	a := findAlert(t, res.Validation, alert.TargetNeedsConfirm)
	if a.Severity != alert.SeverityWarning {
		t.Fatalf("severity = %s, want WARNING", a.Severity)
	}

	// A neutral stage is a parked state, never a goal.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("negotiation"),
		NewStageID:       sid("negotiation"),
		NewTargetStageID: sid("on_hold"),
	}, nil, false)
	a = findAlert(t, res.Validation, alert.TargetNotTargetable)
	if a.Severity != alert.SeverityError {
		t.Fatalf("severity = %s, want ERROR", a.Severity)
	}
}

func TestValidateTemporalSanity(t *testing.T) {
	base := TransitionInput{
		CurrentStageID:   sid("qualified"),
		NewStageID:       sid("qualified"),
		NewTargetStageID: sid("negotiation"),
	}

	past := base
	past.NewTargetDate = ts(testNow.AddDate(0, 0, -3))
	res := evaluateAt(t, past, nil, false)
	if findAlert(t, res.Validation, alert.TargetDatePast).Severity != alert.SeverityError {
		t.Fatal("past dates are errors")
	}

	far := base
	far.NewTargetDate = ts(testNow.AddDate(1, 0, 1))
	res = evaluateAt(t, far, nil, false)
	if findAlert(t, res.Validation, alert.TargetDateFarFuture).Severity != alert.SeverityWarning {
		t.Fatal("far-future dates are warnings")
	}

	today := base
	today.NewTargetDate = ts(testNow)
	res = evaluateAt(t, today, nil, false)
	if findAlert(t, res.Validation, alert.TargetDateToday).Severity != alert.SeverityInfo {
		t.Fatal("same-day dates are advisories")
	}

	// Exactly one year out is still inside the horizon.
	edge := base
	edge.NewTargetDate = ts(testNow.AddDate(1, 0, 0))
	res = evaluateAt(t, edge, nil, false)
	if hasAlert(res.Validation, alert.TargetDateFarFuture) {
		t.Fatal("the horizon boundary itself should pass")
	}
}

// Scenario: order 1 straight to order 5 skips 4 steps.
func TestValidateStageJump(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID: sid("lead"),
		NewStageID:     sid("verbal_commit"),
	}, nil, false)

	a := findAlert(t, res.Validation, alert.StageJump)
	if a.Severity != alert.SeverityWarning {
		t.Fatalf("severity = %s, want WARNING", a.Severity)
	}
	if !strings.Contains(a.Message, "4") {
		t.Fatalf("message should state the 4-step skip, got %q", a.Message)
	}

	// Two steps forward is fine.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID: sid("lead"),
		NewStageID:     sid("proposal"),
	}, nil, false)
	if hasAlert(res.Validation, alert.StageJump) {
		t.Fatal("a 2-step move should not count as a jump")
	}
}

func TestValidateTerminalReversals(t *testing.T) {
	// Reopening a won record.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID: sid("won"),
		NewStageID:     sid("negotiation"),
		Note:           "deal fell through after signature",
	}, nil, false)
	a := findAlert(t, res.Validation, alert.SuccessReopened)
	if a.Severity != alert.SeverityWarning || !a.RequiresNote {
		t.Fatalf("SuccessReopened should be a note-requiring warning, got %+v", a)
	}

	// Reviving a lost record.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID: sid("lost"),
		NewStageID:     sid("lead"),
	}, nil, false)
	a = findAlert(t, res.Validation, alert.FailureRevived)
	if a.Severity != alert.SeverityWarning || !a.RequiresNote {
		t.Fatalf("FailureRevived should be a note-requiring warning, got %+v", a)
	}

	// Lost straight to on-hold.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID: sid("lost"),
		NewStageID:     sid("on_hold"),
	}, nil, false)
	findAlert(t, res.Validation, alert.FailureToPending)
}

func TestValidateTargetOvertaken(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("lead"),
		CurrentTargetStageID: sid("proposal"),
		NewStageID:           sid("negotiation"),
		NewTargetStageID:     sid("proposal"),
	}, nil, false)

	a := findAlert(t, res.Validation, alert.TargetOvertaken)
	if a.Severity != alert.SeverityInfo {
		t.Fatalf("severity = %s, want INFO", a.Severity)
	}
}

func TestValidateBackLeavesTargetBehind(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("negotiation"),
		CurrentTargetStageID: sid("qualified"),
		NewStageID:           sid("proposal"),
		NewTargetStageID:     sid("qualified"),
		Note:                 "requirements changed",
	}, nil, false)

	findAlert(t, res.Validation, alert.BackLeavesTarget)
}

func TestValidateGoalChurn(t *testing.T) {
	churnRow := func(daysAgo int) HistoryRecord {
		return historyRow("e1", EventRecommit, ToneNeutral, sid("negotiation"), nil,
			testNow.AddDate(0, 0, -daysAgo))
	}

	in := TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("negotiation"),
		NewStageID:           sid("qualified"),
		NewTargetStageID:     sid("verbal_commit"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, 30)),
	}

	// Two recent goal changes: advisory.
	res := evaluateAt(t, in, []HistoryRecord{churnRow(1), churnRow(3)}, false)
	a := findAlert(t, res.Validation, alert.GoalChurn)
	if a.Severity != alert.SeverityInfo {
		t.Fatalf("severity = %s, want INFO", a.Severity)
	}
	if hasAlert(res.Validation, alert.GoalChurnExcessive) {
		t.Fatal("two changes should not raise the excessive warning")
	}

	// Four recent goal changes: warning replaces the advisory.
	res = evaluateAt(t, in, []HistoryRecord{churnRow(1), churnRow(2), churnRow(3), churnRow(5)}, false)
	findAlert(t, res.Validation, alert.GoalChurnExcessive)
	if hasAlert(res.Validation, alert.GoalChurn) {
		t.Fatal("the warning supersedes the advisory")
	}

	// Changes outside the trailing window do not count.
	res = evaluateAt(t, in, []HistoryRecord{churnRow(10), churnRow(12)}, false)
	if hasAlert(res.Validation, alert.GoalChurn) || hasAlert(res.Validation, alert.GoalChurnExcessive) {
		t.Fatal("stale goal changes should not count as churn")
	}
}

func TestValidateGoalDeferredAgain(t *testing.T) {
	deferral := func(daysAgo int) HistoryRecord {
		return historyRow("e1", EventRecommit, ToneNegative, sid("negotiation"), nil,
			testNow.AddDate(0, 0, -daysAgo))
	}

	// Third deferral of the same target: the date slips yet again.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("negotiation"),
		CurrentTargetDate:    ts(testNow.AddDate(0, 0, 10)),
		NewStageID:           sid("qualified"),
		NewTargetStageID:     sid("negotiation"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, 40)),
	}, []HistoryRecord{deferral(40), deferral(80)}, false)

	a := findAlert(t, res.Validation, alert.GoalDeferredAgain)
	if a.Severity != alert.SeverityWarning {
		t.Fatalf("severity = %s, want WARNING", a.Severity)
	}
	if !strings.Contains(a.Message, "3") {
		t.Fatalf("message should count the third deferral, got %q", a.Message)
	}
}

// Scenario: T+25d pulled to T+5d is a 20-day pull-forward.
func TestValidatePullForward(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("negotiation"),
		CurrentTargetDate:    ts(testNow.AddDate(0, 0, 25)),
		NewStageID:           sid("qualified"),
		NewTargetStageID:     sid("negotiation"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, 5)),
	}, anchorHistory(), false)

	assertEvents(t, DetectionResult{Events: res.Events}, EventRecommit)
	if res.Events[0].Tone != TonePositive {
		t.Fatalf("tone = %s, want positive", res.Events[0].Tone)
	}
	a := findAlert(t, res.Validation, alert.TargetPulledForward)
	if a.Severity != alert.SeverityInfo {
		t.Fatalf("severity = %s, want INFO", a.Severity)
	}
	if !strings.Contains(a.Message, "20") {
		t.Fatalf("message should state 20 days, got %q", a.Message)
	}
}

func TestValidatePullForwardBelowThreshold(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("negotiation"),
		CurrentTargetDate:    ts(testNow.AddDate(0, 0, 20)),
		NewStageID:           sid("qualified"),
		NewTargetStageID:     sid("negotiation"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, 10)),
	}, anchorHistory(), false)

	if hasAlert(res.Validation, alert.TargetPulledForward) {
		t.Fatal("a 10-day pull-forward is under the threshold")
	}
}

// Scenario: achieving a target and immediately re-targeting the stage
// just reached.
func TestValidateTargetJustReached(t *testing.T) {
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("proposal"),
		NewStageID:           sid("proposal"),
		NewTargetStageID:     sid("proposal"),
	}, anchorHistory(), false)

	detection := DetectionResult{Events: res.Events, HasChanges: res.HasChanges}
	if !detection.HasEvent(EventAchieved) {
		t.Fatalf("expected an achieved event, got %v", res.Events)
	}
	a := findAlert(t, res.Validation, alert.TargetJustReached)
	if a.Severity != alert.SeverityError {
		t.Fatalf("severity = %s, want ERROR", a.Severity)
	}
	if CanProceed(res.Validation, true, true) {
		t.Fatal("errors block regardless of note and acknowledgment")
	}
}

func TestValidateDataIntegrity(t *testing.T) {
	// Existing record with its stage cleared.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID: sid("qualified"),
	}, nil, false)
	findAlert(t, res.Validation, alert.StageMissing)

	// New records legitimately have no stage yet.
	res = evaluateAt(t, TransitionInput{NewStageID: sid("lead")}, nil, true)
	if hasAlert(res.Validation, alert.StageMissing) {
		t.Fatal("new records should not be flagged for a missing stage")
	}

	// Backward movement without a note.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID: sid("proposal"),
		NewStageID:     sid("lead"),
	}, nil, false)
	a := findAlert(t, res.Validation, alert.BackWithoutNote)
	if !a.RequiresNote {
		t.Fatal("BackWithoutNote must demand a note")
	}

	// The note silences it.
	res = evaluateAt(t, TransitionInput{
		CurrentStageID: sid("proposal"),
		NewStageID:     sid("lead"),
		Note:           "client restarted discovery",
	}, nil, false)
	if hasAlert(res.Validation, alert.BackWithoutNote) {
		t.Fatal("a supplied note should silence the alert")
	}
}

func TestValidateHistoryRulesSkippedForNewRecords(t *testing.T) {
	// Same pull-forward shape as above, but flagged new: the
	// history-backed rule must not run.
	res := evaluateAt(t, TransitionInput{
		CurrentTargetStageID: sid("negotiation"),
		CurrentTargetDate:    ts(testNow.AddDate(0, 0, 25)),
		NewStageID:           sid("lead"),
		NewTargetStageID:     sid("negotiation"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, 5)),
	}, anchorHistory(), true)

	if hasAlert(res.Validation, alert.TargetPulledForward) {
		t.Fatal("history rules must be skipped for new records")
	}
}

func TestValidateAlertsSortedBySeverity(t *testing.T) {
	// Provoke an error, a warning, and an info in one shot: past date
	// (error), jump (warning), overtaken target (info).
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:       sid("lead"),
		CurrentTargetStageID: sid("qualified"),
		NewStageID:           sid("verbal_commit"),
		NewTargetStageID:     sid("verbal_commit"),
		NewTargetDate:        ts(testNow.AddDate(0, 0, -2)),
	}, nil, false)

	if len(res.Validation.Alerts) < 3 {
		t.Fatalf("expected a mixed batch, got %v", alertIDs(res.Validation))
	}
	for i := 1; i < len(res.Validation.Alerts); i++ {
		if res.Validation.Alerts[i-1].Severity.Rank() > res.Validation.Alerts[i].Severity.Rank() {
			t.Fatalf("alerts out of severity order: %v", alertIDs(res.Validation))
		}
	}
	if res.Validation.IsValid != !res.Validation.HasErrors {
		t.Fatal("IsValid must equal !HasErrors")
	}
}

func TestValidateEveryRuleRuns(t *testing.T) {
	// An error in one category must not short-circuit the others: the
	// past date (temporal) and the missing note on back (integrity) both
	// surface alongside the contradiction.
	res := evaluateAt(t, TransitionInput{
		CurrentStageID:   sid("proposal"),
		NewStageID:       sid("lead"),
		NewTargetStageID: sid("on_hold"),
		NewTargetDate:    ts(testNow.AddDate(0, 0, -5)),
	}, nil, false)

	for _, id := range []string{alert.TargetNotTargetable, alert.TargetDatePast, alert.BackWithoutNote} {
		if !hasAlert(res.Validation, id) {
			t.Fatalf("missing %s; all rules must always run (got %v)", id, alertIDs(res.Validation))
		}
	}
}
