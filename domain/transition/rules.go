package transition

import (
	"stagegate/domain/alert"
	"stagegate/domain/core"
	"stagegate/domain/stage"
)

const dayFormat = "2006-01-02"

// ruleSet returns the fixed, ordered rule table. Order matters only for
// stable alert ordering within a severity grade; every rule always runs.
func ruleSet() []Rule {
	return []Rule{
		{Name: "logical_contradictions", Check: checkLogicalContradictions},
		{Name: "temporal_sanity", Check: checkTemporalSanity},
		{Name: "transition_sanity", Check: checkTransitionSanity},
		{Name: "goal_management", NeedsHistory: true, Check: checkGoalManagement},
		{Name: "data_integrity", Check: checkDataIntegrity},
	}
}

// checkLogicalContradictions flags target fields that contradict the
// stage being set.
func checkLogicalContradictions(ctx *RuleContext) []alert.Alert {
	in := ctx.Input
	cat := ctx.Catalog
	var out []alert.Alert

	if targetOrder, ok := cat.OrderOf(in.NewTargetStageID); ok {
		if stageOrder, ok := cat.OrderOf(in.NewStageID); ok && targetOrder < stageOrder {
			out = append(out, alert.New(alert.TargetBehindStage,
				cat.NameOf(in.NewTargetStageID), cat.NameOf(in.NewStageID)))
		}
	}

	if in.NewTargetStageID != nil && core.StageIDEqual(in.NewTargetStageID, in.NewStageID) {
		out = append(out, alert.New(alert.TargetEqualsStage, cat.NameOf(in.NewTargetStageID)))
	}

	if in.NewTargetDate != nil && in.NewTargetStageID == nil {
		out = append(out, alert.New(alert.TargetDateWithoutStage))
	}

	switch targetType := cat.TypeOf(in.NewTargetStageID); {
	case targetType == stage.TypeUnknown:
		// Unknown ids match no typed rule.
	case targetType.RequiresConfirmation():
		out = append(out, alert.New(alert.TargetNeedsConfirm, cat.NameOf(in.NewTargetStageID)))
	case !targetType.Targetable():
		out = append(out, alert.New(alert.TargetNotTargetable, cat.NameOf(in.NewTargetStageID)))
	}

	return out
}

// checkTemporalSanity flags target dates outside the sane window.
func checkTemporalSanity(ctx *RuleContext) []alert.Alert {
	in := ctx.Input
	if in.NewTargetDate == nil {
		return nil
	}

	today := core.NewTimestamp(ctx.Now).DateOf()
	target := in.NewTargetDate.DateOf()

	var out []alert.Alert
	switch {
	case target.Before(today):
		out = append(out, alert.New(alert.TargetDatePast, target.Format(dayFormat)))
	case target.After(today.AddDate(maxTargetHorizonYears, 0, 0)):
		out = append(out, alert.New(alert.TargetDateFarFuture, target.Format(dayFormat)))
	case target.Equal(today):
		out = append(out, alert.New(alert.TargetDateToday))
	}
	return out
}

// checkTransitionSanity flags suspicious but not contradictory moves.
func checkTransitionSanity(ctx *RuleContext) []alert.Alert {
	in := ctx.Input
	cat := ctx.Catalog
	var out []alert.Alert

	fromType := cat.TypeOf(in.CurrentStageID)
	toType := cat.TypeOf(in.NewStageID)

	if in.StageChanged() {
		if delta, ok := cat.OrderDelta(in.CurrentStageID, in.NewStageID); ok && delta >= stageJumpThreshold {
			out = append(out, alert.New(alert.StageJump, delta,
				cat.NameOf(in.CurrentStageID), cat.NameOf(in.NewStageID)))
		}

		if fromType == stage.TypeTerminalSuccess && toType != stage.TypeTerminalSuccess && toType != stage.TypeUnknown {
			out = append(out, alert.New(alert.SuccessReopened,
				cat.NameOf(in.CurrentStageID), cat.NameOf(in.NewStageID)))
		}

		if fromType == stage.TypeTerminalFailure && toType == stage.TypeProgress {
			out = append(out, alert.New(alert.FailureRevived,
				cat.NameOf(in.CurrentStageID), cat.NameOf(in.NewStageID)))
		}

		if fromType == stage.TypeTerminalFailure && toType == stage.TypeTerminalNeutral {
			out = append(out, alert.New(alert.FailureToPending, cat.NameOf(in.NewStageID)))
		}

		// Overtaking the committed target without landing on it exactly.
		if targetOrder, ok := cat.OrderOf(in.CurrentTargetStageID); ok {
			if stageOrder, ok := cat.OrderOf(in.NewStageID); ok && stageOrder > targetOrder {
				out = append(out, alert.New(alert.TargetOvertaken,
					cat.NameOf(in.NewStageID), cat.NameOf(in.CurrentTargetStageID)))
			}
		}
	}

	if ctx.hasEvent(EventBack) && in.NewTargetStageID != nil {
		if targetOrder, ok := cat.OrderOf(in.NewTargetStageID); ok {
			if stageOrder, ok := cat.OrderOf(in.NewStageID); ok && targetOrder <= stageOrder {
				out = append(out, alert.New(alert.BackLeavesTarget,
					cat.NameOf(in.NewTargetStageID), cat.NameOf(in.NewStageID)))
			}
		}
	}

	return out
}

// checkGoalManagement runs the history-backed heuristics. The validator
// only calls it with a non-empty, pre-filtered history on existing records.
func checkGoalManagement(ctx *RuleContext) []alert.Alert {
	in := ctx.Input
	var out []alert.Alert

	// Goal churn in the trailing window, combined with yet another goal
	// change being made right now.
	if ctx.hasEvent(EventCommit) || ctx.hasEvent(EventRecommit) {
		windowStart := core.NewTimestamp(ctx.Now).DateOf().AddDate(0, 0, -goalChurnWindowDays)
		churn := 0
		for _, rec := range ctx.History {
			if rec.Voided || !rec.Type.IsGoalChange() {
				continue
			}
			if !rec.RecordedAt.Time().Before(windowStart) {
				churn++
			}
		}
		switch {
		case churn >= goalChurnWarnThreshold:
			out = append(out, alert.New(alert.GoalChurnExcessive, churn))
		case churn >= goalChurnInfoThreshold:
			out = append(out, alert.New(alert.GoalChurn, churn))
		}
	}

	// Repeated deferrals of the same target.
	for _, ev := range ctx.Events {
		if ev.Type != EventRecommit || ev.Tone != ToneNegative || ev.ToStageID == nil {
			continue
		}
		prior := 0
		for _, rec := range ctx.History {
			if rec.Voided || rec.Type != EventRecommit || rec.Tone != ToneNegative {
				continue
			}
			if core.StageIDEqual(rec.ToStageID, ev.ToStageID) {
				prior++
			}
		}
		if prior >= deferralWarnThreshold {
			out = append(out, alert.New(alert.GoalDeferredAgain,
				ctx.Catalog.NameOf(ev.ToStageID), prior+1))
		}
	}

	// Large pull-forward versus the previously committed date for the
	// same target stage.
	if in.NewTargetStageID != nil && in.NewTargetDate != nil {
		if prev := previousCommittedDate(ctx); prev != nil {
			if pulled := core.DaysBetween(*in.NewTargetDate, *prev); pulled >= pullForwardThresholdDays {
				out = append(out, alert.New(alert.TargetPulledForward, pulled))
			}
		}
	}

	// Achieving a target and re-targeting the just-reached stage.
	if ctx.hasEvent(EventAchieved) && in.NewTargetStageID != nil &&
		core.StageIDEqual(in.NewTargetStageID, in.NewStageID) {
		out = append(out, alert.New(alert.TargetJustReached, ctx.Catalog.NameOf(in.NewTargetStageID)))
	}

	return out
}

// previousCommittedDate resolves the date the current target stage was
// last committed with: the standing target date when the stage is
// unchanged, otherwise the most recent matching commit/recommit row.
func previousCommittedDate(ctx *RuleContext) *core.Timestamp {
	in := ctx.Input
	if core.StageIDEqual(in.CurrentTargetStageID, in.NewTargetStageID) && in.CurrentTargetDate != nil {
		return in.CurrentTargetDate
	}
	for _, rec := range ctx.History {
		if rec.Voided || rec.TargetDate == nil {
			continue
		}
		if rec.Type != EventCommit && rec.Type != EventRecommit {
			continue
		}
		if core.StageIDEqual(rec.ToStageID, in.NewTargetStageID) {
			return rec.TargetDate
		}
	}
	return nil
}

// checkDataIntegrity flags malformed submissions.
func checkDataIntegrity(ctx *RuleContext) []alert.Alert {
	var out []alert.Alert

	if ctx.Input.NewStageID == nil && !ctx.IsNewRecord {
		out = append(out, alert.New(alert.StageMissing))
	}

	if ctx.hasEvent(EventBack) && ctx.Input.Note == "" {
		out = append(out, alert.New(alert.BackWithoutNote))
	}

	return out
}
