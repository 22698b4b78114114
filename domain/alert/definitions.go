package alert

import (
	"fmt"
	"sort"
)

// Definition is the immutable description of one alert kind: grade,
// message template, and whether proceeding past it demands a note.
// Detection logic lives with the validator rules; the definitions here
// are pure data so messages stay consistent across callers.
type Definition struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Template     string   `json:"template"`
	RequiresNote bool     `json:"requires_note"`
	Doc          string   `json:"doc"` // one-line help text for the back office
}

// Alert ids. Grouped the way the validator evaluates them.
const (
	// Logical contradictions
	TargetBehindStage      = "TARGET_BEHIND_STAGE"
	TargetEqualsStage      = "TARGET_EQUALS_STAGE"
	TargetDateWithoutStage = "TARGET_DATE_WITHOUT_STAGE"
	TargetNeedsConfirm     = "TARGET_NEEDS_CONFIRMATION"
	TargetNotTargetable    = "TARGET_NOT_TARGETABLE"

	// Temporal sanity
	TargetDatePast      = "TARGET_DATE_PAST"
	TargetDateFarFuture = "TARGET_DATE_FAR_FUTURE"
	TargetDateToday     = "TARGET_DATE_TODAY"

	// Transition sanity
	StageJump        = "STAGE_JUMP"
	SuccessReopened  = "SUCCESS_REOPENED"
	FailureRevived   = "FAILURE_REVIVED"
	FailureToPending = "FAILURE_TO_PENDING"
	TargetOvertaken  = "TARGET_OVERTAKEN"
	BackLeavesTarget = "BACK_LEAVES_TARGET"

	// Goal management
	GoalChurn           = "GOAL_CHURN"
	GoalChurnExcessive  = "GOAL_CHURN_EXCESSIVE"
	GoalDeferredAgain   = "GOAL_DEFERRED_AGAIN"
	TargetPulledForward = "TARGET_PULLED_FORWARD"
	TargetJustReached   = "TARGET_JUST_REACHED"

	// Data integrity
	StageMissing    = "STAGE_MISSING"
	BackWithoutNote = "BACK_WITHOUT_NOTE"
)

var registry = map[string]Definition{
	TargetBehindStage: {
		ID: TargetBehindStage, Severity: SeverityError,
		Template: "target stage %q is behind the new stage %q",
		Doc:      "The committed target would already be in the past relative to the stage being set.",
	},
	TargetEqualsStage: {
		ID: TargetEqualsStage, Severity: SeverityError,
		Template: "target stage %q equals the stage being set",
		Doc:      "A target must point somewhere the entity has not reached yet.",
	},
	TargetDateWithoutStage: {
		ID: TargetDateWithoutStage, Severity: SeverityError,
		Template: "a target date is set without a target stage",
		Doc:      "Target dates only make sense attached to a target stage.",
	},
	TargetNeedsConfirm: {
		ID: TargetNeedsConfirm, Severity: SeverityWarning,
		Template: "targeting %q needs explicit confirmation",
		Doc:      "Terminal-failure stages can be targeted, but only deliberately.",
	},
	TargetNotTargetable: {
		ID: TargetNotTargetable, Severity: SeverityError,
		Template: "%q cannot be used as a target",
		Doc:      "Pending/neutral stages are parked states, never goals.",
	},
	TargetDatePast: {
		ID: TargetDatePast, Severity: SeverityError,
		Template: "target date %s is in the past",
		Doc:      "A freshly committed target cannot be due before today.",
	},
	TargetDateFarFuture: {
		ID: TargetDateFarFuture, Severity: SeverityWarning,
		Template: "target date %s is more than one year out",
		Doc:      "Very distant targets are usually data-entry mistakes.",
	},
	TargetDateToday: {
		ID: TargetDateToday, Severity: SeverityInfo,
		Template: "target date is today",
		Doc:      "Same-day targets are allowed but worth a second look.",
	},
	StageJump: {
		ID: StageJump, Severity: SeverityWarning,
		Template: "stage moved forward %d steps at once (%q to %q)",
		Doc:      "Jumping three or more ordered steps usually means a skipped update.",
	},
	SuccessReopened: {
		ID: SuccessReopened, Severity: SeverityWarning, RequiresNote: true,
		Template: "reopening a successfully closed record (%q to %q)",
		Doc:      "Leaving a terminal-success stage needs an explanation on file.",
	},
	FailureRevived: {
		ID: FailureRevived, Severity: SeverityWarning, RequiresNote: true,
		Template: "reviving a failed record (%q to %q)",
		Doc:      "Leaving a terminal-failure stage needs an explanation on file.",
	},
	FailureToPending: {
		ID: FailureToPending, Severity: SeverityWarning,
		Template: "moving a failed record to %q",
		Doc:      "Failed records are normally revived into a progress stage, not parked.",
	},
	TargetOvertaken: {
		ID: TargetOvertaken, Severity: SeverityInfo,
		Template: "stage %q passed the committed target %q: implicit achievement, please confirm or correct",
		Doc:      "The stage overtook the target without landing on it exactly.",
	},
	BackLeavesTarget: {
		ID: BackLeavesTarget, Severity: SeverityWarning,
		Template: "moving back leaves the target %q at or before the new stage %q",
		Doc:      "After a step back the standing target may no longer be ahead of the entity.",
	},
	GoalChurn: {
		ID: GoalChurn, Severity: SeverityInfo,
		Template: "goal changed repeatedly: %d goal changes in the last 7 days",
		Doc:      "Frequent goal edits are advisory at first.",
	},
	GoalChurnExcessive: {
		ID: GoalChurnExcessive, Severity: SeverityWarning,
		Template: "goal changed repeatedly: %d goal changes in the last 7 days",
		Doc:      "Past four changes in a week the churn itself becomes the problem.",
	},
	GoalDeferredAgain: {
		ID: GoalDeferredAgain, Severity: SeverityWarning,
		Template: "target %q deferred again: %d deferrals so far",
		Doc:      "Repeated negative recommits against one target signal a slipping goal.",
	},
	TargetPulledForward: {
		ID: TargetPulledForward, Severity: SeverityInfo,
		Template: "target date pulled forward by %d days",
		Doc:      "Large pull-forwards versus the committed date are flagged for review.",
	},
	TargetJustReached: {
		ID: TargetJustReached, Severity: SeverityError,
		Template: "cannot set the just-reached stage %q as the next target",
		Doc:      "Achieving a target and re-targeting the same stage in one call is contradictory.",
	},
	StageMissing: {
		ID: StageMissing, Severity: SeverityError,
		Template: "stage cannot be empty on an existing record",
		Doc:      "Only brand-new records may arrive without a current stage.",
	},
	BackWithoutNote: {
		ID: BackWithoutNote, Severity: SeverityWarning, RequiresNote: true,
		Template: "moving back needs an explanatory note",
		Doc:      "Backward movement is always recorded with a reason.",
	},
}

// New builds an Alert from a registered definition, formatting the
// message template with the supplied arguments.
func New(id string, args ...interface{}) Alert {
	def, ok := registry[id]
	if !ok {
		// Unknown ids should not happen; surface them loudly but never panic.
		return Alert{ID: id, Severity: SeverityError, Message: "unknown alert: " + id}
	}
	return Alert{
		ID:           def.ID,
		Severity:     def.Severity,
		Message:      fmt.Sprintf(def.Template, args...),
		RequiresNote: def.RequiresNote,
	}
}

// Lookup returns the definition for an alert id.
func Lookup(id string) (Definition, bool) {
	def, ok := registry[id]
	return def, ok
}

// Definitions returns every registered definition, sorted by severity
// then id, for help pages and exports.
func Definitions() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, def := range registry {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out
}
