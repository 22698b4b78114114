package transition

import (
	"stagegate/domain/core"
)

// EventType labels what semantically happened in one transition.
type EventType string

const (
	EventCommit          EventType = "commit"           // a target was set
	EventAchieved        EventType = "achieved"         // the committed target was reached
	EventRecommit        EventType = "recommit"         // the target was changed
	EventProgress        EventType = "progress"         // forward movement among ordered stages
	EventBack            EventType = "back"             // backward movement (or reopening from success)
	EventCancel          EventType = "cancel"           // the target was cleared
	EventTerminalSuccess EventType = "terminal_success" // entered a success stage
	EventTerminalFailure EventType = "terminal_failure" // entered a failure stage
	EventTerminalNeutral EventType = "terminal_neutral" // entered a pending/neutral stage
	EventResumed         EventType = "resumed"          // left pending back into progress
	EventRevived         EventType = "revived"          // left failure back into progress
	EventReasonUpdated   EventType = "reason_updated"   // terminal reason text edited, no state change
)

// IsTerminal reports whether the event records entry into a terminal stage.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventTerminalSuccess, EventTerminalFailure, EventTerminalNeutral:
		return true
	default:
		return false
	}
}

// IsGoalChange reports whether the event touches the target (for the
// goal-churn rule).
func (t EventType) IsGoalChange() bool {
	switch t {
	case EventCommit, EventRecommit, EventCancel:
		return true
	default:
		return false
	}
}

// RecommitTone grades a recommit by whether the goal got more or less
// ambitious. Set only on recommit events.
type RecommitTone string

const (
	ToneNone     RecommitTone = ""
	TonePositive RecommitTone = "positive"
	ToneNegative RecommitTone = "negative"
	ToneNeutral  RecommitTone = "neutral"
)

// TransitionInput carries a proposed change next to the authoritative
// current state. All ids and dates are nullable; dates are compared by
// calendar day only.
type TransitionInput struct {
	CurrentStageID       *core.StageID   `json:"current_stage_id"`
	CurrentTargetStageID *core.StageID   `json:"current_target_stage_id"`
	CurrentTargetDate    *core.Timestamp `json:"current_target_date"`
	NewStageID           *core.StageID   `json:"new_stage_id"`
	NewTargetStageID     *core.StageID   `json:"new_target_stage_id"`
	NewTargetDate        *core.Timestamp `json:"new_target_date"`
	Note                 string          `json:"note,omitempty"`
}

// StageChanged reports whether the current stage itself moves.
func (in TransitionInput) StageChanged() bool {
	return !core.StageIDEqual(in.CurrentStageID, in.NewStageID)
}

// TargetStageChanged reports whether the target stage moves.
func (in TransitionInput) TargetStageChanged() bool {
	return !core.StageIDEqual(in.CurrentTargetStageID, in.NewTargetStageID)
}

// TargetDateChanged reports whether the target date moves (day precision).
func (in TransitionInput) TargetDateChanged() bool {
	return !core.DateEqual(in.CurrentTargetDate, in.NewTargetDate)
}

// HasChanges reports whether anything at all moves.
func (in TransitionInput) HasChanges() bool {
	return in.StageChanged() || in.TargetStageChanged() || in.TargetDateChanged()
}

// DetectedEvent is one discrete semantic event derived from a
// before/after state pair.
type DetectedEvent struct {
	Type        EventType       `json:"type"`
	FromStageID *core.StageID   `json:"from_stage_id,omitempty"`
	ToStageID   *core.StageID   `json:"to_stage_id,omitempty"`
	TargetDate  *core.Timestamp `json:"target_date,omitempty"`
	Tone        RecommitTone    `json:"tone,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// DetectionResult is the detector output: zero or more events plus a
// cheap no-op signal for callers.
type DetectionResult struct {
	Events     []DetectedEvent `json:"events"`
	HasChanges bool            `json:"has_changes"`
}

// HasEvent reports whether any detected event has the given type.
func (r DetectionResult) HasEvent(t EventType) bool {
	for _, e := range r.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// HistoryRecord is one persisted row per detected event. Records are
// append-only: voiding is the only mutation ever applied, and the
// engine treats the slice it receives as read-only.
type HistoryRecord struct {
	ID                core.RecordID   `json:"id"`
	EntityID          core.EntityID   `json:"entity_id"`
	Type              EventType       `json:"type"`
	FromStageID       *core.StageID   `json:"from_stage_id,omitempty"`
	ToStageID         *core.StageID   `json:"to_stage_id,omitempty"`
	TargetDate        *core.Timestamp `json:"target_date,omitempty"`
	Tone              RecommitTone    `json:"tone,omitempty"`
	Note              string          `json:"note,omitempty"`
	ChangedBy         string          `json:"changed_by"`
	AlertAcknowledged bool            `json:"alert_acknowledged"`
	Voided            bool            `json:"voided"`
	RecordedAt        core.Timestamp  `json:"recorded_at"`
}

// NewHistoryRecord materializes one detected event as a history row.
func NewHistoryRecord(entityID core.EntityID, ev DetectedEvent, changedBy, note string, acknowledged bool, at core.Timestamp) HistoryRecord {
	return HistoryRecord{
		ID:                core.RecordID(core.NewID()),
		EntityID:          entityID,
		Type:              ev.Type,
		FromStageID:       ev.FromStageID,
		ToStageID:         ev.ToStageID,
		TargetDate:        ev.TargetDate,
		Tone:              ev.Tone,
		Note:              note,
		ChangedBy:         changedBy,
		AlertAcknowledged: acknowledged,
		RecordedAt:        at,
	}
}

// NewReasonUpdatedEvent builds the event emitted when only the reason
// text on a terminal record is edited. The detector never produces this
// from stage/target deltas; the service layer emits it explicitly.
func NewReasonUpdatedEvent(stageID *core.StageID, reason string) DetectedEvent {
	return DetectedEvent{
		Type:        EventReasonUpdated,
		FromStageID: stageID,
		ToStageID:   stageID,
		Reason:      reason,
	}
}
