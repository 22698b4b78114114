package transition

import (
	"stagegate/domain/core"
	"stagegate/domain/stage"
)

// Detector classifies a before/after state pair into discrete events.
// It is pure: same input and catalog always yield the same events.
type Detector struct {
	catalog *stage.Catalog
}

// NewDetector creates a detector bound to one domain catalog.
func NewDetector(catalog *stage.Catalog) *Detector {
	return &Detector{catalog: catalog}
}

// Detect runs the full classification. Event order is emission order
// and is the order history rows are persisted in.
func (d *Detector) Detect(in TransitionInput) DetectionResult {
	if !in.HasChanges() {
		return DetectionResult{}
	}

	res := DetectionResult{HasChanges: true}

	var stageEvent *DetectedEvent
	if in.StageChanged() {
		stageEvent = d.classifyStageChange(in)
	}

	// Achievement check: reaching the previously committed target turns
	// the plain movement event into a single achieved event. Terminal
	// transitions take precedence and suppress it.
	if d.isAchievement(in, stageEvent) {
		achieved := DetectedEvent{
			Type:        EventAchieved,
			FromStageID: in.CurrentStageID,
			ToStageID:   in.NewStageID,
			TargetDate:  in.CurrentTargetDate,
		}
		res.Events = append(res.Events, achieved)

		// A new target supplied in the same call is a fresh commit, not
		// a recommit of the consumed one.
		if in.NewTargetStageID != nil && in.TargetStageChanged() {
			res.Events = append(res.Events, DetectedEvent{
				Type:       EventCommit,
				ToStageID:  in.NewTargetStageID,
				TargetDate: in.NewTargetDate,
			})
		}
		return res
	}

	if stageEvent != nil {
		res.Events = append(res.Events, *stageEvent)
	}

	if in.TargetStageChanged() || in.TargetDateChanged() {
		// A terminal transition implicitly clears any open target; no
		// separate cancel unless a new target was explicitly supplied.
		suppressed := stageEvent != nil && stageEvent.Type.IsTerminal() && in.NewTargetStageID == nil
		if !suppressed {
			if targetEvent := d.classifyTargetChange(in); targetEvent != nil {
				res.Events = append(res.Events, *targetEvent)
			}
		}
	}

	return res
}

// isAchievement reports whether this call reaches the previously
// committed target stage.
func (d *Detector) isAchievement(in TransitionInput, stageEvent *DetectedEvent) bool {
	if !in.StageChanged() || in.CurrentTargetStageID == nil || in.NewStageID == nil {
		return false
	}
	if !core.StageIDEqual(in.NewStageID, in.CurrentTargetStageID) {
		return false
	}
	// Terminal entry wins over achievement.
	if stageEvent != nil && stageEvent.Type.IsTerminal() {
		return false
	}
	return true
}

// classifyStageChange maps (fromType, toType, orderDelta) to an event.
// Unknown stage types fall through to no event; the detector is total.
func (d *Detector) classifyStageChange(in TransitionInput) *DetectedEvent {
	fromType := d.catalog.TypeOf(in.CurrentStageID)
	toType := d.catalog.TypeOf(in.NewStageID)

	ev := DetectedEvent{FromStageID: in.CurrentStageID, ToStageID: in.NewStageID}

	// Entering a terminal stage classifies on the destination alone.
	switch toType {
	case stage.TypeTerminalSuccess:
		ev.Type = EventTerminalSuccess
		return &ev
	case stage.TypeTerminalFailure:
		ev.Type = EventTerminalFailure
		ev.Reason = in.Note
		return &ev
	case stage.TypeTerminalNeutral:
		ev.Type = EventTerminalNeutral
		ev.Reason = in.Note
		return &ev
	}

	// Brand-new record entering the pipeline.
	if in.CurrentStageID == nil {
		ev.Type = EventProgress
		return &ev
	}

	if toType == stage.TypeProgress {
		switch fromType {
		case stage.TypeTerminalNeutral:
			ev.Type = EventResumed
			return &ev
		case stage.TypeTerminalFailure:
			ev.Type = EventRevived
			return &ev
		case stage.TypeTerminalSuccess:
			// Reopening a closed-won record is a step back.
			ev.Type = EventBack
			return &ev
		case stage.TypeProgress:
			delta, ok := d.catalog.OrderDelta(in.CurrentStageID, in.NewStageID)
			if !ok || delta == 0 {
				return nil
			}
			if delta > 0 {
				ev.Type = EventProgress
			} else {
				ev.Type = EventBack
			}
			return &ev
		}
	}

	// Unknown source or destination type: nothing to classify.
	return nil
}

// classifyTargetChange maps the target-field delta to commit, recommit,
// or cancel. Recommits carry a tone.
func (d *Detector) classifyTargetChange(in TransitionInput) *DetectedEvent {
	switch {
	case in.CurrentTargetStageID == nil && in.NewTargetStageID != nil:
		return &DetectedEvent{
			Type:       EventCommit,
			ToStageID:  in.NewTargetStageID,
			TargetDate: in.NewTargetDate,
		}
	case in.CurrentTargetStageID != nil && in.NewTargetStageID == nil:
		return &DetectedEvent{
			Type:        EventCancel,
			FromStageID: in.CurrentTargetStageID,
		}
	case in.CurrentTargetStageID != nil && in.NewTargetStageID != nil:
		if !in.TargetStageChanged() && !in.TargetDateChanged() {
			return nil
		}
		return &DetectedEvent{
			Type:        EventRecommit,
			FromStageID: in.CurrentTargetStageID,
			ToStageID:   in.NewTargetStageID,
			TargetDate:  in.NewTargetDate,
			Tone:        d.recommitTone(in),
		}
	}
	return nil
}

type stageDirection int

const (
	stageSame stageDirection = iota
	stageUp
	stageDown
)

type dateDirection int

const (
	dateSame dateDirection = iota
	dateEarlier
	dateLater
	dateAdded
	dateRemoved
)

// recommitTone grades a recommit. When both the stage and the date
// dimension move, positive needs stage-up plus date-earlier and
// negative needs stage-down plus date-later; a mixed pair is neutral.
// When only one dimension moves, its direction maps straight through.
func (d *Detector) recommitTone(in TransitionInput) RecommitTone {
	sd := stageSame
	if in.TargetStageChanged() {
		if delta, ok := d.catalog.OrderDelta(in.CurrentTargetStageID, in.NewTargetStageID); ok {
			if delta > 0 {
				sd = stageUp
			} else if delta < 0 {
				sd = stageDown
			}
		}
	}

	dd := dateSame
	if in.TargetDateChanged() {
		switch {
		case in.CurrentTargetDate == nil && in.NewTargetDate != nil:
			dd = dateAdded
		case in.CurrentTargetDate != nil && in.NewTargetDate == nil:
			dd = dateRemoved
		case in.NewTargetDate.Before(*in.CurrentTargetDate):
			dd = dateEarlier
		default:
			dd = dateLater
		}
	}

	switch {
	case sd != stageSame && dd != dateSame:
		if sd == stageUp && dd == dateEarlier {
			return TonePositive
		}
		if sd == stageDown && dd == dateLater {
			return ToneNegative
		}
		return ToneNeutral
	case sd != stageSame:
		switch sd {
		case stageUp:
			return TonePositive
		case stageDown:
			return ToneNegative
		}
		return ToneNeutral
	case dd != dateSame:
		switch dd {
		case dateEarlier:
			return TonePositive
		case dateLater:
			return ToneNegative
		}
		return ToneNeutral
	}
	return ToneNeutral
}
