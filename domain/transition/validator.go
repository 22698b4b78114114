package transition

import (
	"time"

	"stagegate/domain/alert"
	"stagegate/domain/stage"
)

// Business constants reproduced exactly from the curated rule set.
// These are fixed, not tunable configuration.
const (
	stageJumpThreshold       = 3  // ordered steps forward that count as a jump
	pullForwardThresholdDays = 14 // days a target date must move earlier to be flagged
	maxTargetHorizonYears    = 1  // target dates beyond this are suspicious
	goalChurnWindowDays      = 7  // trailing window for goal-churn counting
	goalChurnInfoThreshold   = 2  // prior goal changes in window for the advisory
	goalChurnWarnThreshold   = 4  // prior goal changes in window for the warning
	deferralWarnThreshold    = 2  // prior negative recommits on one target
)

// RuleContext is everything a rule may inspect. Rules never mutate it.
type RuleContext struct {
	Input       TransitionInput
	Catalog     *stage.Catalog
	Events      []DetectedEvent
	History     []HistoryRecord
	IsNewRecord bool
	Now         time.Time
}

// hasEvent reports whether any detected event has the given type.
func (c *RuleContext) hasEvent(t EventType) bool {
	for _, e := range c.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Rule is one named check in the fixed, ordered rule set.
type Rule struct {
	Name         string
	NeedsHistory bool
	Check        func(*RuleContext) []alert.Alert
}

// Validator runs the curated rule set over a proposed transition.
// Every rule is evaluated; nothing short-circuits.
type Validator struct {
	catalog *stage.Catalog
	rules   []Rule
	now     func() time.Time
}

// NewValidator creates a validator for one domain catalog.
func NewValidator(catalog *stage.Catalog) *Validator {
	return &Validator{catalog: catalog, rules: ruleSet(), now: time.Now}
}

// NewValidatorAt creates a validator with an injected clock, for
// deterministic evaluation and tests.
func NewValidatorAt(catalog *stage.Catalog, now func() time.Time) *Validator {
	return &Validator{catalog: catalog, rules: ruleSet(), now: now}
}

// Validate evaluates the full rule set. History must arrive pre-filtered
// (non-voided, no reason_updated rows, most recent first); the validator
// never queries storage.
func (v *Validator) Validate(in TransitionInput, events []DetectedEvent, history []HistoryRecord, isNewRecord bool) alert.ValidationResult {
	ctx := &RuleContext{
		Input:       in,
		Catalog:     v.catalog,
		Events:      events,
		History:     history,
		IsNewRecord: isNewRecord,
		Now:         v.now(),
	}

	var alerts []alert.Alert
	for _, rule := range v.rules {
		if rule.NeedsHistory && (isNewRecord || len(history) == 0) {
			continue
		}
		alerts = append(alerts, rule.Check(ctx)...)
	}
	return alert.NewValidationResult(alerts)
}
