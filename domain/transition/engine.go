package transition

import (
	"time"

	"stagegate/domain/alert"
	"stagegate/domain/stage"
)

// Engine bundles detection and validation for one domain catalog.
// It is pure and stateless: every call is independent and safe for
// unlimited parallel invocation.
type Engine struct {
	catalog   *stage.Catalog
	detector  *Detector
	validator *Validator
}

// EvaluationResult is the combined output of one engine call.
type EvaluationResult struct {
	Events     []DetectedEvent        `json:"events"`
	HasChanges bool                   `json:"has_changes"`
	Validation alert.ValidationResult `json:"validation"`
}

// NewEngine creates an engine for one domain catalog.
func NewEngine(catalog *stage.Catalog) *Engine {
	return &Engine{
		catalog:   catalog,
		detector:  NewDetector(catalog),
		validator: NewValidator(catalog),
	}
}

// NewEngineAt creates an engine with an injected clock, for
// deterministic evaluation and tests.
func NewEngineAt(catalog *stage.Catalog, now func() time.Time) *Engine {
	return &Engine{
		catalog:   catalog,
		detector:  NewDetector(catalog),
		validator: NewValidatorAt(catalog, now),
	}
}

// Catalog returns the domain catalog the engine was built for.
func (e *Engine) Catalog() *stage.Catalog { return e.catalog }

// Detect classifies the before/after pair without validating it.
func (e *Engine) Detect(in TransitionInput) DetectionResult {
	return e.detector.Detect(in)
}

// Evaluate runs detection then validation in one call. The detected
// events feed the validator's event-dependent rules.
func (e *Engine) Evaluate(in TransitionInput, history []HistoryRecord, isNewRecord bool) EvaluationResult {
	detection := e.detector.Detect(in)
	validation := e.validator.Validate(in, detection.Events, history, isNewRecord)
	return EvaluationResult{
		Events:     detection.Events,
		HasChanges: detection.HasChanges,
		Validation: validation,
	}
}
