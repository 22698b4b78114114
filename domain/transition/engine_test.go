package transition

import (
	"sync"
	"testing"
)

func TestEngineEvaluateCombinesDetectionAndValidation(t *testing.T) {
	engine := NewEngineAt(pipelineCatalog(t), fixedClock)

	res := engine.Evaluate(TransitionInput{
		CurrentStageID: sid("lost"),
		NewStageID:     sid("lead"),
	}, nil, false)

	if !res.HasChanges {
		t.Fatal("a stage change must report HasChanges")
	}
	assertEvents(t, DetectionResult{Events: res.Events}, EventRevived)
	if res.Validation.IsValid == res.Validation.HasErrors {
		t.Fatal("IsValid must be the negation of HasErrors")
	}
	if !res.Validation.HasWarnings {
		t.Fatal("reviving a failed record warns")
	}
}

// The engine is stateless; concurrent evaluation of the same input must
// always produce the same result.
func TestEngineConcurrentEvaluation(t *testing.T) {
	engine := NewEngineAt(pipelineCatalog(t), fixedClock)
	in := TransitionInput{
		CurrentStageID:       sid("qualified"),
		CurrentTargetStageID: sid("verbal_commit"),
		NewStageID:           sid("verbal_commit"),
	}
	want := engine.Evaluate(in, nil, false)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := engine.Evaluate(in, nil, false)
			if len(got.Events) != len(want.Events) || len(got.Validation.Alerts) != len(want.Validation.Alerts) {
				t.Error("concurrent evaluation diverged")
			}
		}()
	}
	wg.Wait()
}
