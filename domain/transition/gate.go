package transition

import "stagegate/domain/alert"

// CanProceed is the final commit gate. It enforces the two-round
// interaction: round one surfaces alerts, round two resubmits with
// acknowledgment and any required note.
//
// Errors always block. Warnings block until acknowledged, and until a
// note is supplied when any raised alert demands one. Infos never block.
func CanProceed(validation alert.ValidationResult, noteProvided, acknowledged bool) bool {
	if validation.HasErrors {
		return false
	}
	if validation.HasWarnings {
		if validation.AnyRequiresNote() && !noteProvided {
			return false
		}
		return acknowledged
	}
	return true
}
