package shared

import (
	"time"
)

// Operation names recorded in the metrics store.
const (
	OpGenerate            = "generate"
	OpRegenerateMeal      = "regenerate_meal"
	OpRegenerateComponent = "regenerate_component"
	OpReminder            = "reminder"
)

// Outcomes of an operation.
const (
	OutcomeOK       = "ok"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
	OutcomeDegraded = "degraded" // computed, but the result could not be persisted
)

// OperationMeta holds operational metadata for a single menu operation.
type OperationMeta struct {
	Operation string
	OwnerID   string
	Outcome   string
	Latency   time.Duration
}
