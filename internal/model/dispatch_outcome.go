// internal/model/dispatch_outcome.go
package model

// DispatchOutcome records one attempted enrollment. Error is set iff
// Succeeded is false.
type DispatchOutcome struct {
	UserID    int    `json:"user_id"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// RunSummary aggregates one complete run. Dispatched+Failed equals the
// number of dispatch attempts actually made; Skipped counts users
// filtered out by the enrollment ledger before dispatch.
type RunSummary struct {
	RunID       string            `json:"run_id"`
	SegmentSize int               `json:"segment_size"`
	Dispatched  int               `json:"dispatched"`
	Failed      int               `json:"failed"`
	Skipped     int               `json:"skipped"`
	Outcomes    []DispatchOutcome `json:"outcomes,omitempty"`
}
