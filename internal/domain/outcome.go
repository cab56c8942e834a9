package domain

import "fmt"

// Outcome is the verdict on one attempt of a job.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// Verdict is what the renderer extracts from a QuickBooks response document.
// The zero value is a failure.
type Verdict struct {
	Outcome    Outcome
	StatusCode string
	Message    string
}

// Succeeded reports whether the verdict is a success.
func (v Verdict) Succeeded() bool {
	return v.Outcome == OutcomeSuccess
}

// Job log status labels.
const (
	StatusSuccess       = "Success"
	StatusFailedAborted = "Failed-Aborted"
	// StatusSkipped marks a job abandoned because it could not be rendered.
	StatusSkipped = "Skipped"
	// StatusReported marks a connection error reported by the Web Connector.
	StatusReported = "Reported"

	// CategoryConnection is the module/kind recorded for connection errors
	// reported by the Web Connector.
	CategoryConnection = "Connection"
)

// RetryingStatus is the label for a failed attempt that will be retried.
// attempt is the retry number about to run, limit the configured maximum.
func RetryingStatus(attempt, limit int) string {
	return fmt.Sprintf("Failed-Retrying-%d-of-%d", attempt, limit)
}
