package schema

import "time"

// Status tracks a submission through its lifecycle.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusComplete Status = "complete"
	StatusInvalid  Status = "invalid"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	ErrorRequired ErrorKind = "required"
	ErrorFormat   ErrorKind = "format"
	ErrorMin      ErrorKind = "min"
	ErrorMax      ErrorKind = "max"
	ErrorPattern  ErrorKind = "pattern"
	ErrorCustom   ErrorKind = "custom"
)

// ValidationError is one failed check for one field. Field carries the
// field's name (the answer key), not its id.
type ValidationError struct {
	Field   string    `json:"field"`
	Type    ErrorKind `json:"type"`
	Message string    `json:"message"`
}

// SubmissionMetadata records timing for a completed fill session.
type SubmissionMetadata struct {
	SubmittedAt time.Time     `json:"submittedAt"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Submission is the record produced by a fill session. Data holds exactly
// the answers for fields visible at submit time; hidden fields contribute no
// key.
type Submission struct {
	ID               string             `json:"id"`
	FormID           string             `json:"formId"`
	Data             map[string]any     `json:"data"`
	Metadata         SubmissionMetadata `json:"metadata"`
	Status           Status             `json:"status"`
	ValidationErrors []ValidationError  `json:"validationErrors,omitempty"`
}
