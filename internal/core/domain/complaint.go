package domain

import "time"

type InputType string

const (
	InputText  InputType = "text"
	InputVoice InputType = "voice"
)

type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "Pending"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusResolved   ComplaintStatus = "Resolved"
)

type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "Low"
	PriorityMedium ComplaintPriority = "Medium"
	PriorityHigh   ComplaintPriority = "High"
)

// NotSpecified is the placeholder the structuring engine uses when the
// complaint names no area or time.
const NotSpecified = "Not Specified"

type Complaint struct {
	ID            int64             `json:"id"`
	InputType     InputType         `json:"input_type"`
	OriginalText  string            `json:"original_text"`
	ProcessedText string            `json:"processed_text"`
	Language      string            `json:"language"`
	Issue         string            `json:"issue"`
	Area          string            `json:"area"`
	Time          string            `json:"time"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        ComplaintStatus   `json:"status"`
	Priority      ComplaintPriority `json:"priority"`
}

// StructuredResult is the transient output of the structuring engine. When Err
// is set, ProcessedText carries a human-readable cause and the result must
// never be persisted.
type StructuredResult struct {
	ProcessedText string `json:"processed_text"`
	Issue         string `json:"issue"`
	Area          string `json:"area"`
	Time          string `json:"time"`
	Err           bool   `json:"-"`
}

// Submission is a committed intake outcome returned to the client.
type Submission struct {
	ID       int64
	Summary  string
	Original string
}
