package ports

import (
	"context"
	"io"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

// Structurer normalizes free-form complaint text into the four-field shape.
// It never returns an error: failures come back as a StructuredResult with Err
// set and a human-readable cause in ProcessedText.
type Structurer interface {
	Structure(ctx context.Context, rawText string) domain.StructuredResult
}

// Transcriber converts an audio file into raw text in the spoken language.
// Failures are reported as sentinel text, never as an error, so the intake
// pipeline always receives a string.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) string
	// Language is the fixed label recorded on voice complaints handled by
	// this backend.
	Language() string
	// IsSentinel reports whether text is one of this backend's failure
	// sentinels rather than genuine transcription output.
	IsSentinel(text string) bool
}

// ComplaintRepository persists and reads complaint records.
type ComplaintRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, c *domain.Complaint) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error
	UpdatePriority(ctx context.Context, id int64, priority domain.ComplaintPriority) error
	ListAll(ctx context.Context) ([]domain.Complaint, error)
	Reset(ctx context.Context) error
}

// BackupSink mirrors the full complaint set to a secondary durable artifact.
type BackupSink interface {
	Mirror(ctx context.Context, records []domain.Complaint) error
}

// ScratchStore holds uploaded audio for the duration of a single request.
// The returned cleanup func removes the artifact and any derived files.
type ScratchStore interface {
	Save(ctx context.Context, filename string, data io.Reader) (path string, cleanup func(), err error)
}

// EventPublisher announces committed complaints to downstream consumers.
type EventPublisher interface {
	PublishComplaintCommitted(ctx context.Context, id int64) error
}
