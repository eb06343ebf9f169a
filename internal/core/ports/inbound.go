package ports

import (
	"context"
	"io"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

// ComplaintIntake is the inbound contract for complaint submission.
type ComplaintIntake interface {
	SubmitText(ctx context.Context, originalText, language string) (*domain.Submission, error)
	SubmitVoice(ctx context.Context, filename string, audio io.Reader) (*domain.Submission, error)
}

// ComplaintAdmin is the inbound contract for triage and administration.
type ComplaintAdmin interface {
	List(ctx context.Context) ([]domain.Complaint, error)
	SetStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error
	SetPriority(ctx context.Context, id int64, priority domain.ComplaintPriority) error
	ExportCSV(ctx context.Context, w io.Writer) error
	Reset(ctx context.Context) error
}
