package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
	"github.com/civicgrid/complaint-intake/internal/core/ports"
)

// IntakeUseCase owns the submission lifecycle: transcription for voice,
// structuring, the commit-or-reject decision, and the post-commit mirror.
// A record reaches the store only when structuring succeeded.
type IntakeUseCase struct {
	repo        ports.ComplaintRepository
	structurer  ports.Structurer
	transcriber ports.Transcriber
	scratch     ports.ScratchStore
	backup      ports.BackupSink
	events      ports.EventPublisher
	observer    ports.IntakeObserver

	rejectTranscriptionSentinel bool
}

type IntakeOptions struct {
	// Events may be nil; committed-complaint announcements are optional.
	Events ports.EventPublisher
	// Observer may be nil.
	Observer ports.IntakeObserver
	// RejectTranscriptionSentinel short-circuits voice submissions whose
	// transcription produced a failure sentinel instead of feeding the
	// sentinel text into structuring.
	RejectTranscriptionSentinel bool
}

func NewIntakeUseCase(
	repo ports.ComplaintRepository,
	structurer ports.Structurer,
	transcriber ports.Transcriber,
	scratch ports.ScratchStore,
	backup ports.BackupSink,
	opts IntakeOptions,
) *IntakeUseCase {
	return &IntakeUseCase{
		repo:        repo,
		structurer:  structurer,
		transcriber: transcriber,
		scratch:     scratch,
		backup:      backup,
		events:      opts.Events,
		observer:    opts.Observer,

		rejectTranscriptionSentinel: opts.RejectTranscriptionSentinel,
	}
}

func (uc *IntakeUseCase) SubmitText(ctx context.Context, originalText, language string) (*domain.Submission, error) {
	result := uc.structure(ctx, originalText)
	if result.Err {
		return nil, rejectError(result)
	}

	id, err := uc.commit(ctx, &domain.Complaint{
		InputType:     domain.InputText,
		OriginalText:  originalText,
		ProcessedText: result.ProcessedText,
		Language:      language,
		Issue:         result.Issue,
		Area:          result.Area,
		Time:          result.Time,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Submission{ID: id, Summary: result.ProcessedText}, nil
}

func (uc *IntakeUseCase) SubmitVoice(ctx context.Context, filename string, audio io.Reader) (*domain.Submission, error) {
	path, cleanup, err := uc.scratch.Save(ctx, filename, audio)
	if err != nil {
		return nil, fmt.Errorf("save scratch audio: %w", err)
	}
	// Single release point for the scoped audio artifact, covering success,
	// rejection and panic alike.
	defer cleanup()

	transcribeStart := time.Now()
	rawText := uc.transcriber.Transcribe(ctx, path)
	if uc.observer != nil {
		uc.observer.ObserveTranscription(time.Since(transcribeStart))
	}

	if uc.rejectTranscriptionSentinel && uc.transcriber.IsSentinel(rawText) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "transcribe audio", errors.New(rawText))
	}

	// Transcription trouble is forwarded as text: structuring's own input
	// validation decides whether the request can still be rejected cleanly.
	result := uc.structure(ctx, rawText)
	if result.Err {
		return nil, rejectError(result)
	}

	id, err := uc.commit(ctx, &domain.Complaint{
		InputType:     domain.InputVoice,
		OriginalText:  rawText,
		ProcessedText: result.ProcessedText,
		Language:      uc.transcriber.Language(),
		Issue:         result.Issue,
		Area:          result.Area,
		Time:          result.Time,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Submission{ID: id, Summary: result.ProcessedText, Original: rawText}, nil
}

func (uc *IntakeUseCase) structure(ctx context.Context, rawText string) domain.StructuredResult {
	start := time.Now()
	result := uc.structurer.Structure(ctx, rawText)
	if uc.observer != nil {
		uc.observer.ObserveStructuring(time.Since(start))
	}
	return result
}

// commit inserts the record and then runs the best-effort post-commit steps.
// Backup and event failures are logged, never surfaced: the insert is the
// commit contract.
func (uc *IntakeUseCase) commit(ctx context.Context, c *domain.Complaint) (int64, error) {
	id, err := uc.repo.Insert(ctx, c)
	if err != nil {
		return 0, err
	}

	if records, listErr := uc.repo.ListAll(ctx); listErr != nil {
		slog.Warn("backup_snapshot_skipped", "complaint_id", id, "error", listErr)
		uc.notifyBackupFailed()
	} else if mirrorErr := uc.backup.Mirror(ctx, records); mirrorErr != nil {
		slog.Warn("backup_snapshot_failed", "complaint_id", id, "error", mirrorErr)
		uc.notifyBackupFailed()
	}

	if uc.events != nil {
		if pubErr := uc.events.PublishComplaintCommitted(ctx, id); pubErr != nil {
			slog.Warn("committed_event_publish_failed", "complaint_id", id, "error", pubErr)
			if uc.observer != nil {
				uc.observer.PublishFailed()
			}
		}
	}

	return id, nil
}

func (uc *IntakeUseCase) notifyBackupFailed() {
	if uc.observer != nil {
		uc.observer.BackupFailed()
	}
}

// rejectError keeps the structuring engine's human-readable cause as the
// client-visible message.
func rejectError(result domain.StructuredResult) error {
	kind := domain.ErrStructuringFailed
	if result.Issue == "Input Error" {
		kind = domain.ErrInvalidInput
	}
	return domain.WrapError(kind, "structure complaint", errors.New(result.ProcessedText))
}
