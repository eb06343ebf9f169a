package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
	"github.com/civicgrid/complaint-intake/internal/core/ports"
)

// AdminUseCase covers triage: listing, status/priority updates, CSV export and
// the administrative reset.
type AdminUseCase struct {
	repo   ports.ComplaintRepository
	backup ports.BackupSink
}

func NewAdminUseCase(repo ports.ComplaintRepository, backup ports.BackupSink) *AdminUseCase {
	return &AdminUseCase{repo: repo, backup: backup}
}

func (uc *AdminUseCase) List(ctx context.Context) ([]domain.Complaint, error) {
	return uc.repo.ListAll(ctx)
}

func (uc *AdminUseCase) SetStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error {
	if status == "" {
		return domain.WrapError(domain.ErrInvalidInput, "set status", errors.New("status is required"))
	}
	return uc.repo.UpdateStatus(ctx, id, status)
}

func (uc *AdminUseCase) SetPriority(ctx context.Context, id int64, priority domain.ComplaintPriority) error {
	if priority == "" {
		return domain.WrapError(domain.ErrInvalidInput, "set priority", errors.New("priority is required"))
	}
	return uc.repo.UpdatePriority(ctx, id, priority)
}

var exportHeader = []string{
	"id", "input_type", "original_text", "processed_text", "language",
	"issue", "area", "time", "timestamp", "status", "priority",
}

func (uc *AdminUseCase) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := uc.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, c := range records {
		row := []string{
			strconv.FormatInt(c.ID, 10),
			string(c.InputType),
			c.OriginalText,
			c.ProcessedText,
			c.Language,
			c.Issue,
			c.Area,
			c.Time,
			c.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			string(c.Status),
			string(c.Priority),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Reset deletes every record and mirrors the now-empty set so the backup
// snapshot does not resurrect cleared complaints.
func (uc *AdminUseCase) Reset(ctx context.Context) error {
	if err := uc.repo.Reset(ctx); err != nil {
		return err
	}
	if err := uc.backup.Mirror(ctx, []domain.Complaint{}); err != nil {
		slog.Warn("backup_reset_failed", "error", err)
	}
	return nil
}
