package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

type fakeRepo struct {
	records   []domain.Complaint
	insertErr error
	listErr   error
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (f *fakeRepo) Insert(_ context.Context, c *domain.Complaint) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	stored := *c
	stored.ID = int64(len(f.records) + 1)
	stored.Status = domain.StatusPending
	stored.Priority = domain.PriorityMedium
	f.records = append(f.records, stored)
	return stored.ID, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status domain.ComplaintStatus) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Status = status
			return nil
		}
	}
	return domain.WrapError(domain.ErrComplaintNotFound, "update status", errors.New("missing"))
}

func (f *fakeRepo) UpdatePriority(_ context.Context, id int64, priority domain.ComplaintPriority) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Priority = priority
			return nil
		}
	}
	return domain.WrapError(domain.ErrComplaintNotFound, "update priority", errors.New("missing"))
}

func (f *fakeRepo) ListAll(context.Context) ([]domain.Complaint, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Complaint(nil), f.records...), nil
}

func (f *fakeRepo) Reset(context.Context) error {
	f.records = nil
	return nil
}

type fakeStructurer struct {
	result   domain.StructuredResult
	captured []string
}

func (f *fakeStructurer) Structure(_ context.Context, rawText string) domain.StructuredResult {
	f.captured = append(f.captured, rawText)
	if strings.TrimSpace(rawText) == "" {
		return domain.StructuredResult{
			ProcessedText: "Error: No complaint text provided.",
			Issue:         "Input Error",
			Area:          domain.NotSpecified,
			Time:          domain.NotSpecified,
			Err:           true,
		}
	}
	return f.result
}

type fakeTranscriber struct {
	text     string
	language string
}

func (f *fakeTranscriber) Transcribe(context.Context, string) string { return f.text }
func (f *fakeTranscriber) Language() string                          { return f.language }
func (f *fakeTranscriber) IsSentinel(text string) bool {
	return strings.HasPrefix(text, "Transcription failed: ") || text == "No speech detected"
}

type fakeScratch struct {
	dir     string
	path    string
	cleaned bool
}

func (f *fakeScratch) Save(_ context.Context, filename string, data io.Reader) (string, func(), error) {
	f.path = filepath.Join(f.dir, filename)
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(f.path, raw, 0o644); err != nil {
		return "", nil, err
	}
	return f.path, func() {
		f.cleaned = true
		_ = os.Remove(f.path)
	}, nil
}

type fakeBackup struct {
	snapshots [][]domain.Complaint
	err       error
}

func (f *fakeBackup) Mirror(_ context.Context, records []domain.Complaint) error {
	if f.err != nil {
		return f.err
	}
	f.snapshots = append(f.snapshots, records)
	return nil
}

type fakeEvents struct {
	published []int64
	err       error
}

func (f *fakeEvents) PublishComplaintCommitted(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func goodResult() domain.StructuredResult {
	return domain.StructuredResult{
		ProcessedText: "Pothole on Main St",
		Issue:         "Road Damage",
		Area:          "Main St",
		Time:          "3 days",
	}
}

func TestSubmitTextCommitsAndMirrors(t *testing.T) {
	repo := &fakeRepo{}
	backup := &fakeBackup{}
	events := &fakeEvents{}
	uc := NewIntakeUseCase(repo, &fakeStructurer{result: goodResult()}, nil, nil, backup, IntakeOptions{Events: events})

	sub, err := uc.SubmitText(context.Background(), "sadak kharab hai", "Hinglish")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if sub.ID != 1 || sub.Summary != "Pothole on Main St" {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.InputType != domain.InputText || rec.OriginalText != "sadak kharab hai" || rec.Language != "Hinglish" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Issue != "Road Damage" || rec.Area != "Main St" || rec.Time != "3 days" {
		t.Fatalf("structured fields not persisted: %+v", rec)
	}

	if len(backup.snapshots) != 1 || len(backup.snapshots[0]) != 1 {
		t.Fatalf("expected one full snapshot, got %+v", backup.snapshots)
	}
	if len(events.published) != 1 || events.published[0] != 1 {
		t.Fatalf("expected committed event for id 1, got %v", events.published)
	}
}

func TestSubmitTextRejectsOnStructuringFailure(t *testing.T) {
	repo := &fakeRepo{}
	structurer := &fakeStructurer{result: domain.StructuredResult{
		ProcessedText: "Error: Failed to process complaint (System Busy: endpoint down).",
		Issue:         "Other Civic Issue",
		Area:          domain.NotSpecified,
		Time:          domain.NotSpecified,
		Err:           true,
	}}
	uc := NewIntakeUseCase(repo, structurer, nil, nil, &fakeBackup{}, IntakeOptions{})

	_, err := uc.SubmitText(context.Background(), "streetlight broken", "English")
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if !domain.IsKind(err, domain.ErrStructuringFailed) {
		t.Fatalf("expected ErrStructuringFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "endpoint down") {
		t.Fatalf("expected failure cause in error, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("no partial persistence allowed, got %d records", len(repo.records))
	}
}

func TestSubmitTextEmptyInputIsInvalidInput(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewIntakeUseCase(repo, &fakeStructurer{}, nil, nil, &fakeBackup{}, IntakeOptions{})

	_, err := uc.SubmitText(context.Background(), "   ", "English")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitTextBackupFailureDoesNotFailRequest(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewIntakeUseCase(repo, &fakeStructurer{result: goodResult()}, nil, nil, &fakeBackup{err: errors.New("disk full")}, IntakeOptions{})

	if _, err := uc.SubmitText(context.Background(), "pothole", "English"); err != nil {
		t.Fatalf("backup failure must not fail the request, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("insert must stand despite backup failure")
	}
}

func TestSubmitTextPersistenceFailureSurfaces(t *testing.T) {
	repo := &fakeRepo{insertErr: domain.WrapError(domain.ErrPersistence, "insert complaint", errors.New("db locked"))}
	uc := NewIntakeUseCase(repo, &fakeStructurer{result: goodResult()}, nil, nil, &fakeBackup{}, IntakeOptions{})

	_, err := uc.SubmitText(context.Background(), "pothole", "English")
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestSubmitVoiceCommitsTranscriptionAndCleansUp(t *testing.T) {
	repo := &fakeRepo{}
	scratch := &fakeScratch{dir: t.TempDir()}
	transcriber := &fakeTranscriber{text: "paani ki samasya sector 9", language: "Hindi"}
	uc := NewIntakeUseCase(repo, &fakeStructurer{result: goodResult()}, transcriber, scratch, &fakeBackup{}, IntakeOptions{})

	sub, err := uc.SubmitVoice(context.Background(), "clip.ogg", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("SubmitVoice() error = %v", err)
	}
	if sub.Original != "paani ki samasya sector 9" {
		t.Fatalf("expected original transcription in response, got %q", sub.Original)
	}

	rec := repo.records[0]
	if rec.InputType != domain.InputVoice || rec.OriginalText != "paani ki samasya sector 9" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Language != "Hindi" {
		t.Fatalf("expected transcriber language label, got %q", rec.Language)
	}

	if !scratch.cleaned {
		t.Fatalf("scratch audio must be cleaned up on success")
	}
	if _, err := os.Stat(scratch.path); !os.IsNotExist(err) {
		t.Fatalf("scratch file must not exist after request")
	}
}

func TestSubmitVoiceCleansUpOnRejection(t *testing.T) {
	scratch := &fakeScratch{dir: t.TempDir()}
	transcriber := &fakeTranscriber{text: "", language: "Hindi"}
	uc := NewIntakeUseCase(&fakeRepo{}, &fakeStructurer{}, transcriber, scratch, &fakeBackup{}, IntakeOptions{})

	_, err := uc.SubmitVoice(context.Background(), "clip.ogg", strings.NewReader("audio"))
	if err == nil {
		t.Fatalf("expected rejection for empty transcription")
	}
	if !scratch.cleaned {
		t.Fatalf("scratch audio must be cleaned up on rejection")
	}
}

func TestSubmitVoiceForwardsSentinelByDefault(t *testing.T) {
	structurer := &fakeStructurer{result: goodResult()}
	transcriber := &fakeTranscriber{text: "Transcription failed: codec error", language: "Hindi"}
	scratch := &fakeScratch{dir: t.TempDir()}
	uc := NewIntakeUseCase(&fakeRepo{}, structurer, transcriber, scratch, &fakeBackup{}, IntakeOptions{})

	sub, err := uc.SubmitVoice(context.Background(), "clip.ogg", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("sentinel forwarding must not fail the request, got %v", err)
	}
	if len(structurer.captured) != 1 || structurer.captured[0] != "Transcription failed: codec error" {
		t.Fatalf("expected sentinel forwarded to structuring, got %v", structurer.captured)
	}
	if sub.Original != "Transcription failed: codec error" {
		t.Fatalf("expected sentinel as original text, got %q", sub.Original)
	}
}

func TestSubmitVoiceRejectsSentinelWhenConfigured(t *testing.T) {
	structurer := &fakeStructurer{result: goodResult()}
	transcriber := &fakeTranscriber{text: "No speech detected", language: "Hindi"}
	scratch := &fakeScratch{dir: t.TempDir()}
	uc := NewIntakeUseCase(&fakeRepo{}, structurer, transcriber, scratch, &fakeBackup{}, IntakeOptions{
		RejectTranscriptionSentinel: true,
	})

	_, err := uc.SubmitVoice(context.Background(), "clip.ogg", strings.NewReader("audio"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(structurer.captured) != 0 {
		t.Fatalf("structuring must not run for rejected sentinel, got %v", structurer.captured)
	}
	if !scratch.cleaned {
		t.Fatalf("scratch audio must be cleaned up on sentinel rejection")
	}
}
