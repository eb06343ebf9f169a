package sqlite

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ComplaintRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ComplaintRepository{db: db}, mock, func() { _ = db.Close() }
}

func tableInfoColumns() []string {
	return []string{"cid", "name", "type", "notnull", "dflt_value", "pk"}
}

func fullTableInfo() *sqlmock.Rows {
	rows := sqlmock.NewRows(tableInfoColumns())
	for i, name := range []string{
		"id", "input_type", "original_text", "processed_text", "language",
		"issue", "area", "time", "timestamp", "status", "priority",
	} {
		rows.AddRow(i, name, "TEXT", 0, nil, 0)
	}
	return rows
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	for i := 0; i < 2; i++ {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS complaints").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("PRAGMA table_info").
			WillReturnRows(fullTableInfo())
	}

	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() first run error = %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaAddsMissingTriageColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	legacy := sqlmock.NewRows(tableInfoColumns())
	for i, name := range []string{
		"id", "input_type", "original_text", "processed_text", "language",
		"issue", "area", "time", "timestamp",
	} {
		legacy.AddRow(i, name, "TEXT", 0, nil, 0)
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS complaints").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("PRAGMA table_info").
		WillReturnRows(legacy)
	mock.ExpectExec("ALTER TABLE complaints ADD COLUMN").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE complaints ADD COLUMN").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertLeavesTriageDefaultsToStore(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO complaints").
		WithArgs("text", "raw", "summary", "Hinglish", "Road Damage", "Main St", "3 days").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Insert(context.Background(), &domain.Complaint{
		InputType:     domain.InputText,
		OriginalText:  "raw",
		ProcessedText: "summary",
		Language:      "Hinglish",
		Issue:         "Road Damage",
		Area:          "Main St",
		Time:          "3 days",
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertWrapsPersistenceFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO complaints").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.Insert(context.Background(), &domain.Complaint{InputType: domain.InputText})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestUpdateStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE complaints SET status").
		WithArgs(string(domain.StatusResolved), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 42, domain.StatusResolved)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePriorityTargetsSingleRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE complaints SET priority").
		WithArgs(string(domain.PriorityHigh), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePriority(context.Background(), 3, domain.PriorityHigh); err != nil {
		t.Fatalf("UpdatePriority() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAllReturnsRecordsInStorageOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "input_type", "original_text", "processed_text", "language",
		"issue", "area", "time", "timestamp", "status", "priority",
	}).
		AddRow(1, "text", "raw one", "sum one", "English", "Garbage Collection", "Not Specified", "Not Specified", "2026-08-30 10:00:00", "Pending", "Medium").
		AddRow(2, "voice", "raw two", "sum two", "Hindi", "Water Leakage", "Sector 9", "1 week", "2026-08-31 11:30:00", "Resolved", "High")

	mock.ExpectQuery("SELECT id, input_type, original_text").
		WillReturnRows(rows)

	records, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Fatalf("expected ascending ids, got %d then %d", records[0].ID, records[1].ID)
	}
	if records[0].Status != domain.StatusPending || records[0].Priority != domain.PriorityMedium {
		t.Fatalf("expected store defaults on first record, got %+v", records[0])
	}
	if records[1].InputType != domain.InputVoice || records[1].Status != domain.StatusResolved {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
	if records[0].Timestamp.IsZero() {
		t.Fatalf("expected parsed timestamp")
	}
}

func TestResetClearsTableAndSequence(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM complaints").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("DELETE FROM sqlite_sequence").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
