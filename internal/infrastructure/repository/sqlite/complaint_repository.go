package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

type ComplaintRepository struct {
	db *sql.DB
}

func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	// Single connection serializes writes; every repository operation is one
	// short statement, so this is the whole concurrency story for the store.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema is safe to run on every process start: it creates the table if
// absent and additively migrates older databases that predate the triage
// columns. Columns are never dropped or renamed. Status, priority and
// timestamp defaults live here and nowhere else.
func (r *ComplaintRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS complaints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	input_type TEXT,
	original_text TEXT,
	processed_text TEXT,
	language TEXT,
	issue TEXT,
	area TEXT,
	time TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	status TEXT DEFAULT 'Pending',
	priority TEXT DEFAULT 'Medium'
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	existing, err := r.tableColumns(ctx, "complaints")
	if err != nil {
		return err
	}

	migrations := map[string]string{
		"status":   `ALTER TABLE complaints ADD COLUMN status TEXT DEFAULT 'Pending'`,
		"priority": `ALTER TABLE complaints ADD COLUMN priority TEXT DEFAULT 'Medium'`,
	}
	for column, ddl := range migrations {
		if existing[column] {
			continue
		}
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("add column %s: %w", column, err)
		}
	}
	return nil
}

func (r *ComplaintRepository) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return columns, nil
}

// Insert writes the seven write-once fields; id, timestamp, status and
// priority come from the store.
func (r *ComplaintRepository) Insert(ctx context.Context, c *domain.Complaint) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO complaints (input_type, original_text, processed_text, language, issue, area, time)
VALUES (?,?,?,?,?,?,?)
`, string(c.InputType), c.OriginalText, c.ProcessedText, c.Language, c.Issue, c.Area, c.Time)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "insert complaint", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "read inserted id", err)
	}
	return id, nil
}

func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error {
	return r.updateField(ctx, id, "status", string(status))
}

func (r *ComplaintRepository) UpdatePriority(ctx context.Context, id int64, priority domain.ComplaintPriority) error {
	return r.updateField(ctx, id, "priority", string(priority))
}

func (r *ComplaintRepository) updateField(ctx context.Context, id int64, column, value string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE complaints SET %s = ? WHERE id = ?`, column), value, id)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update complaint "+column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update complaint "+column, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrComplaintNotFound, "update complaint "+column, fmt.Errorf("id=%d", id))
	}
	return nil
}

func (r *ComplaintRepository) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, input_type, original_text, processed_text, language, issue, area, time, timestamp, status, priority
FROM complaints
ORDER BY id ASC
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list complaints", err)
	}
	defer rows.Close()

	out := make([]domain.Complaint, 0)
	for rows.Next() {
		var (
			c         domain.Complaint
			inputType string
			rawTime   string
			status    string
			priority  string
		)
		if err := rows.Scan(
			&c.ID, &inputType, &c.OriginalText, &c.ProcessedText, &c.Language,
			&c.Issue, &c.Area, &c.Time, &rawTime, &status, &priority,
		); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan complaint", err)
		}
		c.InputType = domain.InputType(inputType)
		c.Timestamp = parseStoreTime(rawTime)
		c.Status = domain.ComplaintStatus(status)
		c.Priority = domain.ComplaintPriority(priority)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate complaints", err)
	}
	return out, nil
}

// Reset deletes every record and rewinds the id sequence. Administrative use
// only; callers are expected to mirror the backup afterwards.
func (r *ComplaintRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM complaints`); err != nil {
		return domain.WrapError(domain.ErrPersistence, "reset complaints", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name='complaints'`); err != nil {
		return domain.WrapError(domain.ErrPersistence, "reset id sequence", err)
	}
	return nil
}

// sqlite stores CURRENT_TIMESTAMP as "YYYY-MM-DD HH:MM:SS" in UTC.
const storeTimeLayout = "2006-01-02 15:04:05"

func parseStoreTime(raw string) time.Time {
	if ts, err := time.ParseInLocation(storeTimeLayout, raw, time.UTC); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Time{}
}
