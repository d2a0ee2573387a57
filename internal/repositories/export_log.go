package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

// ErrExportNotFound is returned when an export record does not exist.
var ErrExportNotFound = errors.New("export record not found")

// ExportLogRepository persists [models.ExportRecord] rows.
type ExportLogRepository struct {
	db *sql.DB
}

// NewExportLogRepository creates a new [ExportLogRepository] with the given database connection
func NewExportLogRepository(db *sql.DB) *ExportLogRepository {
	return &ExportLogRepository{db: db}
}

// Create inserts rec, assigning an ID and timestamp when unset.
func (r *ExportLogRepository) Create(rec *models.ExportRecord) error {
	if rec.Filename == "" || rec.Format == "" || rec.Path == "" {
		return fmt.Errorf("%w: export record requires filename, format and path", shared.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO export_log (id, transcript_id, filename, format, path, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, rec.ID, rec.TranscriptID, rec.Filename, rec.Format, rec.Path, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *ExportLogRepository) Get(id string) (*models.ExportRecord, error) {
	query := `
		SELECT id, transcript_id, filename, format, path, created_at
		FROM export_log
		WHERE id = ?
	`

	rec, err := scanExportRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query export record: %w", err)
	}
	return rec, nil
}

// List returns the most recent records first. A non-positive limit returns everything.
func (r *ExportLogRepository) List(limit int) ([]*models.ExportRecord, error) {
	query := `
		SELECT id, transcript_id, filename, format, path, created_at
		FROM export_log
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ForTranscript returns the records written for one transcript, most recent first.
func (r *ExportLogRepository) ForTranscript(transcriptID int) ([]*models.ExportRecord, error) {
	query := `
		SELECT id, transcript_id, filename, format, path, created_at
		FROM export_log
		WHERE transcript_id = ?
		ORDER BY created_at DESC, id
	`
	return r.query(query, transcriptID)
}

// Delete removes a record by ID.
func (r *ExportLogRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM export_log WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export record: %w", err)
	}
	return requireAffected(result, ErrExportNotFound, id)
}

func (r *ExportLogRepository) query(query string, args ...any) ([]*models.ExportRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export log: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		rec, err := scanExportRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExportRecord(s scanner) (*models.ExportRecord, error) {
	var rec models.ExportRecord
	if err := s.Scan(&rec.ID, &rec.TranscriptID, &rec.Filename, &rec.Format, &rec.Path, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
