package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/hfiles/medical-records-api/internal/medicalfile/entity"
)

// FileRepo provides data access for the medical_files table using sqlx.
// Every read and delete is predicated on both id and owner in a single
// query, so a not-owned record is indistinguishable from a missing one.
type FileRepo struct {
	db *sqlx.DB
}

func NewFileRepo(db *sqlx.DB) *FileRepo { return &FileRepo{db: db} }

// EnsureTable creates the medical_files table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *FileRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS medical_files (
  id BIGINT PRIMARY KEY,
  file_type TEXT NOT NULL,
  file_name TEXT NOT NULL,
  stored_name TEXT NOT NULL,
  original_name TEXT NOT NULL,
  file_path TEXT NOT NULL,
  uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  user_id BIGINT NOT NULL REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_medical_files_owner ON medical_files(user_id, uploaded_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new file metadata row. The caller assigns the id.
func (r *FileRepo) Create(ctx context.Context, f *entity.MedicalFile) error {
	const q = `INSERT INTO medical_files (id, file_type, file_name, stored_name, original_name, file_path, uploaded_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q, f.ID, f.FileType, f.FileName, f.StoredName, f.OriginalName, f.FilePath, f.UploadedAt, f.UserID)
	return err
}

// ListByOwner returns all files owned by the caller, most recent first.
func (r *FileRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*entity.MedicalFile, error) {
	const q = `SELECT id, file_type, file_name, stored_name, original_name, file_path, uploaded_at, user_id
		FROM medical_files WHERE user_id=$1 ORDER BY uploaded_at DESC, id DESC`
	rows := []*entity.MedicalFile{}
	if err := r.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByOwner fetches a single file matched on both id and owner, or
// sql.ErrNoRows.
func (r *FileRepo) GetByOwner(ctx context.Context, ownerID, fileID int64) (*entity.MedicalFile, error) {
	const q = `SELECT id, file_type, file_name, stored_name, original_name, file_path, uploaded_at, user_id
		FROM medical_files WHERE id=$1 AND user_id=$2`
	var row entity.MedicalFile
	if err := r.db.GetContext(ctx, &row, q, fileID, ownerID); err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByOwner removes a file row matched on both id and owner. Returns
// sql.ErrNoRows when nothing matched.
func (r *FileRepo) DeleteByOwner(ctx context.Context, ownerID, fileID int64) error {
	const q = `DELETE FROM medical_files WHERE id=$1 AND user_id=$2`
	res, err := r.db.ExecContext(ctx, q, fileID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
