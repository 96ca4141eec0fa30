package entity

import "time"

// MedicalFile represents a row in the `medical_files` table. Every file is
// owned by exactly one user; the stored name is generated and never derived
// from caller input. The disk path is never serialized to API responses.
type MedicalFile struct {
	ID           int64     `db:"id" json:"id"`
	FileType     string    `db:"file_type" json:"fileType"`
	FileName     string    `db:"file_name" json:"fileName"`
	StoredName   string    `db:"stored_name" json:"storedName"`
	OriginalName string    `db:"original_name" json:"originalName"`
	FilePath     string    `db:"file_path" json:"-"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadedAt"`
	UserID       int64     `db:"user_id" json:"-"`
}
