// Package medicalfile implements the ownership-scoped file store: uploads,
// listing, metadata reads, downloads, and deletion of a user's medical
// documents.
package medicalfile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hfiles/medical-records-api/internal/medicalfile/entity"
	"github.com/hfiles/medical-records-api/pkg/blob"
	"github.com/hfiles/medical-records-api/pkg/utilities"
)

var fileExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var (
	// ErrNotFound covers both a missing record and a record owned by
	// someone else; callers cannot probe for other users' files.
	ErrNotFound        = errors.New("file not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidInput    = errors.New("invalid input")
)

// Store is the persistence surface the service needs from the file repo.
type Store interface {
	Create(ctx context.Context, f *entity.MedicalFile) error
	ListByOwner(ctx context.Context, ownerID int64) ([]*entity.MedicalFile, error)
	GetByOwner(ctx context.Context, ownerID, fileID int64) (*entity.MedicalFile, error)
	DeleteByOwner(ctx context.Context, ownerID, fileID int64) error
}

// BlobStore is the payload-store surface used for uploaded documents.
type BlobStore interface {
	Save(area, name string, r io.Reader) (string, error)
	Open(area, name string) (io.ReadCloser, error)
	Remove(area, name string) error
}

// Service orchestrates payload storage and metadata persistence. Upload and
// delete are not transactional across the two: a crash between payload
// write and metadata insert leaves an orphaned payload behind, which is
// accepted here.
type Service struct {
	store  Store
	blobs  BlobStore
	logger *zap.SugaredLogger
}

func NewService(store Store, blobs BlobStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, blobs: blobs, logger: logger}
}

// Upload validates the original name against the extension allow-list,
// stores the payload under a generated name, then persists metadata.
func (s *Service) Upload(ctx context.Context, ownerID int64, fileType, displayName string, payload io.Reader, size int64, originalName string) (*entity.MedicalFile, error) {
	fileType = strings.TrimSpace(fileType)
	displayName = strings.TrimSpace(displayName)
	if fileType == "" || displayName == "" || size <= 0 {
		return nil, ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !fileExtensions[ext] {
		return nil, ErrUnsupportedType
	}

	storedName := utilities.NewKSUID() + ext
	path, err := s.blobs.Save(blob.AreaUploads, storedName, io.LimitReader(payload, size))
	if err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}

	f := &entity.MedicalFile{
		ID:           utilities.NewID(),
		FileType:     fileType,
		FileName:     displayName,
		StoredName:   storedName,
		OriginalName: originalName,
		FilePath:     path,
		UploadedAt:   time.Now().UTC(),
		UserID:       ownerID,
	}
	if err := s.store.Create(ctx, f); err != nil {
		// payload already on disk; the orphan is accepted rather than
		// attempting a compensating cleanup
		s.logger.Warnw("metadata insert failed after payload write", "stored_name", storedName, "err", err)
		return nil, fmt.Errorf("persist metadata: %w", err)
	}
	return f, nil
}

// List returns the caller's files, most recent upload first.
func (s *Service) List(ctx context.Context, ownerID int64) ([]*entity.MedicalFile, error) {
	files, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// GetByID returns a single file's metadata under the ownership rule.
func (s *Service) GetByID(ctx context.Context, ownerID, fileID int64) (*entity.MedicalFile, error) {
	f, err := s.store.GetByOwner(ctx, ownerID, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// Download opens the payload for a file under the ownership rule. Metadata
// whose payload has gone missing from storage also reports ErrNotFound.
func (s *Service) Download(ctx context.Context, ownerID, fileID int64) (io.ReadCloser, *entity.MedicalFile, error) {
	f, err := s.GetByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(blob.AreaUploads, f.StoredName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warnw("payload missing for stored metadata", "file_id", f.ID, "stored_name", f.StoredName)
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open payload: %w", err)
	}
	return rc, f, nil
}

// Delete removes the physical payload best-effort, then always removes the
// metadata row. A missing payload is not an error; a failed physical delete
// is logged but does not leave the row behind.
func (s *Service) Delete(ctx context.Context, ownerID, fileID int64) error {
	f, err := s.GetByID(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if err := s.blobs.Remove(blob.AreaUploads, f.StoredName); err != nil {
		s.logger.Warnw("failed to remove payload", "file_id", f.ID, "stored_name", f.StoredName, "err", err)
	}
	if err := s.store.DeleteByOwner(ctx, ownerID, fileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// raced with another delete of the same record
			return ErrNotFound
		}
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}
