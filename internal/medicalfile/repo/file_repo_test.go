package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hfiles/medical-records-api/internal/medicalfile/entity"
)

func newMockRepo(t *testing.T) (*FileRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFileRepo(sqlx.NewDb(db, "sqlmock")), mock
}

var fileCols = []string{"id", "file_type", "file_name", "stored_name", "original_name", "file_path", "uploaded_at", "user_id"}

func TestCreate(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO medical_files`)).
		WithArgs(int64(10), "xray", "Knee X-Ray", "ksuid.png", "xray.png", "/data/uploads/ksuid.png", now, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Create(context.Background(), &entity.MedicalFile{
		ID:           10,
		FileType:     "xray",
		FileName:     "Knee X-Ray",
		StoredName:   "ksuid.png",
		OriginalName: "xray.png",
		FilePath:     "/data/uploads/ksuid.png",
		UploadedAt:   now,
		UserID:       1,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner_OrderedMostRecentFirst(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM medical_files WHERE user_id=$1 ORDER BY uploaded_at DESC, id DESC`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow(int64(11), "xray", "B", "b.png", "b.png", "/p/b", now, int64(1)).
			AddRow(int64(10), "mri", "A", "a.pdf", "a.pdf", "/p/a", now.Add(-time.Hour), int64(1)))

	files, err := r.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, int64(11), files[0].ID)
	require.Equal(t, int64(10), files[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner_Empty(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM medical_files WHERE user_id=$1`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(fileCols))

	files, err := r.ListByOwner(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, files)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByOwner_PredicatesOnBothIDAndOwner(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM medical_files WHERE id=$1 AND user_id=$2`)).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow(int64(10), "xray", "Knee X-Ray", "k.png", "xray.png", "/p/k", now, int64(1)))

	f, err := r.GetByOwner(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), f.ID)
	require.Equal(t, int64(1), f.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByOwner_NotOwned(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id=$1 AND user_id=$2`)).
		WithArgs(int64(10), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetByOwner(context.Background(), 2, 10)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByOwner(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM medical_files WHERE id=$1 AND user_id=$2`)).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.DeleteByOwner(context.Background(), 1, 10))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByOwner_NoMatch(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM medical_files`)).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.DeleteByOwner(context.Background(), 2, 10)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
