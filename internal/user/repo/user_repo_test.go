package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/hfiles/medical-records-api/internal/user/entity"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreate(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(int64(1), "Jane Roe", "jane@x.com", "female", "555-0101", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Create(context.Background(), &entity.User{
		ID:           1,
		FullName:     "Jane Roe",
		Email:        "jane@x.com",
		Gender:       "female",
		PhoneNumber:  "555-0101",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	cols := []string{"id", "full_name", "email", "gender", "phone_number", "password_hash", "profile_image", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).
		WithArgs("jane@x.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Jane Roe", "jane@x.com", "female", "555-0101", "hash", nil, now))

	u, err := r.GetByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, "hash", u.PasswordHash)
	require.Nil(t, u.ProfileImage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=$1`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET email=$2, gender=$3, phone_number=$4 WHERE id=$1`)).
		WithArgs(int64(1), "new@x.com", "other", "555-0202").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.UpdateProfile(context.Background(), 1, "new@x.com", "other", "555-0202")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_MissingUser(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WithArgs(int64(404), "new@x.com", "other", "555-0202").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.UpdateProfile(context.Background(), 404, "new@x.com", "other", "555-0202")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileImage(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET profile_image=$2 WHERE id=$1`)).
		WithArgs(int64(1), "/profile-images/abc.png").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.UpdateProfileImage(context.Background(), 1, "/profile-images/abc.png")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("create user: %w", &pq.Error{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("unique_violation")))
	require.False(t, IsUniqueViolation(nil))
}
