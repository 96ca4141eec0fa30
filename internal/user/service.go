// Package user implements the credential store and auth flows: registration,
// login, profile reads and updates, and profile image handling.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hfiles/medical-records-api/internal/token"
	"github.com/hfiles/medical-records-api/internal/user/entity"
	userrepo "github.com/hfiles/medical-records-api/internal/user/repo"
	"github.com/hfiles/medical-records-api/pkg/blob"
	"github.com/hfiles/medical-records-api/pkg/utilities"
)

// MaxProfileImageBytes is the size ceiling for uploaded profile images.
const MaxProfileImageBytes = 2 << 20

// profileImagePrefix is the web path prefix under which profile images are
// served; the stored location is prefix + stored name.
const profileImagePrefix = "/profile-images/"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrBadCredentials   = errors.New("invalid credentials")
	ErrNotFound         = errors.New("user not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap
// to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Store is the persistence surface the service needs from the user repo.
type Store interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateProfile(ctx context.Context, id int64, email, gender, phone string) error
	UpdateProfileImage(ctx context.Context, id int64, location string) error
}

// BlobStore is the payload-store surface used for profile images.
type BlobStore interface {
	Save(area, name string, r io.Reader) (string, error)
	Remove(area, name string) error
}

// Service orchestrates registration, authentication, and profile flows.
type Service struct {
	store  Store
	hasher PasswordHasher
	tokens *token.Service
	blobs  BlobStore
	logger *zap.SugaredLogger
}

func NewService(store Store, hasher PasswordHasher, tokens *token.Service, blobs BlobStore, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, blobs: blobs, logger: logger}
}

// Register creates a user and, on success, issues a token as if login had
// succeeded. Duplicate emails yield ErrEmailTaken, detected from the unique
// index rather than a racy pre-check.
func (s *Service) Register(ctx context.Context, fullName, email, gender, phone, password string) (string, *entity.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	gender = strings.TrimSpace(gender)
	phone = strings.TrimSpace(phone)
	if fullName == "" || gender == "" || phone == "" || password == "" || !validEmail(email) {
		return "", nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           utilities.NewID(),
		FullName:     fullName,
		Email:        email,
		Gender:       gender,
		PhoneNumber:  phone,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		if userrepo.IsUniqueViolation(err) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, u.Public(), nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords both yield ErrBadCredentials; the distinction is only logged.
func (s *Service) Login(ctx context.Context, email, password string) (string, *entity.PublicUser, error) {
	u, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debugw("login failed", "reason", "unknown email")
			return "", nil, ErrBadCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.logger.Debugw("login failed", "reason", "password mismatch", "user_id", u.ID)
		return "", nil, ErrBadCredentials
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, u.Public(), nil
}

// Profile returns the public view of the user behind a verified token.
func (s *Service) Profile(ctx context.Context, userID int64) (*entity.PublicUser, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u.Public(), nil
}

// UpdateProfile overwrites email, gender, and phone number. Full name and
// password are immutable through this path.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, email, gender, phone string) error {
	email = normalizeEmail(email)
	gender = strings.TrimSpace(gender)
	phone = strings.TrimSpace(phone)
	if gender == "" || phone == "" || !validEmail(email) {
		return ErrInvalidInput
	}
	if err := s.store.UpdateProfile(ctx, userID, email, gender, phone); err != nil {
		if userrepo.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateProfileImage validates and stores a new profile image under a fresh
// generated name, removes the previous image best-effort, and records the
// new location on the user. Returns the web path of the stored image.
func (s *Service) UpdateProfileImage(ctx context.Context, userID int64, payload io.Reader, size int64, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}
	if size <= 0 {
		return "", ErrInvalidInput
	}
	if size > MaxProfileImageBytes {
		return "", ErrImageTooLarge
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	storedName := utilities.NewKSUID() + ext
	if _, err := s.blobs.Save(blob.AreaProfileImages, storedName, io.LimitReader(payload, size)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	location := profileImagePrefix + storedName
	if err := s.store.UpdateProfileImage(ctx, userID, location); err != nil {
		return "", fmt.Errorf("record image: %w", err)
	}

	// best-effort: a stale previous image must not fail the request
	if u.ProfileImage != nil && *u.ProfileImage != "" {
		if err := s.blobs.Remove(blob.AreaProfileImages, path.Base(*u.ProfileImage)); err != nil {
			s.logger.Warnw("failed to remove previous profile image", "user_id", userID, "err", err)
		}
	}
	return location, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
