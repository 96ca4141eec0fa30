package entity

import "time"

// User represents an account row in the `users` table. The password is only
// ever stored as a bcrypt hash.
type User struct {
	ID           int64     `db:"id"`
	FullName     string    `db:"full_name"`
	Email        string    `db:"email"`
	Gender       string    `db:"gender"`
	PhoneNumber  string    `db:"phone_number"`
	PasswordHash string    `db:"password_hash"`
	ProfileImage *string   `db:"profile_image"`
	CreatedAt    time.Time `db:"created_at"`
}

// PublicUser is the projection returned to API callers. It never carries
// the password hash.
type PublicUser struct {
	ID           int64   `json:"id"`
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	Gender       string  `json:"gender"`
	PhoneNumber  string  `json:"phoneNumber"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// Public returns the caller-facing projection of a user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		Gender:       u.Gender,
		PhoneNumber:  u.PhoneNumber,
		ProfileImage: u.ProfileImage,
	}
}
