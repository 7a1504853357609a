package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// UnusablePassword is stored for accounts created without a password
// (admin-created users). No bcrypt hash ever equals it.
const UnusablePassword = "!"

// User is the account record owned by the credential store.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	VerifiedEmail bool      `json:"verified_email"`
	IsStaff       bool      `json:"is_staff"`
	DateJoined    time.Time `json:"date_joined"`
	Avatar        string    `json:"avatar,omitempty"`
}

// HasUsablePassword reports whether the account can log in with a password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != "" && u.PasswordHash != UnusablePassword
}

// NormalizeEmail lower-cases the domain part only, leaving the local part as
// typed. Uniqueness checks compare the fully folded form (EmailKey).
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// EmailKey is the case-folded email used for case-insensitive lookups.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EncodeUID renders a user id as the opaque reference carried in links:
// unpadded URL-safe base64 of the decimal id.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID. Any malformed reference is reported as
// ErrNotFound so callers cannot tell a bad encoding from an unknown user.
func DecodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, ErrNotFound
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}
