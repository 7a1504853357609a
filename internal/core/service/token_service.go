package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/incuna/user-management/internal/core/domain"
)

const (
	PurposePasswordReset = "password_reset"
	PurposeVerification  = "email_verification"

	defaultTokenBucket = 24 * time.Hour
	signatureBytes     = 20
)

// Fingerprint selects the mutable account state a token is bound to.
type Fingerprint func(u *domain.User) string

// PasswordFingerprint binds a token to the current password hash, so a
// completed reset invalidates every token issued before it.
func PasswordFingerprint(u *domain.User) string {
	return u.PasswordHash
}

// VerificationFingerprint binds a token to the active and verified flags.
func VerificationFingerprint(u *domain.User) string {
	return "active=" + strconv.FormatBool(u.IsActive) + ";verified=" + strconv.FormatBool(u.VerifiedEmail)
}

// ActionTokens issues stateless tokens of the form "<id base36>-<mac>".
// The MAC covers (purpose, id, fingerprint, time bucket) and is checked by
// recomputation against the current and previous bucket.
type ActionTokens struct {
	purpose     string
	keys        [][]byte
	bucket      time.Duration
	fingerprint Fingerprint
	now         func() time.Time
}

// TokenOptions configures ActionTokens. Secret signs new tokens; Fallbacks
// are still accepted for validation while a secret is being rotated out.
type TokenOptions struct {
	Secret    string
	Fallbacks []string
	Bucket    time.Duration
	Now       func() time.Time
}

func NewActionTokens(purpose string, fp Fingerprint, opts TokenOptions) *ActionTokens {
	bucket := opts.Bucket
	if bucket < time.Second {
		bucket = defaultTokenBucket
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	keys := make([][]byte, 0, 1+len(opts.Fallbacks))
	keys = append(keys, deriveKey(opts.Secret, purpose))
	for _, s := range opts.Fallbacks {
		if s == "" {
			continue
		}
		keys = append(keys, deriveKey(s, purpose))
	}

	return &ActionTokens{
		purpose:     purpose,
		keys:        keys,
		bucket:      bucket,
		fingerprint: fp,
		now:         now,
	}
}

// NewPasswordResetTokens returns tokens bound to the password hash.
func NewPasswordResetTokens(opts TokenOptions) *ActionTokens {
	return NewActionTokens(PurposePasswordReset, PasswordFingerprint, opts)
}

// NewVerificationTokens returns tokens bound to the active/verified flags.
func NewVerificationTokens(opts TokenOptions) *ActionTokens {
	return NewActionTokens(PurposeVerification, VerificationFingerprint, opts)
}

// Issue returns a token for user valid in the current bucket.
func (t *ActionTokens) Issue(user *domain.User) string {
	sig := t.sign(t.keys[0], user.ID, t.fingerprint(user), t.currentBucket())
	return strconv.FormatInt(user.ID, 36) + "-" + base64.RawURLEncoding.EncodeToString(sig)
}

// Validate reports whether token was issued for user's current state in the
// current or the preceding bucket. Every failure is a plain false.
func (t *ActionTokens) Validate(token string, user *domain.User) bool {
	if user == nil {
		return false
	}

	idPart, sigPart, found := strings.Cut(token, "-")
	id, idErr := strconv.ParseInt(idPart, 36, 64)
	given, sigErr := base64.RawURLEncoding.DecodeString(sigPart)

	// The comparisons below run regardless of parse results so that a
	// malformed token costs the same as a forged one.
	fp := t.fingerprint(user)
	bucket := t.currentBucket()
	match := 0
	for _, key := range t.keys {
		for _, b := range []int64{bucket, bucket - 1} {
			match |= subtle.ConstantTimeCompare(given, t.sign(key, user.ID, fp, b))
		}
	}

	return found && idErr == nil && sigErr == nil && id == user.ID && match == 1
}

func (t *ActionTokens) currentBucket() int64 {
	return t.now().UnixNano() / int64(t.bucket)
}

func (t *ActionTokens) sign(key []byte, id int64, fingerprint string, bucket int64) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(t.purpose))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(id, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(fingerprint))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(bucket, 10)))
	return mac.Sum(nil)[:signatureBytes]
}

func deriveKey(secret, purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("user-management.tokens." + purpose))
	return mac.Sum(nil)
}
