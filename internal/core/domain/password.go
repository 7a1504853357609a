package domain

import "unicode/utf8"

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

// CheckPasswordPolicy returns a human-readable reason when password is not
// acceptable, or "" when it is.
func CheckPasswordPolicy(password string) string {
	switch {
	case password == "":
		return "This field is required."
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return "Ensure this field has at least 8 characters."
	case len(password) > MaxPasswordBytes:
		return "Ensure this field has no more than 72 bytes."
	}
	return ""
}

// CheckPasswordPair validates a new password and its confirmation, adding
// messages under the given field names.
func CheckPasswordPair(ve *ValidationError, field, confirmField, password, confirm string) {
	if msg := CheckPasswordPolicy(password); msg != "" {
		ve.Add(field, msg)
	}
	if confirm == "" {
		ve.Add(confirmField, "This field is required.")
		return
	}
	if password != confirm {
		ve.Add(confirmField, "The two password fields didn't match.")
	}
}
