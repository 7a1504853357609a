package domain

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeUID_RoundTrip(t *testing.T) {
	for _, id := range []int64{1, 42, 9007199254740993} {
		uid := EncodeUID(id)
		if strings.ContainsAny(uid, "+/=") {
			t.Fatalf("uid %q is not url-safe", uid)
		}
		got, err := DecodeUID(uid)
		if err != nil {
			t.Fatalf("DecodeUID(%q): %v", uid, err)
		}
		if got != id {
			t.Fatalf("expected %d, got %d", id, got)
		}
	}
}

func raw(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestDecodeUID_Invalid(t *testing.T) {
	cases := []string{
		"",
		"!!!",
		raw("0"),
		raw("-3"),
		raw("abc"),
	}
	for _, uid := range cases {
		if _, err := DecodeUID(uid); !errors.Is(err, ErrNotFound) {
			t.Errorf("DecodeUID(%q): expected ErrNotFound, got %v", uid, err)
		}
	}
}

func TestDecodeUID_AcceptsPadding(t *testing.T) {
	// "12" encodes to "MTI" unpadded, "MTI=" padded.
	id, err := DecodeUID("MTI=")
	if err != nil || id != 12 {
		t.Fatalf("expected 12, got %d (%v)", id, err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Bobby.Tables@XKCD.COM "); got != "Bobby.Tables@xkcd.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
	if got := EmailKey("Bobby.Tables@XKCD.com"); got != "bobby.tables@xkcd.com" {
		t.Fatalf("unexpected email key %q", got)
	}
}

func TestCheckPasswordPair(t *testing.T) {
	ve := NewValidationError()
	CheckPasswordPair(ve, "password", "password2", "2short", "2short")
	if !ve.Has("password") || ve.Has("password2") {
		t.Fatalf("expected only password error, got %v", ve.Fields)
	}

	ve = NewValidationError()
	CheckPasswordPair(ve, "password", "password2", "long-enough", "different")
	if ve.Has("password") || !ve.Has("password2") {
		t.Fatalf("expected only password2 error, got %v", ve.Fields)
	}

	ve = NewValidationError()
	CheckPasswordPair(ve, "password", "password2", "long-enough", "long-enough")
	if ve.OrNil() != nil {
		t.Fatalf("expected no errors, got %v", ve.Fields)
	}
}

func TestValidationError_MessagesOmitValues(t *testing.T) {
	ve := NewValidationError()
	CheckPasswordPair(ve, "password", "password2", "hunter2", "hunter3")
	if strings.Contains(ve.Error(), "hunter") {
		t.Fatalf("error leaks password material: %s", ve.Error())
	}
}

func TestUser_HasUsablePassword(t *testing.T) {
	if (&User{PasswordHash: UnusablePassword}).HasUsablePassword() {
		t.Fatal("unusable marker reported as usable")
	}
	if !(&User{PasswordHash: "$2a$10$abc"}).HasUsablePassword() {
		t.Fatal("bcrypt hash reported as unusable")
	}
}
