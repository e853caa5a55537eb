// Package validate holds the field validation rules shared by the CLI and
// the sync engine.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"taskman/internal/service"
)

const (
	// TitleMaxLen caps task titles.
	TitleMaxLen = 50

	// DescriptionMaxLen caps task descriptions.
	DescriptionMaxLen = 500

	// PasswordMinLen is the minimum password length.
	PasswordMinLen = 8
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// IsFieldEmpty reports whether s is empty after trimming whitespace.
func IsFieldEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsValidPassword reports whether s meets the password policy: at least
// PasswordMinLen characters with an upper-case letter, a lower-case letter,
// a digit, and a punctuation or symbol character.
func IsValidPassword(s string) bool {
	if len(s) < PasswordMinLen {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// Draft checks a new task before it is sent anywhere.
func Draft(d service.Draft) error {
	return fields(d.Title, d.Description, d.Status)
}

// Patch checks replacement values before an update is issued.
func Patch(p service.Patch) error {
	return fields(p.Title, p.Description, p.Status)
}

func fields(title, description string, status service.Status) error {
	if IsFieldEmpty(title) {
		return &service.ValidationError{Field: "title", Reason: "required"}
	}
	if len(title) > TitleMaxLen {
		return &service.ValidationError{Field: "title", Reason: "must be 50 characters or fewer"}
	}
	if len(description) > DescriptionMaxLen {
		return &service.ValidationError{Field: "description", Reason: "must be 500 characters or fewer"}
	}
	if !service.ValidStatus(status) {
		return &service.ValidationError{Field: "status", Reason: "must be Todo, In Progress or Done"}
	}
	return nil
}
