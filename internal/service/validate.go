package service

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// SubmissionInput holds the raw form fields of one submission.
type SubmissionInput struct {
	FullName    string
	Telephone   string
	Email       string
	Description string
}

// telephonePattern allows digits and common phone punctuation only.
var telephonePattern = regexp.MustCompile(`^[0-9\s+()\-]+$`)

// stripPolicy removes all markup at the form boundary.
var stripPolicy = bluemonday.StrictPolicy()

// Sanitize trims whitespace and strips markup and control characters from
// every field. Fields are persisted verbatim after this pass.
func Sanitize(in SubmissionInput) SubmissionInput {
	return SubmissionInput{
		FullName:    sanitizeField(in.FullName),
		Telephone:   sanitizeField(in.Telephone),
		Email:       sanitizeField(in.Email),
		Description: sanitizeField(in.Description),
	}
}

func sanitizeField(s string) string {
	s = stripPolicy.Sanitize(s)
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ValidateSubmission checks the required-field rules and returns a mapping
// from field name to a human-readable message. An empty map means the input
// passed. Description is optional and never validated.
func ValidateSubmission(in SubmissionInput) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(in.FullName) == "" {
		errs["full_name"] = "Full Name is required."
	}

	telephone := strings.TrimSpace(in.Telephone)
	if telephone == "" {
		errs["telephone"] = "Telephone is required."
	} else if !telephonePattern.MatchString(telephone) {
		errs["telephone"] = "Telephone must be a valid phone number."
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		errs["email"] = "Email is required."
	} else if !isValidEmail(email) {
		errs["email"] = "Please enter a valid email address."
	}

	return errs
}

func isValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Name <a@b.com>"; the field must be
	// the bare address.
	return addr.Address == s
}
