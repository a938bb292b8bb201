// registration.go validates the public registration form before any database
// or storage work happens.
package validation

import (
	"errors"
	"regexp"
	"strings"
)

// ErrAllFieldsMandatory is returned when any required form field (or the
// payment screenshot) is missing. The message matches what the registration
// form displays to the participant.
var ErrAllFieldsMandatory = errors.New("All fields are mandatory.")

// ErrInvalidEmail is returned when the email field is present but malformed.
var ErrInvalidEmail = errors.New("Please provide a valid email address.")

// ErrInvalidYear is returned when the year field is not one of the study years
// the registration form offers.
var ErrInvalidYear = errors.New("Please select a valid year.")

// emailPattern is a deliberately loose shape check: one @, no spaces, and a
// dot somewhere in the domain. Real validation happens when the confirmation
// email bounces, not here.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// allowedYears mirrors the year dropdown on the registration form.
var allowedYears = map[string]bool{"1": true, "2": true, "3": true, "4": true}

// RegistrationForm carries the submitted registration fields prior to
// validation and persistence.
type RegistrationForm struct {
	Name          string
	SapID         string
	Email         string
	Year          string
	Course        string
	Section       string
	TransactionID string
}

// Normalize trims surrounding whitespace from every field in place.
func (f *RegistrationForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.SapID = strings.TrimSpace(f.SapID)
	f.Email = strings.TrimSpace(f.Email)
	f.Year = strings.TrimSpace(f.Year)
	f.Course = strings.TrimSpace(f.Course)
	f.Section = strings.TrimSpace(f.Section)
	f.TransactionID = strings.TrimSpace(f.TransactionID)
}

// ValidateRegistrationForm checks that every field is present, the email is
// plausibly shaped, and the year is one the form offers. hasScreenshot reports
// whether the multipart request carried a payment screenshot file.
func ValidateRegistrationForm(f *RegistrationForm, hasScreenshot bool) error {
	f.Normalize()

	if f.Name == "" || f.SapID == "" || f.Email == "" || f.Year == "" ||
		f.Course == "" || f.Section == "" || f.TransactionID == "" || !hasScreenshot {
		return ErrAllFieldsMandatory
	}

	if !emailPattern.MatchString(f.Email) {
		return ErrInvalidEmail
	}

	if !allowedYears[f.Year] {
		return ErrInvalidYear
	}

	return nil
}
