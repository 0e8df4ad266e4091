package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"realty_backend/pkg/apperror"
)

const (
	MaxNameLength    = 100
	MaxSubjectLength = 200
	MaxMessageLength = 5000
)

var phonePattern = regexp.MustCompile(`^[+0-9()\-.\s]{6,25}$`)

// Inquiry is the public contact form input.
type Inquiry struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// Normalize trims every field and lower-cases the email.
func (in *Inquiry) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
}

// ValidateInquiry requires name, email and message and checks the email
// is a bare address.
func ValidateInquiry(in Inquiry) error {
	switch {
	case in.Name == "":
		return apperror.Validation("name", "name is required")
	case in.Email == "":
		return apperror.Validation("email", "email is required")
	case in.Message == "":
		return apperror.Validation("message", "message is required")
	}

	if !ValidEmail(in.Email) {
		return apperror.Validation("email", "email is not a valid address")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return apperror.Validation("phone", "phone is not a valid number")
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLength {
		return apperror.Validationf("name", "name must be at most %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(in.Subject) > MaxSubjectLength {
		return apperror.Validationf("subject", "subject must be at most %d characters", MaxSubjectLength)
	}
	if utf8.RuneCountInString(in.Message) > MaxMessageLength {
		return apperror.Validationf("message", "message must be at most %d characters", MaxMessageLength)
	}
	return nil
}

// ValidEmail accepts only a plain address with a dotted domain, not a
// display-name form.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
