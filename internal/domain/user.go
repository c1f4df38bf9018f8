package domain

import (
	"net/mail"
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    []byte
	ProfileImageURL string
	CreatedAt       time.Time
}

// PublicUser is the client-safe view of a User.
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt,omitzero"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	view := PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
	if u.ProfileImageURL != "" {
		image := u.ProfileImageURL
		view.ProfileImageURL = &image
	}
	return view
}

// NormalizeEmail trims and lowercases an address so lookups are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

const passwordTooLong = "must be at most 72 bytes"

// Registration carries the fields accepted when creating an account.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Validate checks required fields and returns a normalized copy.
func (r Registration) Validate() (Registration, error) {
	out := Registration{
		Name:            strings.TrimSpace(r.Name),
		Email:           NormalizeEmail(r.Email),
		Password:        r.Password,
		ProfileImageURL: strings.TrimSpace(r.ProfileImageURL),
	}
	fields := map[string]string{}
	if out.Name == "" {
		fields["name"] = "is required"
	}
	if out.Email == "" {
		fields["email"] = "is required"
	} else if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		fields["email"] = "must be a valid email address"
	}
	if r.Password == "" {
		fields["password"] = "is required"
	} else if len(r.Password) > MaxPasswordBytes {
		fields["password"] = passwordTooLong
	}
	if len(fields) > 0 {
		return Registration{}, NewValidationError(missingMessage(fields), fields)
	}
	return out, nil
}

// Credentials carries a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks both fields are present and normalizes the email.
func (c Credentials) Validate() (Credentials, error) {
	out := Credentials{Email: NormalizeEmail(c.Email), Password: c.Password}
	fields := map[string]string{}
	if out.Email == "" {
		fields["email"] = "is required"
	}
	if out.Password == "" {
		fields["password"] = "is required"
	} else if len(out.Password) > MaxPasswordBytes {
		fields["password"] = passwordTooLong
	}
	if len(fields) > 0 {
		return Credentials{}, NewValidationError(missingMessage(fields), fields)
	}
	return out, nil
}

// missingMessage asks for the missing fields when one is absent and otherwise lets
// ValidationError summarize the fields.
func missingMessage(fields map[string]string) string {
	for _, reason := range fields {
		if reason == "is required" {
			return "Please fill all fields"
		}
	}
	return ""
}
