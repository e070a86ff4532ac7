// Package fieldvalidate provides the live form feedback rules for the project
// setup fields.
//
// These checks are presentational. Values that later reach a shell command or
// an HTTP request are validated again by the security and urlutil packages.
package fieldvalidate

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field names a form field. Names are matched exactly and case-sensitively.
type Field string

// Known fields.
const (
	ProjectName   Field = "projectName"
	CommerceURL   Field = "commerceURL"
	WebsiteCode   Field = "websiteCode"
	StoreCode     Field = "storeCode"
	StoreViewCode Field = "storeViewCode"
	AdminEmail    Field = "adminEmail"
	AdminPassword Field = "adminPassword"
)

// Length limits.
const (
	MaxProjectNameLength = 50
	MaxCodeLength        = 32
	MinPasswordLength    = 7
)

// Result is the outcome of validating one field value. Message is empty when
// IsValid is true.
type Result struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

var (
	projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	codePattern        = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type validator func(value string) Result

var validators = map[Field]validator{
	ProjectName:   validateProjectName,
	CommerceURL:   validateCommerceURL,
	WebsiteCode:   codeValidator("Website code"),
	StoreCode:     codeValidator("Store code"),
	StoreViewCode: codeValidator("Store view code"),
	AdminEmail:    validateAdminEmail,
	AdminPassword: validateAdminPassword,
}

// Fields returns the known field names.
func Fields() []Field {
	return []Field{ProjectName, CommerceURL, WebsiteCode, StoreCode, StoreViewCode, AdminEmail, AdminPassword}
}

// Known reports whether field has a validator.
func Known(field string) bool {
	_, ok := validators[Field(field)]
	return ok
}

// Validate runs the validator for field. Unknown fields are valid.
func Validate(field, value string) Result {
	v, ok := validators[Field(field)]
	if !ok {
		return valid()
	}
	return v(value)
}

func valid() Result { return Result{IsValid: true} }

func invalid(msg string) Result { return Result{Message: msg} }

func validateProjectName(value string) Result {
	if strings.TrimSpace(value) == "" {
		return invalid("Project name is required")
	}
	if utf8.RuneCountInString(value) > MaxProjectNameLength {
		return invalid("Project name must be 50 characters or less")
	}
	if !projectNamePattern.MatchString(value) {
		return invalid("Use lowercase letters, numbers, and hyphens only, starting with a letter or number")
	}
	if strings.HasSuffix(value, "-") {
		return invalid("Project name cannot end with a hyphen")
	}
	return valid()
}

func validateCommerceURL(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("Commerce URL is required")
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("Enter a valid URL (e.g., https://example.com)")
	}
	return valid()
}

func codeValidator(label string) validator {
	return func(value string) Result {
		if value == "" {
			return invalid(label + " is required")
		}
		if len(value) > MaxCodeLength {
			return invalid(label + " must be 32 characters or less")
		}
		if !codePattern.MatchString(value) {
			return invalid(label + " must start with a lowercase letter and contain only lowercase letters, numbers, and underscores")
		}
		return valid()
	}
}

func validateAdminEmail(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("Admin email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@")+1:], ".") {
		return invalid("Enter a valid email address")
	}
	return valid()
}

func validateAdminPassword(value string) Result {
	if value == "" {
		return invalid("Admin password is required")
	}
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return invalid("Password must be at least 7 characters")
	}
	var letter, digit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return invalid("Password must include both letters and numbers")
	}
	return valid()
}
