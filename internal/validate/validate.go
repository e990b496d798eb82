// Package validate performs field-level validation of user input before any
// network call is made. Failures are keyed by field so views can attach
// messages to the offending input.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// FieldErrors maps field names to human-readable messages.
type FieldErrors map[string]string

// Error lists the failing fields in stable order.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil returns nil for an empty set so callers can `if err != nil`.
func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// SignUp checks the registration form.
func SignUp(name, email, password, confirmPassword string) error {
	errs := FieldErrors{}
	if len(strings.TrimSpace(name)) < 2 {
		errs["name"] = "Name must be at least 2 characters"
	}
	if !emailPattern.MatchString(email) {
		errs["email"] = "Invalid email address"
	}
	if len(password) < 6 {
		errs["password"] = "Password must be at least 6 characters"
	}
	if password != confirmPassword {
		errs["confirmPassword"] = "Passwords don't match"
	}
	return errs.orNil()
}

// SignIn checks the login form.
func SignIn(email, password string) error {
	errs := FieldErrors{}
	if !emailPattern.MatchString(email) {
		errs["email"] = "Invalid email address"
	}
	if len(password) < 6 {
		errs["password"] = "Password must be at least 6 characters"
	}
	return errs.orNil()
}

// Checkout checks the delivery details form.
func Checkout(name, address, phoneNumber string) error {
	errs := FieldErrors{}
	if len(strings.TrimSpace(name)) < 2 {
		errs["name"] = "Name is required"
	}
	if len(strings.TrimSpace(address)) < 5 {
		errs["address"] = "Address must be at least 5 characters"
	}
	if len(phoneNumber) < 10 {
		errs["phoneNumber"] = "Phone number must be at least 10 digits"
	} else if !digitsPattern.MatchString(phoneNumber) {
		errs["phoneNumber"] = "Phone number must contain only digits"
	}
	return errs.orNil()
}

// Quantity checks a cart quantity. Zero is rejected here; removing a line is
// an explicit operation, not an update to zero.
func Quantity(quantity int) error {
	errs := FieldErrors{}
	if quantity < 1 {
		errs["quantity"] = "Quantity must be at least 1"
	}
	return errs.orNil()
}
