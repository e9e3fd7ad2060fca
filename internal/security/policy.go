package security

import (
	"fmt"
	"strings"
	"unicode"
)

const specialChars = `!@#$%^&*()-_=+[]{};:'",.<>/?~` + "`|\\"

// PasswordPolicy checks a candidate password. Rules run in a fixed
// order and the first violation wins, so callers always see the same
// message for the same input.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// StrictPolicy applies to admin-initiated resets and self-service
// password changes. RegistrationPolicy keeps the historical 8-character
// floor so existing customers can re-register imported accounts; the
// split is intentional, not drift.
var (
	StrictPolicy       = PasswordPolicy{MinLength: 12, MaxLength: 128}
	RegistrationPolicy = PasswordPolicy{MinLength: 8, MaxLength: 128}
)

// PolicyViolation carries the first violated rule's message. The
// message is written for end users and safe to surface.
type PolicyViolation struct {
	Message string
}

func (v *PolicyViolation) Error() string {
	return v.Message
}

// Validate returns nil when the password satisfies the policy, or the
// first violated rule as a *PolicyViolation.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength || len(password) > p.MaxLength {
		return &PolicyViolation{Message: fmt.Sprintf("password must be between %d and %d characters", p.MinLength, p.MaxLength)}
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return &PolicyViolation{Message: "password must contain a lowercase letter"}
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return &PolicyViolation{Message: "password must contain an uppercase letter"}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return &PolicyViolation{Message: "password must contain a digit"}
	}
	if !strings.ContainsAny(password, specialChars) {
		return &PolicyViolation{Message: "password must contain a special character"}
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		return &PolicyViolation{Message: "password must not contain whitespace"}
	}
	return nil
}
