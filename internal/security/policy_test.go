package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"too short", "short1!", "password must be between 12 and 128 characters"},
		{"no uppercase", "alllowercase123!", "password must contain an uppercase letter"},
		{"no lowercase", "ALLUPPERCASE123!", "password must contain a lowercase letter"},
		{"no digit", "NoDigitsHereOk!", "password must contain a digit"},
		{"no special", "NoSpecial123Aa", "password must contain a special character"},
		{"whitespace", "Has Spaces123!", "password must not contain whitespace"},
		{"valid", "Valid123!Pass", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StrictPolicy.Validate(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var violation *PolicyViolation
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, tt.wantMsg, violation.Message)
		})
	}
}

func TestPolicyOrderFirstFailureWins(t *testing.T) {
	// "a" violates nearly every rule; length must be the one reported.
	err := StrictPolicy.Validate("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 12 and 128")
}

func TestRegistrationPolicyFloor(t *testing.T) {
	// Eight characters passes registration but fails the strict policy.
	password := "Valid12!"

	assert.NoError(t, RegistrationPolicy.Validate(password))
	assert.Error(t, StrictPolicy.Validate(password))
}

func TestPolicyMaxLength(t *testing.T) {
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	long[0] = 'A'
	long[1] = '1'
	long[2] = '!'

	assert.Error(t, StrictPolicy.Validate(string(long)))
}
