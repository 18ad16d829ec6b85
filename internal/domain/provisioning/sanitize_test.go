package provisioning

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name passes through",
			input:    "research-lab",
			expected: "research-lab",
		},
		{
			name:     "spaces become underscores",
			input:    "Physics Dept 2026",
			expected: "Physics_Dept_2026",
		},
		{
			name:     "disallowed characters are dropped",
			input:    "team/alpha!#beta",
			expected: "teamalphabeta",
		},
		{
			name:     "leading symbols are stripped",
			input:    "__.hidden-project",
			expected: "hidden-project",
		},
		{
			name:     "leading symbols produced by substitution are stripped",
			input:    " padded name",
			expected: "padded_name",
		},
		{
			name:     "all digit result gets a prefix",
			input:    "12345",
			expected: "project_12345",
		},
		{
			name:     "digits with punctuation that sanitizes away",
			input:    "(42)",
			expected: "project_42",
		},
		{
			name:     "empty input falls back",
			input:    "",
			expected: "sanitizer_default_name",
		},
		{
			name:     "only disallowed characters fall back",
			input:    "!!!***",
			expected: "sanitizer_default_name",
		},
		{
			name:     "unicode is dropped",
			input:    "projekt-åäö",
			expected: "projekt-",
		},
		{
			name:     "dots and hyphens survive",
			input:    "cloud.web-01",
			expected: "cloud.web-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestSanitizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"research-lab", "Physics Dept 2026", "12345", "", "!!!***",
		"__.hidden", "(42)", "projekt-åäö", "a b c", "project_7",
	}
	for _, in := range inputs {
		once := SanitizeName(in)
		assert.Equal(t, once, SanitizeName(once), "input %q", in)
	}
}

func TestSanitizeName_OutputInvariants(t *testing.T) {
	inputs := []string{
		"", " ", "...", "9", "99 bottles", "---", "é", "a", "_a", "0_",
		"project", "123.456", "x y z", "\t\n", "!@#$%^&*()",
	}
	for _, in := range inputs {
		out := SanitizeName(in)
		require.NotEmpty(t, out, "input %q", in)
		assert.False(t, allDigits(out), "input %q produced all-digit %q", in, out)
		assert.True(t, isAlnum(out[0]), "input %q produced leading symbol in %q", in, out)
		for _, r := range out {
			ok := r == '_' || r == '-' || r == '.' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			assert.True(t, ok, "input %q produced disallowed rune %q", in, r)
		}
	}
}

func TestValidateBackendID(t *testing.T) {
	assert.NoError(t, ValidateBackendID("abc-123"))
	assert.NoError(t, ValidateBackendID(strings.Repeat("a", 255)))

	err := ValidateBackendID("")
	assert.True(t, errors.Is(err, ErrResourceIdentifierMissing))

	err = ValidateBackendID(strings.Repeat("a", 256))
	assert.True(t, errors.Is(err, ErrBackendIDTooLong))
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
		wantErr  error
	}{
		{
			name:     "plain address",
			email:    "alice@example.com",
			expected: "alice",
		},
		{
			name:     "dotted local part",
			email:    "jane.doe@example.com",
			expected: "jane.doe",
		},
		{
			name:     "plus tag is dropped",
			email:    "bob+hpc@example.com",
			expected: "bobhpc",
		},
		{
			name:    "empty email",
			email:   "",
			wantErr: ErrEmailMissing,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: ErrEmailUnusable,
		},
		{
			name:     "no at sign uses whole string",
			email:    "charlie",
			expected: "charlie",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UsernameFromEmail(tt.email)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
