package provisioning

import "strings"

// FallbackName is substituted when sanitization leaves nothing usable.
const FallbackName = "sanitizer_default_name"

// maxBackendIDLength is the identity service's name length limit.
const maxBackendIDLength = 255

// SanitizeName maps an arbitrary external identifier onto a name the
// identity service accepts: spaces become underscores, characters outside
// [A-Za-z0-9_.-] are dropped, leading non-alphanumerics are stripped, an
// all-digit result is prefixed with "project_" and an empty result becomes
// FallbackName. The function is pure and idempotent:
// SanitizeName(SanitizeName(s)) == SanitizeName(s) for every input.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	s := b.String()

	// Leading characters must be alphanumeric
	start := 0
	for start < len(s) && !isAlnum(s[start]) {
		start++
	}
	s = s[start:]

	if s != "" && allDigits(s) {
		s = "project_" + s
	}
	if s == "" {
		s = FallbackName
	}
	return s
}

// ValidateBackendID checks that a backend identifier is usable as an
// identity service name.
func ValidateBackendID(backendID string) error {
	if backendID == "" {
		return ErrResourceIdentifierMissing
	}
	if len(backendID) > maxBackendIDLength {
		return ErrBackendIDTooLong
	}
	return nil
}

// UsernameFromEmail derives a deterministic candidate username from the
// local part of an email address.
func UsernameFromEmail(email string) (string, error) {
	if email == "" {
		return "", ErrEmailMissing
	}
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	if local == "" {
		return "", ErrEmailUnusable
	}
	return SanitizeName(local), nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
