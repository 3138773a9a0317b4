// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/autologin/internal/errors"
)

// metadataKeyMaxLength bounds scope metadata keys attached to login links.
const metadataKeyMaxLength = 64

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// LocalPath validates that a redirect target stays on this host: an absolute path
// without scheme, host, or a protocol-relative prefix. Empty strings pass so that
// optional fields can be combined with validation.Required when needed.
var LocalPath = validation.NewStringRuleWithError(
	IsLocalPath,
	validation.NewError("validation_local_path", "must be a local absolute path"),
)

// IsLocalPath reports whether s is a path-only URL such as "/web" or "/web?x=1#y".
func IsLocalPath(s string) bool {
	if s == "" {
		return true
	}
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return false
	}
	if strings.ContainsAny(s, "\r\n\t") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}

// MetadataKeys validates the keys of a map[string]string: not blank and at most
// metadataKeyMaxLength bytes.
var MetadataKeys = validation.By(func(value interface{}) error {
	m, ok := value.(map[string]string)
	if !ok || m == nil {
		return nil
	}
	for k := range m {
		if strings.TrimSpace(k) == "" {
			return validation.NewError("validation_metadata_key_blank", "metadata keys must not be blank")
		}
		if len(k) > metadataKeyMaxLength {
			return validation.NewError("validation_metadata_key_length", "metadata keys must be at most 64 characters")
		}
	}
	return nil
})
