package domain

import "time"

// InvalidReason explains why a presented token is not valid.
type InvalidReason string

const (
	ReasonMalformedFormat InvalidReason = "malformed_format"
	ReasonNotFound        InvalidReason = "not_found"
	ReasonExpired         InvalidReason = "expired"
)

// ValidationResult is the outcome of a non-consuming token check. When Valid is
// false, Reason is set and the other fields are zero.
type ValidationResult struct {
	Valid       bool
	PrincipalID int64
	Metadata    map[string]string
	ExpiresAt   time.Time
	Reason      InvalidReason
}

// ValidResult builds a positive validation result from a stored token.
func ValidResult(token *Token) *ValidationResult {
	return &ValidationResult{
		Valid:       true,
		PrincipalID: token.PrincipalID,
		Metadata:    token.Metadata,
		ExpiresAt:   token.ExpiresAt,
	}
}

// InvalidResult builds a negative validation result.
func InvalidResult(reason InvalidReason) *ValidationResult {
	return &ValidationResult{Reason: reason}
}
