package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/autologin/internal/autologin/domain"
)

// LoginLinkResponse is returned once when a link is issued.
type LoginLinkResponse struct {
	AuthURL     string    `json:"auth_url"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	PrincipalID int64     `json:"principal_id"`
}

// MapIssueOutputToResponse converts the issuer output to its response shape.
func MapIssueOutputToResponse(output *domain.IssueTokenOutput) LoginLinkResponse {
	return LoginLinkResponse{
		AuthURL:     output.AuthURL,
		Token:       output.PlainToken,
		ExpiresAt:   output.ExpiresAt,
		PrincipalID: output.PrincipalID,
	}
}

// VerifyLoginLinkResponse reports the result of a non-consuming check.
type VerifyLoginLinkResponse struct {
	Valid       bool              `json:"valid"`
	PrincipalID *int64            `json:"principal_id,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MapValidationResultToResponse converts a validation result to its response shape.
func MapValidationResultToResponse(result *domain.ValidationResult) VerifyLoginLinkResponse {
	if !result.Valid {
		return VerifyLoginLinkResponse{Reason: string(result.Reason)}
	}
	principalID := result.PrincipalID
	expiresAt := result.ExpiresAt
	return VerifyLoginLinkResponse{
		Valid:       true,
		PrincipalID: &principalID,
		ExpiresAt:   &expiresAt,
		Metadata:    result.Metadata,
	}
}

// TokenStatsResponse summarizes pending tokens.
type TokenStatsResponse struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
}

// LoginAttemptResponse represents a login attempt in API responses.
type LoginAttemptResponse struct {
	ID               uuid.UUID         `json:"id"`
	PrincipalID      *int64            `json:"principal_id,omitempty"`
	Outcome          string            `json:"outcome"`
	Success          bool              `json:"success"`
	IPAddress        string            `json:"ip_address"`
	UserAgent        string            `json:"user_agent"`
	TokenFingerprint string            `json:"token_fingerprint"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ListLoginAttemptsResponse represents a page of login attempts.
type ListLoginAttemptsResponse struct {
	Data       []LoginAttemptResponse `json:"data"`
	NextOffset *int                   `json:"next_offset,omitempty"`
}

// MapLoginAttemptsToListResponse converts attempts to their list response shape.
func MapLoginAttemptsToListResponse(attempts []*domain.LoginAttempt) ListLoginAttemptsResponse {
	data := make([]LoginAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		data = append(data, LoginAttemptResponse{
			ID:               attempt.ID,
			PrincipalID:      attempt.PrincipalID,
			Outcome:          string(attempt.Outcome),
			Success:          attempt.Success,
			IPAddress:        attempt.IPAddress,
			UserAgent:        attempt.UserAgent,
			TokenFingerprint: attempt.TokenFingerprint,
			Metadata:         attempt.Metadata,
			CreatedAt:        attempt.CreatedAt,
		})
	}
	return ListLoginAttemptsResponse{Data: data}
}
