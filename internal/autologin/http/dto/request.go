// Package dto provides data transfer objects for the login link HTTP endpoints.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/config"
	customValidation "github.com/allisson/autologin/internal/validation"
)

// maxTTLSeconds rejects absurd ttl values before they are converted to a
// time.Duration, where they would overflow.
const maxTTLSeconds = int(config.LoginTokenTTLCeiling / time.Second)

// IssueLoginLinkRequest contains the parameters for issuing a login link.
// TTL is expressed in seconds; zero selects the configured default.
type IssueLoginLinkRequest struct {
	PrincipalID int64             `json:"principal_id"`
	TTL         int               `json:"ttl"`
	Metadata    map[string]string `json:"metadata"`
	Redirect    string            `json:"redirect"`
}

// Validate checks if the issue request is valid.
func (r *IssueLoginLinkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PrincipalID,
			validation.Required,
			validation.Min(int64(1)),
		),
		validation.Field(&r.TTL,
			validation.Min(0),
			validation.Max(maxTTLSeconds),
		),
		validation.Field(&r.Metadata,
			customValidation.MetadataKeys,
		),
		validation.Field(&r.Redirect,
			customValidation.LocalPath,
			validation.Length(0, 2048),
		),
	)
}

// ToDomain converts the request to the issuer input.
func (r *IssueLoginLinkRequest) ToDomain() *domain.IssueTokenInput {
	return &domain.IssueTokenInput{
		PrincipalID:  r.PrincipalID,
		TTL:          time.Duration(r.TTL) * time.Second,
		Metadata:     r.Metadata,
		RedirectPath: r.Redirect,
	}
}

// VerifyLoginLinkRequest contains a token to check without consuming it.
type VerifyLoginLinkRequest struct {
	Token string `json:"token"`
}

// Validate checks if the verify request is valid. Format checks are left to the
// validator so that malformed tokens produce a result instead of a 422.
func (r *VerifyLoginLinkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required,
			validation.Length(1, 512),
		),
	)
}
