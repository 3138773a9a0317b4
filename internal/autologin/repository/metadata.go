// Package repository implements the login token store on PostgreSQL, MySQL and
// Redis, and persistence for the login attempt log.
package repository

import (
	"encoding/json"

	apperrors "github.com/allisson/autologin/internal/errors"
)

// marshalMetadata encodes metadata as JSON. An empty map is stored as NULL.
func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal metadata")
	}
	return data, nil
}

func unmarshalMetadata(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal metadata")
	}
	return metadata, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
