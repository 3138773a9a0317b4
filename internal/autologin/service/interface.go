// Package service provides the cryptographic primitives behind login links:
// token generation, hashing and format checks, and issuer secret hashing.
package service

// TokenService generates and inspects login token values.
type TokenService interface {
	// GenerateToken draws 32 random bytes and returns the unpadded base64url
	// value with its SHA-256 hex hash. The plain value is shown once and never
	// stored.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken returns the SHA-256 hex hash used as the store key.
	HashToken(plainToken string) string

	// CheckFormat reports whether value has the exact shape of a generated
	// token. It is a pure function and never touches the store.
	CheckFormat(value string) bool
}

// SecretService hashes and verifies issuer secrets with Argon2id.
type SecretService interface {
	// GenerateSecret creates a random secret and its Argon2id hash.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret hashes plainSecret with Argon2id.
	HashSecret(plainSecret string) (string, error)

	// CompareSecret verifies plainSecret against hashedSecret in constant time.
	CompareSecret(plainSecret string, hashedSecret string) bool
}
