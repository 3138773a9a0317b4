package commands

import (
	"fmt"
	"io"

	autologinService "github.com/allisson/autologin/internal/autologin/service"
)

// RunHashIssuerSecret generates a new issuer secret and prints it once together
// with the Argon2id hash to put in ISSUER_SECRET_HASH. The text output single
// quotes the hash so a .env loader does not expand its "$" separators.
func RunHashIssuerSecret(
	secretService autologinService.SecretService,
	writer io.Writer,
	format string,
) error {
	plainSecret, hashedSecret, err := secretService.GenerateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate issuer secret: %w", err)
	}

	if isJSON(format) {
		return writeJSON(writer, map[string]string{
			"secret":      plainSecret,
			"secret_hash": hashedSecret,
		})
	}

	_, _ = fmt.Fprintf(writer, "Issuer secret: %s\n", plainSecret)
	_, _ = fmt.Fprintf(writer, "ISSUER_SECRET_HASH='%s'\n", hashedSecret)
	_, _ = fmt.Fprintln(writer, "\nStore the secret now, it cannot be recovered from the hash.")
	return nil
}
