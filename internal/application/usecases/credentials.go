package usecases

import (
	"fmt"

	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/infrastructure/credfile"
	"github.com/example/hsp-booker/internal/infrastructure/crypto"
)

// CredentialsService loads the credentials file and seals portal passwords
// for it.
type CredentialsService struct {
	// Key decrypts password_enc. It may be nil.
	Key []byte
}

// Load reads and validates the credentials file.
func (s CredentialsService) Load(path string) (user.Credentials, error) {
	return credfile.LoadCredentials(path, s.Key)
}

// Seal encrypts a portal password for the password_enc field.
func (s CredentialsService) Seal(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	if len(s.Key) == 0 {
		return "", fmt.Errorf("HSP_CRED_KEY is not set (generate one with `hspbook keys`)")
	}
	a, err := crypto.New(s.Key)
	if err != nil {
		return "", err
	}
	return a.EncryptToString(password)
}
