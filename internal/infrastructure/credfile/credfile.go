// Package credfile reads the credentials and targets files. Both are YAML;
// JSON documents are accepted since they are valid YAML.
package credfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/infrastructure/crypto"
	"github.com/example/hsp-booker/internal/internaltypes"
)

type credentialsDoc struct {
	Name        string  `yaml:"name"`
	Surname     string  `yaml:"surname"`
	Gender      string  `yaml:"gender"`
	Street      string  `yaml:"street"`
	Number      string  `yaml:"number"`
	ZipCode     string  `yaml:"zipcode"`
	City        string  `yaml:"city"`
	Status      string  `yaml:"status"`
	PID         string  `yaml:"pid"`
	Email       string  `yaml:"email"`
	Tel         string  `yaml:"tel"`
	Password    string  `yaml:"password"`
	PasswordEnc string  `yaml:"password_enc"`
	// IBAN must be present but may be empty.
	IBAN        *string `yaml:"iban"`
}

// LoadCredentials reads and validates the credentials file at path. key
// decrypts password_enc and may be nil when the file has none.
func LoadCredentials(path string, key []byte) (user.Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return user.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := ParseCredentials(b, key)
	if err != nil {
		return user.Credentials{}, fmt.Errorf("%s: %w", path, err)
	}
	return creds, nil
}

func ParseCredentials(data []byte, key []byte) (user.Credentials, error) {
	var doc credentialsDoc
	if err := decodeStrict(data, &doc); err != nil {
		return user.Credentials{}, fmt.Errorf("%w: %w", internaltypes.ErrInvalidCredentials, err)
	}

	if doc.IBAN == nil {
		return user.Credentials{}, fmt.Errorf("%w: no iban provided (use iban: \"\" if none)", internaltypes.ErrInvalidCredentials)
	}

	password := doc.Password
	if doc.PasswordEnc != "" {
		if doc.Password != "" {
			return user.Credentials{}, fmt.Errorf("%w: set either password or password_enc", internaltypes.ErrInvalidCredentials)
		}
		if len(key) == 0 {
			return user.Credentials{}, fmt.Errorf("%w: password_enc needs HSP_CRED_KEY", internaltypes.ErrInvalidCredentials)
		}
		a, err := crypto.New(key)
		if err != nil {
			return user.Credentials{}, err
		}
		if password, err = a.DecryptString(doc.PasswordEnc); err != nil {
			return user.Credentials{}, fmt.Errorf("%w: password_enc: %w", internaltypes.ErrInvalidCredentials, err)
		}
	}

	creds := user.New(user.Profile{
		Name:    doc.Name,
		Surname: doc.Surname,
		Gender:  doc.Gender,
		Street:  doc.Street,
		Number:  doc.Number,
		ZipCode: doc.ZipCode,
		City:    doc.City,
		Status:  user.Status(doc.Status),
		PID:     doc.PID,
		Email:   doc.Email,
		Phone:   doc.Tel,
		IBAN:    *doc.IBAN,
	}, password)
	if err := creds.Validate(); err != nil {
		return user.Credentials{}, err
	}
	return creds, nil
}

type targetsDoc struct {
	Targets []struct {
		ID       string `yaml:"id"`
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
		Label    string `yaml:"label"`
	} `yaml:"targets"`
}

// LoadTargets reads the targets file at path.
func LoadTargets(path string) ([]course.Target, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	ts, err := ParseTargets(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// ParseTargets decodes and validates a targets document. Course ids must be
// unique.
func ParseTargets(data []byte) ([]course.Target, error) {
	var doc targetsDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Targets) == 0 {
		return nil, fmt.Errorf("no targets")
	}
	seen := map[string]bool{}
	out := make([]course.Target, 0, len(doc.Targets))
	for i, d := range doc.Targets {
		t, err := course.NewTarget(d.ID, d.URL, d.Password)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("targets[%d]: duplicate course id %s", i, t.ID)
		}
		seen[t.ID] = true
		t.Label = strings.TrimSpace(d.Label)
		out = append(out, t)
	}
	return out, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}
