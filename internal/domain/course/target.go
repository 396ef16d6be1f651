package course

import (
	"fmt"
	"net/url"
	"strings"
)

// Target identifies one course row on a remote listing page.
type Target struct {
	ID       string
	URL      string
	Password string // optional pre-submission password
	Label    string
}

func NewTarget(id, rawURL, password string) (Target, error) {
	t := Target{
		ID:       strings.TrimSpace(id),
		URL:      strings.TrimSpace(rawURL),
		Password: password,
	}
	return t, t.Validate()
}

func (t Target) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("course id required")
	}
	if t.URL == "" {
		return fmt.Errorf("course %s: url required", t.ID)
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("course %s: invalid url %q", t.ID, t.URL)
	}
	return nil
}

func (t Target) String() string {
	if t.Label != "" {
		return fmt.Sprintf("%s (%s)", t.ID, t.Label)
	}
	return t.ID
}
