package user

import (
	"fmt"
	"strings"

	"github.com/example/hsp-booker/internal/internaltypes"
)

// Status is the identity category requested by the booking form.
type Status string

const (
	StatusStudentRWTH  Status = "S-RWTH"
	StatusStudentOther Status = "S-aH"
	StatusEmployeeUni  Status = "B-UNIT"
	StatusEmployeeUKT  Status = "B-UKT"
	StatusEmployeeAH   Status = "B-aH"
	StatusExternal     Status = "Extern"
)

var Statuses = []Status{
	StatusStudentRWTH, StatusStudentOther,
	StatusEmployeeUni, StatusEmployeeUKT, StatusEmployeeAH,
	StatusExternal,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) Student() bool  { return s == StatusStudentRWTH || s == StatusStudentOther }
func (s Status) Employee() bool { return s == StatusEmployeeUni || s == StatusEmployeeUKT || s == StatusEmployeeAH }

var Genders = []string{"M", "W"}

// Profile holds the personal fields every booking needs.
type Profile struct {
	Name    string
	Surname string
	Gender  string
	Street  string
	Number  string
	ZipCode string
	City    string
	Status  Status
	PID     string // matriculation number or employee phone
	Email   string
	Phone   string
	IBAN    string
}

func (p Profile) StreetLine() string { return p.Street + " " + p.Number }
func (p Profile) CityLine() string   { return p.ZipCode + " " + p.City }

// Access selects how the booking form is filled. It is either a
// LoginPayload or a DirectPayload.
type Access interface{ access() }

// LoginPayload signs in with an existing portal account; only the address is
// patched afterwards.
type LoginPayload struct {
	Password string
}

// DirectPayload fills the whole personal details form from the Profile.
type DirectPayload struct{}

func (LoginPayload) access()  {}
func (DirectPayload) access() {}

type Credentials struct {
	Profile
	Access Access
}

// New picks the access variant from the presence of a login password.
func New(p Profile, password string) Credentials {
	if password != "" {
		return Credentials{Profile: p, Access: LoginPayload{Password: password}}
	}
	return Credentials{Profile: p, Access: DirectPayload{}}
}

func (c Credentials) HasLogin() bool {
	_, ok := c.Access.(LoginPayload)
	return ok
}

// Validate returns the first reason the record cannot be submitted, wrapped in
// ErrInvalidCredentials.
func (c Credentials) Validate() error {
	required := []struct{ name, value string }{
		{"name", c.Name},
		{"surname", c.Surname},
		{"gender", c.Gender},
		{"street", c.Street},
		{"house number", c.Number},
		{"zipcode", c.ZipCode},
		{"city", c.City},
		{"status", string(c.Status)},
		{"email", c.Email},
		{"tel", c.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: no %s provided", internaltypes.ErrInvalidCredentials, r.name)
		}
	}
	if !validGender(c.Gender) {
		return fmt.Errorf("%w: gender must be one of %v", internaltypes.ErrInvalidCredentials, Genders)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: status must be one of %v", internaltypes.ErrInvalidCredentials, Statuses)
	}
	if c.Status != StatusExternal && strings.TrimSpace(c.PID) == "" {
		return fmt.Errorf("%w: no matriculation number / employee phone number (pid) provided for status %s",
			internaltypes.ErrInvalidCredentials, c.Status)
	}
	switch a := c.Access.(type) {
	case LoginPayload:
		if a.Password == "" {
			return fmt.Errorf("%w: empty login password", internaltypes.ErrInvalidCredentials)
		}
	case DirectPayload:
	default:
		return fmt.Errorf("%w: no access variant", internaltypes.ErrInvalidCredentials)
	}
	return nil
}

func (c Credentials) IsValid() bool { return c.Validate() == nil }

func validGender(g string) bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}
