package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ProfileID string

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

var Sexes = []Sex{SexMale, SexFemale, SexOther}

// DateLayout is the wire format of a date of birth.
const DateLayout = "2006-01-02"

// DisplayDateLayout renders a date of birth as e.g. "January 2, 2006".
const DisplayDateLayout = "January 2, 2006"

// Passcode accepts either a JSON number or a JSON string. Anything else is
// kept as its raw JSON text so validation can report it.
type Passcode string

func (p *Passcode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Passcode(s)
	default:
		*p = Passcode(data)
	}
	return nil
}

func (p Passcode) String() string {
	return string(p)
}

// Interests is stored as a JSON array in SQL backends.
type Interests []string

func (i Interests) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, fmt.Errorf("marshalling interests: %w", err)
	}
	return string(b), nil
}

func (i *Interests) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*i = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported interests column type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshalling interests: %w", err)
	}
	*i = out
	return nil
}

type CreateProfileParams struct {
	FirstName      string    `json:"firstName" form:"firstName"`
	LastName       string    `json:"lastName" form:"lastName"`
	DOB            string    `json:"dob" form:"dob"`
	Location       string    `json:"location" form:"location"`
	ProfilePicture string    `json:"profilePicture" form:"profilePicture"`
	Interests      Interests `json:"interests" form:"interests"`
	Sex            string    `json:"sex" form:"sex"`
	Email          string    `json:"email" form:"email"`
	Passcode       Passcode  `json:"passcode" form:"passcode"`
}

// IsEmpty reports whether no field was submitted at all.
func (p *CreateProfileParams) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.DOB == "" && p.Location == "" &&
		p.ProfilePicture == "" && p.Interests == nil && p.Sex == "" && p.Email == "" && p.Passcode == ""
}

type LoginParams struct {
	Email    string   `json:"email" form:"email"`
	Passcode Passcode `json:"passcode" form:"passcode"`
}

func (p *LoginParams) IsEmpty() bool {
	return p.Email == "" && p.Passcode == ""
}

type Profile struct {
	ID             ProfileID `db:"ID" json:"id"`
	CreatedAt      time.Time `db:"CreatedAt" json:"createdAt"`
	FirstName      string    `db:"FirstName" json:"firstName"`
	LastName       string    `db:"LastName" json:"lastName"`
	DOB            time.Time `db:"Dob" json:"dob"`
	Location       string    `db:"Location" json:"location"`
	ProfilePicture string    `db:"ProfilePicture" json:"profilePicture"`
	Interests      Interests `db:"Interests" json:"interests"`
	Sex            Sex       `db:"Sex" json:"sex"`
	Email          string    `db:"Email" json:"email"`
	Passcode       string    `db:"Passcode" json:"-"`
}

// NewProfile builds a profile from already validated params. pictureURL is
// where the uploaded picture can be fetched and passcodeHash the one-way hash
// of params.Passcode.
func NewProfile(id ProfileID, params *CreateProfileParams, pictureURL, passcodeHash string, now time.Time) (*Profile, error) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(params.DOB))
	if err != nil {
		return nil, fmt.Errorf("parsing date of birth: %w", err)
	}

	interests := make(Interests, 0, len(params.Interests))
	for _, interest := range params.Interests {
		interests = append(interests, strings.TrimSpace(interest))
	}

	return &Profile{
		ID:             id,
		CreatedAt:      now.UTC(),
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		DOB:            dob,
		Location:       strings.TrimSpace(params.Location),
		ProfilePicture: pictureURL,
		Interests:      interests,
		Sex:            Sex(strings.ToLower(strings.TrimSpace(params.Sex))),
		Email:          strings.TrimSpace(params.Email),
		Passcode:       passcodeHash,
	}, nil
}

// Summary is the public view of a profile returned on login.
type Summary struct {
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ProfilePicture string    `json:"profilePicture"`
	Location       string    `json:"location"`
	Interests      Interests `json:"interests"`
	DOB            *string   `json:"dob"`
}

func (p *Profile) Summary() *Summary {
	var dob *string
	if !p.DOB.IsZero() {
		formatted := p.DOB.Format(DisplayDateLayout)
		dob = &formatted
	}
	return &Summary{
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		ProfilePicture: p.ProfilePicture,
		Location:       p.Location,
		Interests:      p.Interests,
		DOB:            dob,
	}
}

type LoginResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *Summary `json:"user,omitempty"`
}
