// Package validate holds every field rule applied to submitted profiles and
// logins. Rules never short-circuit: each check appends its own message so a
// single submission reports all of its problems at once.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"uk.co.dudmesh.profiles/internal/model"
)

const (
	MinimumAge     = 18
	MaxInterests   = 5
	PasscodeDigits = 6
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	passcodePattern = regexp.MustCompile(`^\d{6}$`)
)

type ruleType int

const (
	ruleString ruleType = iota
	ruleDate
	ruleArray
	ruleNumber
)

type rule struct {
	field     string
	kind      ruleType
	required  bool
	minLength int
	maxLength int
}

// profileRules is evaluated in order; the order is reflected in the messages.
var profileRules = []rule{
	{field: "firstName", kind: ruleString, required: true, minLength: 2, maxLength: 50},
	{field: "lastName", kind: ruleString, required: true, minLength: 2, maxLength: 50},
	{field: "dob", kind: ruleDate, required: true},
	{field: "location", kind: ruleString, required: true, minLength: 2, maxLength: 100},
	{field: "interests", kind: ruleArray, required: true},
	{field: "sex", kind: ruleString, required: true},
	{field: "email", kind: ruleString, required: true, minLength: 5, maxLength: 100},
	{field: "passcode", kind: ruleNumber, required: true},
}

type Validator struct {
	now           func() time.Time
	maxImageBytes int
}

type Option func(*Validator)

// WithClock replaces time.Now when computing ages.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func WithMaxImageBytes(n int) Option {
	return func(v *Validator) {
		v.maxImageBytes = n
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		now:           time.Now,
		maxImageBytes: MaxImageBytes,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Profile returns every problem found in params; nil means valid.
func (v *Validator) Profile(params *model.CreateProfileParams) []string {
	if params == nil || params.IsEmpty() {
		return []string{model.MessageRequestBodyEmpty}
	}

	var errs []string
	errs = append(errs, v.picture(params.ProfilePicture)...)

	values := map[string]string{
		"firstName": params.FirstName,
		"lastName":  params.LastName,
		"dob":       params.DOB,
		"location":  params.Location,
		"sex":       params.Sex,
		"email":     params.Email,
		"passcode":  string(params.Passcode),
	}

	for _, r := range profileRules {
		if r.kind == ruleArray {
			errs = append(errs, interests(r, params.Interests)...)
			continue
		}

		value := values[r.field]
		if r.required && strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Sprintf("%s is empty", r.field))
			continue
		}

		switch r.kind {
		case ruleString:
			errs = append(errs, length(r, value)...)
			switch r.field {
			case "sex":
				if !IsSex(value) {
					errs = append(errs, "Allowed genders are male | female | other")
				}
			case "email":
				if !IsEmail(value) {
					errs = append(errs, "Invalid email format")
				}
			}
		case ruleDate:
			errs = append(errs, v.dob(value)...)
		case ruleNumber:
			errs = append(errs, passcode(value)...)
		}
	}

	return errs
}

// Login checks the shape of a login request.
func (v *Validator) Login(params *model.LoginParams) []string {
	if params == nil || params.IsEmpty() {
		return []string{model.MessageRequestBodyEmpty}
	}

	var errs []string
	if strings.TrimSpace(params.Email) == "" {
		errs = append(errs, "Email is empty")
	} else if !IsEmail(params.Email) {
		errs = append(errs, "Invalid email format")
	}

	if strings.TrimSpace(string(params.Passcode)) == "" {
		errs = append(errs, "Passcode is empty")
	} else {
		errs = append(errs, passcode(string(params.Passcode))...)
	}

	return errs
}

func length(r rule, value string) []string {
	var errs []string
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if r.minLength > 0 && n < r.minLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters", r.field, r.minLength))
	}
	if r.maxLength > 0 && n > r.maxLength {
		errs = append(errs, fmt.Sprintf("%s must be no more than %d characters", r.field, r.maxLength))
	}
	return errs
}

func interests(r rule, values model.Interests) []string {
	// an empty list counts as missing, like a blank string field
	if len(values) == 0 {
		return []string{fmt.Sprintf("%s is empty", r.field)}
	}

	var errs []string
	if len(values) > MaxInterests {
		errs = append(errs, fmt.Sprintf("Maximum %d interests allowed", MaxInterests))
	}
	for i, interest := range values {
		if strings.TrimSpace(interest) == "" {
			errs = append(errs, fmt.Sprintf("Interest at position %d is empty", i+1))
		}
	}
	return errs
}

func (v *Validator) dob(value string) []string {
	dob, ok := ParseDate(value)
	if !ok {
		return []string{"Date of birth must be in YYYY-MM-DD format"}
	}

	var errs []string
	now := v.now()
	if Age(dob, now) < MinimumAge {
		errs = append(errs, fmt.Sprintf("User must be %d or older", MinimumAge))
	}
	if dob.After(today(now)) {
		errs = append(errs, "Date of birth cannot be in the future")
	}
	return errs
}

func passcode(value string) []string {
	value = strings.TrimSpace(value)
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return []string{"Passcode must be a number"}
	}
	if !IsPasscode(value) {
		return []string{fmt.Sprintf("Passcode must be a %d-digit number", PasscodeDigits)}
	}
	return nil
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func IsSex(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sex := range model.Sexes {
		if s == string(sex) {
			return true
		}
	}
	return false
}

// IsPasscode reports whether s is exactly six ASCII digits.
func IsPasscode(s string) bool {
	return passcodePattern.MatchString(strings.TrimSpace(s))
}

// ParseDate accepts YYYY-MM-DD naming a real calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Age is the number of whole years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
