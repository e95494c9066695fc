package engine

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cislenka/go-horoscope/internal/config"
)

// Field identifies one of the validated form fields.
type Field int

const (
	FieldName Field = iota
	FieldDOB
	FieldCode
)

// Fields lists the validated fields in form order.
var Fields = []Field{FieldName, FieldDOB, FieldCode}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDOB:
		return "dob"
	case FieldCode:
		return "code"
	default:
		return "unknown"
	}
}

// FieldError is the reason a field was rejected. The zero value means accepted.
type FieldError string

const (
	ErrNone        FieldError = ""
	ErrRequired    FieldError = "Required"
	ErrTooShort    FieldError = "TooShort"
	ErrTooLong     FieldError = "TooLong"
	ErrInvalidDate FieldError = "InvalidDate"
)

// ValidationResult carries one optional error per field.
type ValidationResult struct {
	Name FieldError
	DOB  FieldError
	Code FieldError
}

// Valid reports whether every field was accepted.
func (r ValidationResult) Valid() bool {
	return r.Name == ErrNone && r.DOB == ErrNone && r.Code == ErrNone
}

// Get returns the error recorded for f.
func (r ValidationResult) Get(f Field) FieldError {
	switch f {
	case FieldName:
		return r.Name
	case FieldDOB:
		return r.DOB
	case FieldCode:
		return r.Code
	}
	return ErrNone
}

// With returns a copy of r with the error for f replaced.
func (r ValidationResult) With(f Field, e FieldError) ValidationResult {
	switch f {
	case FieldName:
		r.Name = e
	case FieldDOB:
		r.DOB = e
	case FieldCode:
		r.Code = e
	}
	return r
}

// InvalidFields returns the rejected fields in form order.
func (r ValidationResult) InvalidFields() []Field {
	var out []Field
	for _, f := range Fields {
		if r.Get(f) != ErrNone {
			out = append(out, f)
		}
	}
	return out
}

var dobPattern = regexp.MustCompile(config.DOBPattern)

// Validate checks every field of in. today supplies the calendar day used by the
// "born before today" rule, so the function stays pure.
func Validate(in FormInput, today time.Time) ValidationResult {
	return ValidationResult{
		Name: ValidateField(FieldName, in, today),
		DOB:  ValidateField(FieldDOB, in, today),
		Code: ValidateField(FieldCode, in, today),
	}
}

// ValidateField checks a single field of in.
func ValidateField(f Field, in FormInput, today time.Time) FieldError {
	t := in.Trimmed()
	switch f {
	case FieldName:
		return validateName(t.Name)
	case FieldDOB:
		return validateDOB(t.DOB, today)
	case FieldCode:
		return validateCode(t.Code)
	}
	return ErrNone
}

func validateName(name string) FieldError {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return ErrRequired
	case n < config.NameMinLen:
		return ErrTooShort
	case n > config.NameMaxLen:
		return ErrTooLong
	}
	return ErrNone
}

func validateCode(code string) FieldError {
	n := utf8.RuneCountInString(code)
	switch {
	case n == 0:
		return ErrRequired
	case n < config.CodeMinLen:
		return ErrTooShort
	}
	return ErrNone
}

func validateDOB(dob string, today time.Time) FieldError {
	if dob == "" {
		return ErrRequired
	}
	if _, ok := ParseDOB(dob, today); !ok {
		return ErrInvalidDate
	}
	return ErrNone
}

// ParseDOB decomposes a DD.MM.YYYY string into a date that exists, lies strictly
// before today's calendar day and has a year inside the accepted bounds.
func ParseDOB(dob string, today time.Time) (time.Time, bool) {
	m := dobPattern.FindStringSubmatch(dob)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if year <= config.MinBirthYearExclusive || year >= config.MaxBirthYearExclusive {
		return time.Time{}, false
	}

	loc := today.Location()
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	// time.Date normalizes overflow (31.04 -> 01.05); a changed component means the day does not exist.
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, false
	}

	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	if !date.Before(todayStart) {
		return time.Time{}, false
	}
	return date, true
}
