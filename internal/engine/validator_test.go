package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/stretchr/testify/assert"
)

// Reference "today" for every validation case: June 15th, 2024.
var validationToday = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func validInput() engine.FormInput {
	return engine.FormInput{
		Name:          "Jana",
		DOB:           "01.02.1990",
		Code:          "abc",
		HoroscopeType: engine.HoroscopeBasic,
	}
}

func TestValidate_AcceptsValidInput(t *testing.T) {
	res := engine.Validate(validInput(), validationToday)
	assert.True(t, res.Valid())
	assert.Empty(t, res.InvalidFields())
}

func TestValidate_RequiredFields(t *testing.T) {
	for _, blank := range []string{"", "   ", "\t\n"} {
		in := engine.FormInput{Name: blank, DOB: blank, Code: blank}
		res := engine.Validate(in, validationToday)

		assert.False(t, res.Valid())
		assert.Equal(t, engine.ErrRequired, res.Name, "name %q", blank)
		assert.Equal(t, engine.ErrRequired, res.DOB, "dob %q", blank)
		assert.Equal(t, engine.ErrRequired, res.Code, "code %q", blank)
		assert.Equal(t, []engine.Field{engine.FieldName, engine.FieldDOB, engine.FieldCode}, res.InvalidFields())
	}
}

func TestValidate_NameLength(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want engine.FieldError
	}{
		{"one char", "a", engine.ErrTooShort},
		{"two chars", "ab", engine.ErrNone},
		{"fifty chars", strings.Repeat("x", 50), engine.ErrNone},
		{"fifty one chars", strings.Repeat("x", 51), engine.ErrTooLong},
		{"trimmed before counting", "  a  ", engine.ErrTooShort},
		{"multibyte counted as runes", "Šá", engine.ErrNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Name = tt.in
			assert.Equal(t, tt.want, engine.Validate(in, validationToday).Name)
		})
	}
}

func TestValidate_DateOfBirth(t *testing.T) {
	tests := []struct {
		name  string
		dob   string
		today time.Time
		want  engine.FieldError
	}{
		{"leap day in the past", "29.02.2024", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), engine.ErrNone},
		{"leap day in a common year", "29.02.2023", validationToday, engine.ErrInvalidDate},
		{"april has thirty days", "31.04.2020", validationToday, engine.ErrInvalidDate},
		{"month thirteen", "01.13.2000", validationToday, engine.ErrInvalidDate},
		{"day zero", "00.01.2000", validationToday, engine.ErrInvalidDate},
		{"equal to today", "15.06.2024", validationToday, engine.ErrInvalidDate},
		{"yesterday", "14.06.2024", validationToday, engine.ErrNone},
		{"future", "16.06.2024", validationToday, engine.ErrInvalidDate},
		{"year 1899", "01.01.1899", validationToday, engine.ErrInvalidDate},
		{"year 1900 excluded", "01.01.1900", validationToday, engine.ErrInvalidDate},
		{"year 1901", "01.01.1901", validationToday, engine.ErrNone},
		{"year 2025", "01.01.2025", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), engine.ErrInvalidDate},
		{"single digit day", "1.02.1990", validationToday, engine.ErrInvalidDate},
		{"iso layout", "1990-02-01", validationToday, engine.ErrInvalidDate},
		{"surrounding spaces trimmed", "  01.02.1990 ", validationToday, engine.ErrNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.DOB = tt.dob
			assert.Equal(t, tt.want, engine.Validate(in, tt.today).DOB)
		})
	}
}

func TestValidate_Code(t *testing.T) {
	in := validInput()

	in.Code = "ab"
	assert.Equal(t, engine.ErrTooShort, engine.Validate(in, validationToday).Code)

	in.Code = "abc"
	assert.Equal(t, engine.ErrNone, engine.Validate(in, validationToday).Code)

	in.Code = " ab "
	assert.Equal(t, engine.ErrTooShort, engine.Validate(in, validationToday).Code)
}

func TestValidate_TodayTimezoneIsRespected(t *testing.T) {
	// 00:30 in Prague is still June 14th in UTC; calendar days are compared in the location of "today".
	prague := time.FixedZone("CEST", 2*60*60)
	today := time.Date(2024, 6, 15, 0, 30, 0, 0, prague)

	in := validInput()
	in.DOB = "14.06.2024"
	assert.Equal(t, engine.ErrNone, engine.Validate(in, today).DOB)

	in.DOB = "15.06.2024"
	assert.Equal(t, engine.ErrInvalidDate, engine.Validate(in, today).DOB)
}

func TestValidationResult_With(t *testing.T) {
	var res engine.ValidationResult
	res = res.With(engine.FieldCode, engine.ErrTooShort)

	assert.Equal(t, engine.ErrTooShort, res.Get(engine.FieldCode))
	assert.Equal(t, []engine.Field{engine.FieldCode}, res.InvalidFields())
	assert.False(t, res.Valid())
}

func TestParseDOB_ReturnsDate(t *testing.T) {
	d, ok := engine.ParseDOB("29.02.2000", validationToday)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC), d)
}
