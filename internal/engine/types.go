package engine

import (
	"fmt"
	"strings"

	"github.com/cislenka/go-horoscope/internal/config"
)

// HoroscopeType selects the depth of the generated document.
type HoroscopeType string

const (
	HoroscopeBasic HoroscopeType = config.HoroscopeTypeBasic
	HoroscopeProfi HoroscopeType = config.HoroscopeTypeProfi
)

// HoroscopeTypes lists the types offered to the user, in display order.
var HoroscopeTypes = []HoroscopeType{HoroscopeBasic, HoroscopeProfi}

// ParseHoroscopeType accepts the wire identifiers, case-insensitively.
func ParseHoroscopeType(s string) (HoroscopeType, error) {
	for _, t := range HoroscopeTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%s: %q", config.ErrHoroscopeType, s)
}

// FormInput holds the raw field values as typed by the user.
type FormInput struct {
	Name          string
	DOB           string
	Code          string
	HoroscopeType HoroscopeType
}

// NewFormInput returns the empty form with the default horoscope type.
func NewFormInput() FormInput {
	return FormInput{HoroscopeType: config.DefaultHoroscopeType}
}

// Trimmed returns a copy with surrounding whitespace removed from every text field.
func (in FormInput) Trimmed() FormInput {
	out := FormInput{
		Name:          strings.TrimSpace(in.Name),
		DOB:           strings.TrimSpace(in.DOB),
		Code:          strings.TrimSpace(in.Code),
		HoroscopeType: in.HoroscopeType,
	}
	if out.HoroscopeType == "" {
		out.HoroscopeType = config.DefaultHoroscopeType
	}
	return out
}

// SubmissionState is the single source of truth for the lifecycle of one attempt.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSubmitting:
		return "Submitting"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("SubmissionState(%d)", int(s))
	}
}

// IsSettled reports whether the last submission reached a final outcome.
func (s SubmissionState) IsSettled() bool {
	return s == StateSuccess || s == StateFailed
}

// Artifact is the generated document as returned by the service.
type Artifact struct {
	Data        []byte
	ContentType string
}

// View is the read-only state published to renderers after every change.
type View struct {
	Input        FormInput
	State        SubmissionState
	Progress     float64
	Validation   ValidationResult
	ErrorMessage string
	HasArtifact  bool
}
