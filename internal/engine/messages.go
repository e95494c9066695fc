package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/cislenka/go-horoscope/internal/config"
)

// Translator resolves a message catalog key. Like a go-i18n localizer wrapper,
// it returns the key itself when the catalog has no entry.
type Translator func(key string, data map[string]interface{}) string

type message struct {
	key      string
	fallback string
}

// text returns the catalog entry for m, or its fixed-locale fallback.
func (t Translator) text(m message, data map[string]interface{}) string {
	if t != nil {
		if s := t(m.key, data); s != "" && s != m.key {
			return s
		}
	}
	return m.fallback
}

var fieldLabels = map[Field]message{
	FieldName: {config.TKeyLblName, config.FallbackLblName},
	FieldDOB:  {config.TKeyLblDOB, config.FallbackLblDOB},
	FieldCode: {config.TKeyLblCode, config.FallbackLblCode},
}

type fieldReason struct {
	field Field
	err   FieldError
}

var inlineErrors = map[fieldReason]message{
	{FieldName, ErrRequired}:   {config.TKeyErrNameRequired, config.FallbackErrNameRequired},
	{FieldName, ErrTooShort}:   {config.TKeyErrNameShort, config.FallbackErrNameShort},
	{FieldName, ErrTooLong}:    {config.TKeyErrNameLong, config.FallbackErrNameLong},
	{FieldDOB, ErrRequired}:    {config.TKeyErrDOBRequired, config.FallbackErrDOBRequired},
	{FieldDOB, ErrInvalidDate}: {config.TKeyErrDOBInvalid, config.FallbackErrDOBInvalid},
	{FieldCode, ErrRequired}:   {config.TKeyErrCodeRequired, config.FallbackErrCodeRequired},
	{FieldCode, ErrTooShort}:   {config.TKeyErrCodeShort, config.FallbackErrCodeShort},
}

var fieldWarnings = map[fieldReason]message{
	{FieldName, ErrRequired}:   {config.TKeyWarnNameRequired, config.FallbackWarnNameRequired},
	{FieldName, ErrTooShort}:   {config.TKeyWarnNameShort, config.FallbackWarnNameShort},
	{FieldName, ErrTooLong}:    {config.TKeyWarnNameLong, config.FallbackWarnNameLong},
	{FieldDOB, ErrRequired}:    {config.TKeyWarnDOBRequired, config.FallbackWarnDOBRequired},
	{FieldDOB, ErrInvalidDate}: {config.TKeyWarnDOBInvalid, config.FallbackWarnDOBInvalid},
	{FieldCode, ErrRequired}:   {config.TKeyWarnCodeRequired, config.FallbackWarnCodeRequired},
	{FieldCode, ErrTooShort}:   {config.TKeyWarnCodeShort, config.FallbackWarnCodeShort},
}

// FieldLabel returns the display name of f.
func FieldLabel(t Translator, f Field) string {
	return t.text(fieldLabels[f], nil)
}

// FieldErrorText returns the inline reason for e on f, or "" when e is ErrNone.
func FieldErrorText(t Translator, f Field, e FieldError) string {
	if e == ErrNone {
		return ""
	}
	return t.text(inlineErrors[fieldReason{f, e}], nil)
}

// FieldWarningText returns the short warning shown when f loses focus with error e.
func FieldWarningText(t Translator, f Field, e FieldError) string {
	if e == ErrNone {
		return ""
	}
	return t.text(fieldWarnings[fieldReason{f, e}], nil)
}

// SignName returns the display name of a zodiac sign.
func SignName(t Translator, s Sign) string {
	return t.text(message{config.TKeyZodiacPrefix + s.Key(), s.CzechName()}, nil)
}

// FailureMessage derives the text shown to the user for a failed submission.
// Structured server detail wins over the HTTP status text, which wins over the
// generic messages. Transport failures always map to the generic retry message.
func FailureMessage(t Translator, err error) string {
	generic := message{config.TKeyErrGeneration, config.FallbackErrGeneration}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return t.text(message{config.TKeyErrUnknown, config.FallbackErrUnknown}, nil)
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if jsonErr := json.Unmarshal(apiErr.Body, &body); jsonErr != nil {
		slog.Debug(config.MsgDetailParse,
			config.LogKeyComponent, config.CompController,
			config.LogKeyStatus, apiErr.StatusCode,
			config.LogKeyError, jsonErr)
		if apiErr.StatusText != "" {
			return apiErr.StatusText
		}
		return t.text(generic, nil)
	}

	if detail := formatDetail(body.Detail); detail != "" {
		return detail
	}
	return t.text(generic, nil)
}

// formatDetail renders a {detail} value: a list is joined from its msg fields,
// a string is used as is. The text is shown verbatim, never interpreted as markup. Anything else, including empty values, yields "".
func formatDetail(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			var sub struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(item, &sub); err == nil && sub.Msg != "" {
				parts = append(parts, strings.TrimSpace(sub.Msg))
				continue
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, item); err != nil {
				continue
			}
			parts = append(parts, compact.String())
		}
		return strings.Join(parts, config.DetailSeparator)
	}
	return ""
}
