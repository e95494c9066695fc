package engine

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/emersion/go-vcard"
)

// ImportContact reads a vCard stream and returns a form prefilled from the first
// contact that carries a name. The date of birth is filled only when the contact
// has a full BDAY including the year. Malformed cards are skipped; a stream
// without any usable contact yields an error.
func ImportContact(r io.Reader) (FormInput, error) {
	decoder := vcard.NewDecoder(r)
	parsed := 0

	for {
		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompImport,
				config.LogKeyError, err)
			continue
		}
		parsed++

		name := contactName(card)
		if name == "" {
			continue
		}

		in := NewFormInput()
		in.Name = name
		if bday := card.Get(config.VCardBDAY); bday != nil && bday.Value != "" {
			if d, err := parseDate(bday.Value); err == nil {
				in.DOB = d.Format(config.DateFormatDOB)
			} else {
				slog.Debug(config.MsgSkippedDate,
					config.LogKeyComponent, config.CompImport,
					config.LogKeyValue, bday.Value)
			}
		}

		slog.Info(config.MsgImportedContact,
			config.LogKeyComponent, config.CompImport,
			config.LogKeyCount, parsed)
		return in, nil
	}

	return FormInput{}, errors.New(config.ErrVCardEmpty)
}

// contactName prefers the formatted name, then the structured one.
func contactName(card vcard.Card) string {
	if fn := card.Get(config.VCardFN); fn != nil && strings.TrimSpace(fn.Value) != "" {
		return strings.TrimSpace(fn.Value)
	}
	if n := card.Name(); n != nil {
		return strings.TrimSpace(strings.Join(strings.Fields(n.GivenName+" "+n.FamilyName), " "))
	}
	return ""
}

// parseDate handles the vCard BDAY layouts that carry a year.
func parseDate(value string) (time.Time, error) {
	formats := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(config.ErrDateParse)
}
