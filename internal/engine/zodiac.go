package engine

import (
	"strings"
	"time"
)

// Sign is a western zodiac sign, identified by its English name.
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// Czech display names, used when the message catalog has no entry for a sign.
var signCzech = map[Sign]string{
	Aries:       "Beran",
	Taurus:      "Býk",
	Gemini:      "Blíženec",
	Cancer:      "Rak",
	Leo:         "Lev",
	Virgo:       "Panna",
	Libra:       "Váhy",
	Scorpio:     "Štír",
	Sagittarius: "Střelec",
	Capricorn:   "Kozoroh",
	Aquarius:    "Vodnář",
	Pisces:      "Ryba",
}

// CzechName returns the Czech name of the sign.
func (s Sign) CzechName() string {
	if n, ok := signCzech[s]; ok {
		return n
	}
	return string(s)
}

// Key returns the lower-case identifier used in message catalog keys.
func (s Sign) Key() string {
	return strings.ToLower(string(s))
}

type signRange struct {
	sign       Sign
	start, end monthDay
}

type monthDay struct {
	month time.Month
	day   int
}

func (a monthDay) before(b monthDay) bool {
	return a.month < b.month || (a.month == b.month && a.day < b.day)
}

// Inclusive ranges in calendar order; Capricorn wraps the year end.
var signRanges = []signRange{
	{Capricorn, monthDay{time.January, 1}, monthDay{time.January, 19}},
	{Aquarius, monthDay{time.January, 20}, monthDay{time.February, 18}},
	{Pisces, monthDay{time.February, 19}, monthDay{time.March, 20}},
	{Aries, monthDay{time.March, 21}, monthDay{time.April, 19}},
	{Taurus, monthDay{time.April, 20}, monthDay{time.May, 20}},
	{Gemini, monthDay{time.May, 21}, monthDay{time.June, 20}},
	{Cancer, monthDay{time.June, 21}, monthDay{time.July, 22}},
	{Leo, monthDay{time.July, 23}, monthDay{time.August, 22}},
	{Virgo, monthDay{time.August, 23}, monthDay{time.September, 22}},
	{Libra, monthDay{time.September, 23}, monthDay{time.October, 22}},
	{Scorpio, monthDay{time.October, 23}, monthDay{time.November, 21}},
	{Sagittarius, monthDay{time.November, 22}, monthDay{time.December, 21}},
	{Capricorn, monthDay{time.December, 22}, monthDay{time.December, 31}},
}

// ZodiacSign returns the sign for a calendar day. The year is ignored.
func ZodiacSign(d time.Time) Sign {
	md := monthDay{d.Month(), d.Day()}
	for _, r := range signRanges {
		if !md.before(r.start) && !r.end.before(md) {
			return r.sign
		}
	}
	return Capricorn
}

// AstrologicalNumber reduces the digits of a date string to a number in 1..9.
func AstrologicalNumber(dob string) int {
	total := 0
	for _, c := range dob {
		if c >= '0' && c <= '9' {
			total += int(c - '0')
		}
	}
	if n := total % 9; n != 0 {
		return n
	}
	return 9
}
