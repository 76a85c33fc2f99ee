package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type locale struct {
	tag      string
	weekdays [7]string
	months   [12]string
	layout   func(l locale, t time.Time) string
}

var locales = []locale{
	{
		tag:      "en",
		weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		months: [12]string{"January", "February", "March", "April", "May", "June", "July",
			"August", "September", "October", "November", "December"},
		layout: func(l locale, t time.Time) string {
			return fmt.Sprintf("%s, %s %d, %d %s", l.weekdays[t.Weekday()], l.months[t.Month()-1],
				t.Day(), t.Year(), t.Format("3:04:05 PM"))
		},
	},
	{
		tag:      "fr",
		weekdays: [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
			"août", "septembre", "octobre", "novembre", "décembre"},
		layout: func(l locale, t time.Time) string {
			return fmt.Sprintf("%s %d %s %d %s", l.weekdays[t.Weekday()], t.Day(), l.months[t.Month()-1],
				t.Year(), t.Format("15:04:05"))
		},
	},
	{
		tag:      "es",
		weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
			"agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		layout: func(l locale, t time.Time) string {
			return fmt.Sprintf("%s, %d de %s de %d %s", l.weekdays[t.Weekday()], t.Day(), l.months[t.Month()-1],
				t.Year(), t.Format("15:04:05"))
		},
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French, language.Spanish})

// matchLocale picks the closest supported locale for an Accept-Language
// style string, falling back to English.
func matchLocale(s string) locale {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return locales[0]
	}
	_, i, conf := matcher.Match(tags...)
	if conf == language.No {
		return locales[0]
	}
	return locales[i]
}

// SupportedLocale reports the locale tag Build would use for s.
func SupportedLocale(s string) string { return matchLocale(s).tag }

func (l locale) longDateTime(t time.Time) string { return l.layout(l, t) }

// toPrecision formats v with p significant digits, switching to exponent
// notation for very large or small magnitudes ("1.23457e+6").
func toPrecision(v float64, p int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	sci := strconv.FormatFloat(v, 'e', p-1, 64)
	mant, expStr, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expStr)
	if exp < -6 || exp >= p {
		sign := "+"
		if exp < 0 {
			sign, exp = "-", -exp
		}
		return mant + "e" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(v, 'f', p-1-exp, 64)
}
