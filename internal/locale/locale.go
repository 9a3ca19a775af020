// Package locale resolves BCP 47 tags into the month and weekday names used
// for date labels.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Locale carries the names needed to render human dates
type Locale struct {
	Tag language.Tag

	weekdays    [7]string  // indexed by time.Weekday
	months      [12]string // nominative, used standalone ("October 2026")
	monthsOf    [12]string // genitive, used after a day number ("14 October 2026")
	monthsShort [12]string
}

var english = Locale{
	Tag:         language.English,
	weekdays:    [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	months:      [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	monthsOf:    [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	monthsShort: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

var russian = Locale{
	Tag:         language.Russian,
	weekdays:    [7]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"},
	months:      [12]string{"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь", "Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"},
	monthsOf:    [12]string{"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"},
	monthsShort: [12]string{"янв.", "февр.", "мар.", "апр.", "мая", "июн.", "июл.", "авг.", "сент.", "окт.", "нояб.", "дек."},
}

var supported = []Locale{english, russian}

var matcher = language.NewMatcher([]language.Tag{english.Tag, russian.Tag})

// English is the fallback locale
func English() Locale { return english }

// Parse resolves a tag such as "ru-RU" or "en" to the closest supported
// locale. Unknown or malformed tags fall back to English.
func Parse(tag string) Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return english
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return english
	}
	return supported[idx]
}

// Validate reports whether tag is a well-formed BCP 47 tag
func Validate(tag string) error {
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid locale %q: %w", tag, err)
	}
	return nil
}

// Weekday returns the full weekday name
func (l Locale) Weekday(d time.Weekday) string { return l.weekdays[d] }

// Month returns the standalone month name
func (l Locale) Month(m time.Month) string { return l.months[m-1] }

// MonthOf returns the month name as written after a day number
func (l Locale) MonthOf(m time.Month) string { return l.monthsOf[m-1] }

// MonthShort returns the abbreviated month name
func (l Locale) MonthShort(m time.Month) string { return l.monthsShort[m-1] }
