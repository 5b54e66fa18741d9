package field

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is used when a date field has no format configured.
const DefaultDateFormat = "DD/MM/YYYY"

type datePattern struct {
	re *regexp.Regexp
	// positions of day, month and year among the capture groups
	day, month, year int
}

var datePatterns = map[string]datePattern{
	"DD/MM/YYYY": {regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 1, 2, 3},
	"DD-MM-YYYY": {regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), 1, 2, 3},
	"DD.MM.YYYY": {regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), 1, 2, 3},
	"MM/DD/YYYY": {regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 2, 1, 3},
	"MM-DD-YYYY": {regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), 2, 1, 3},
	"MM.DD.YYYY": {regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), 2, 1, 3},
	"YYYY-MM-DD": {regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), 3, 2, 1},
	"YYYY/MM/DD": {regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), 3, 2, 1},
	"YYYY.MM.DD": {regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})$`), 3, 2, 1},
}

// DateFormats lists the supported date formats.
func DateFormats() []string {
	return []string{
		"DD/MM/YYYY", "DD-MM-YYYY", "DD.MM.YYYY",
		"MM/DD/YYYY", "MM-DD-YYYY", "MM.DD.YYYY",
		"YYYY-MM-DD", "YYYY/MM/DD", "YYYY.MM.DD",
	}
}

type Date struct{ base }

func (f *Date) Format() string {
	if _, ok := datePatterns[f.cfg.Format]; ok {
		return f.cfg.Format
	}
	return DefaultDateFormat
}

// Validate accepts only strings matching the configured format that name a
// real calendar day. A string that does not match the format is invalid.
func (f *Date) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	s := strings.TrimSpace(Stringify(raw))
	if s == "" {
		return "", nil
	}
	p := datePatterns[f.Format()]
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, f.fail(InvalidFormat)
	}
	day, _ := strconv.Atoi(m[p.day])
	month, _ := strconv.Atoi(m[p.month])
	year, _ := strconv.Atoi(m[p.year])
	if !checkDate(month, day, year) {
		return nil, f.fail(InvalidFormat)
	}
	return s, nil
}

func checkDate(month, day, year int) bool {
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
