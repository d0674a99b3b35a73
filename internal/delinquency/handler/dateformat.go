package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"arrears/internal/delinquency/models"
	dErrors "arrears/pkg/domain-errors"
)

// defaultDateFormat applies when a request carries dates but no dateFormat.
const defaultDateFormat = "yyyy-MM-dd"

// dateParser parses request dates using a client supplied pattern in the
// java.time DateTimeFormatter notation, e.g. "dd MMMM yyyy".
type dateParser struct {
	layout string
	format string
}

func newDateParser(format, locale string) (*dateParser, error) {
	if err := checkLocale(locale); err != nil {
		return nil, err
	}
	if strings.TrimSpace(format) == "" {
		format = defaultDateFormat
	}
	layout, err := goLayout(format)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return &dateParser{layout: layout, format: format}, nil
}

// parse returns nil for an empty value so the validator can report the
// missing date under the rule that owns it.
func (p *dateParser) parse(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(p.layout, value)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s %q does not match date format %q", field, value, p.format))
	}
	d := models.Date(t)
	return &d, nil
}

// checkLocale accepts English locales only, in either en_GB or en-GB form.
func checkLocale(locale string) error {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid locale %q", locale))
	}
	base, _ := tag.Base()
	if base.String() != "en" {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported locale %q", locale))
	}
	return nil
}

// layoutPart is either literal text or a Go layout field.
type layoutPart struct {
	text  string
	field bool
}

// goLayout translates a DateTimeFormatter pattern into a time.Parse layout.
// Only date fields are supported. Go layouts cannot escape literal text, so
// a pattern whose literals would read as layout fields is rejected.
func goLayout(pattern string) (string, error) {
	var parts []layoutPart
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]

		if c == '\'' {
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return "", fmt.Errorf("unterminated literal in date format %q", pattern)
			}
			if end == i+1 {
				parts = append(parts, layoutPart{text: "'"})
			} else {
				parts = append(parts, layoutPart{text: string(runes[i+1 : end])})
			}
			i = end + 1
			continue
		}

		if !isASCIILetter(c) {
			parts = append(parts, layoutPart{text: string(c)})
			i++
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		token, err := layoutToken(c, n)
		if err != nil {
			return "", fmt.Errorf("%w in date format %q", err, pattern)
		}
		parts = append(parts, layoutPart{text: token, field: true})
		i += n
	}

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.text)
	}
	layout := b.String()
	if err := checkLiterals(layout, parts); err != nil {
		return "", fmt.Errorf("%w in date format %q", err, pattern)
	}
	return layout, nil
}

// layoutSamples differ from the reference time in every field, time of day
// and zone included, so any literal read as a field renders differently.
var layoutSamples = []time.Time{
	time.Date(2033, time.November, 28, 1, 7, 8, 123456789, time.UTC),
	time.Date(2041, time.March, 7, 4, 9, 6, 987654321, time.UTC),
}

// checkLiterals formats the samples with layout and compares the result with
// the intended rendering, where literal parts stay verbatim.
func checkLiterals(layout string, parts []layoutPart) error {
	for _, sample := range layoutSamples {
		var want strings.Builder
		for _, p := range parts {
			if p.field {
				want.WriteString(renderField(p.text, sample))
			} else {
				want.WriteString(p.text)
			}
		}
		if sample.Format(layout) != want.String() {
			return errors.New("literal text clashes with date fields")
		}
	}
	return nil
}

func renderField(token string, t time.Time) string {
	switch token {
	case "2006":
		return fmt.Sprintf("%04d", t.Year())
	case "06":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "1":
		return strconv.Itoa(int(t.Month()))
	case "01":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "Jan":
		return t.Month().String()[:3]
	case "January":
		return t.Month().String()
	case "2":
		return strconv.Itoa(t.Day())
	case "02":
		return fmt.Sprintf("%02d", t.Day())
	case "Mon":
		return t.Weekday().String()[:3]
	case "Monday":
		return t.Weekday().String()
	}
	return token
}

func layoutToken(c rune, n int) (string, error) {
	switch c {
	case 'y', 'u':
		if n == 2 {
			return "06", nil
		}
		return "2006", nil
	case 'M', 'L':
		switch n {
		case 1:
			return "1", nil
		case 2:
			return "01", nil
		case 3:
			return "Jan", nil
		default:
			return "January", nil
		}
	case 'd':
		if n == 1 {
			return "2", nil
		}
		if n == 2 {
			return "02", nil
		}
	case 'E':
		if n >= 4 {
			return "Monday", nil
		}
		return "Mon", nil
	}
	return "", fmt.Errorf("unsupported pattern %q", strings.Repeat(string(c), n))
}

func isASCIILetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
