package field

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"properforms/internal/pkg/validator"
)

// Text covers text, tel, country and hidden inputs.
type Text struct{ base }

func (f *Text) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	return sanitizeText(Stringify(raw)), nil
}

type TextArea struct{ base }

func (f *TextArea) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	return sanitizeTextArea(Stringify(raw)), nil
}

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

type Numbers struct{ base }

func (f *Numbers) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	s := strings.TrimSpace(Stringify(raw))
	if s == "" {
		return "", nil
	}
	if jsonNumber.MatchString(s) {
		return json.Number(s), nil
	}
	// decimal forms such as "+5", ".5" or "007" are stored in canonical form;
	// hex, NaN and infinities are not numbers here
	if strings.Contains(strings.ToLower(s), "0x") {
		return nil, f.fail(InvalidFormat)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, f.fail(InvalidFormat)
	}
	return json.Number(strconv.FormatFloat(n, 'f', -1, 64)), nil
}

type Email struct{ base }

func (f *Email) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	s := strings.TrimSpace(Stringify(raw))
	if s == "" {
		return "", nil
	}
	if !validator.Var(s, "email") {
		return nil, f.fail(InvalidFormat)
	}
	return s, nil
}

// Choice covers select and radio. Any string is accepted, configured
// options are not enforced.
type Choice struct{ base }

func (f *Choice) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	return sanitizeText(Stringify(raw)), nil
}

// MultiChoice covers checkbox groups and multiselects.
type MultiChoice struct{ base }

func (f *MultiChoice) Validate(raw any) (any, error) {
	values := cleanList(raw)
	if f.cfg.Required && len(values) == 0 {
		return nil, f.fail(MissingRequired)
	}
	return values, nil
}

type Consent struct{ base }

func (f *Consent) Validate(raw any) (any, error) {
	values := cleanList(raw)
	if f.cfg.Required && len(values) == 0 {
		return nil, f.fail(MissingRequired)
	}
	return values, nil
}

type Submit struct{ base }

func (f *Submit) Validate(raw any) (any, error) {
	return sanitizeText(Stringify(raw)), nil
}

func cleanList(raw any) []string {
	items := Strings(raw)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = sanitizeText(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
