package field

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Option is one (value, label) pair of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options is an ordered option list. It also accepts the legacy
// "value|label~value2|label2" string on decode.
type Options []Option

func (o *Options) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var legacy string
		if err := json.Unmarshal(data, &legacy); err != nil {
			return err
		}
		*o = ParseLegacyOptions(legacy)
		return nil
	}
	var list []Option
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	*o = list
	return nil
}

// ParseLegacyOptions decodes "value|label~value2|label2". Pairs that do not
// split into exactly two parts, or that have an empty value, are skipped.
func ParseLegacyOptions(s string) Options {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out Options
	for _, pair := range strings.Split(s, "~") {
		parts := strings.Split(pair, "|")
		if len(parts) != 2 {
			continue
		}
		value := strings.TrimSpace(parts[0])
		if value == "" {
			continue
		}
		out = append(out, Option{Value: value, Label: strings.TrimSpace(parts[1])})
	}
	return out
}

// Label returns the label configured for value, or value itself.
func (o Options) Label(value string) string {
	for _, opt := range o {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}
