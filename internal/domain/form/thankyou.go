package form

import (
	"html"
	"regexp"
	"strings"
)

// DefaultThankYou is shown when a form has no message of its own.
const DefaultThankYou = "Thank You! We have received your form submission."

var placeholderRe = regexp.MustCompile(`\{field:([^{}]*)\}`)

// ThankYou renders the form's confirmation message. Each {field:<handler>}
// is replaced by the raw submitted value of the first field with that
// handler name; unknown handlers render empty.
func ThankYou(l *Loaded, raw map[string]any) string {
	msg := l.ThankYou
	if strings.TrimSpace(msg) == "" {
		return DefaultThankYou
	}

	byHandler := make(map[string]string)
	for _, f := range l.Fields {
		cfg := f.Config()
		if cfg.Handler == "" {
			continue
		}
		if _, ok := byHandler[cfg.Handler]; !ok {
			byHandler[cfg.Handler] = cfg.ID
		}
	}

	msg = placeholderRe.ReplaceAllStringFunc(msg, func(m string) string {
		handler := strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1])
		id, ok := byHandler[handler]
		if !ok {
			return ""
		}
		return html.EscapeString(joined(raw[id], ", "))
	})
	return strings.ReplaceAll(msg, "\r\n", "<br>")
}
