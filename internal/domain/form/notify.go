package form

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/domain/upload"
	"properforms/internal/pkg/mailer"
)

var notificationTmpl = template.Must(template.New("notification").Parse(
	`<p>Form: {{.Title}}, (ID {{.ID}})</p>
<table><thead><tr><th>Field</th><th>Value</th></tr></thead><tbody>
{{range .Rows}}<tr><td>{{.Label}}</td><td>{{if .Link}}<a href="{{.Link}}">{{.Value}}</a>{{else}}{{.Value}}{{end}}</td></tr>
{{end}}</tbody></table>
`))

type notificationRow struct {
	Label string
	Value string
	Link  string
}

type notificationData struct {
	Title string
	ID    int64
	Rows  []notificationRow
}

// notify mails the submitted values to the form's recipient when enabled.
func (s *Submitter) notify(ctx context.Context, l *Loaded, subID int64, bound []field.Bound) {
	if !l.Notify || strings.TrimSpace(l.NotifyEmail) == "" || len(bound) == 0 || s.mail == nil {
		return
	}

	html, err := s.renderNotification(l, bound)
	if err != nil {
		s.log.Error("notification not rendered", zap.Int64("form_id", l.ID), zap.Error(err))
		return
	}

	msg := mailer.Message{
		To:      recipients(l.NotifyEmail),
		Subject: "New submission: " + l.Title,
		HTML:    html,
		ReplyTo: s.opts.ReplyTo,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Warn("notification not sent",
			zap.Int64("form_id", l.ID),
			zap.Int64("submission_id", subID),
			zap.Error(err),
		)
	}
}

func (s *Submitter) renderNotification(l *Loaded, bound []field.Bound) (string, error) {
	data := notificationData{Title: l.Title, ID: l.ID}
	for _, b := range bound {
		cfg := b.Config()
		if cfg.Label == "" || cfg.Type == field.KindSubmit {
			continue
		}
		row := notificationRow{Label: cfg.Label, Value: joined(b.Value, ";")}
		if cfg.Type == field.KindFileUpload {
			if id, ok := field.ParseID(b.Value); ok {
				row.Link = upload.FileURL(s.opts.PublicBaseURL, id)
				row.Value = row.Link
			}
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func recipients(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
