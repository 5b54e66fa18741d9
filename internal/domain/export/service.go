package export

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/domain/submission"
	"properforms/internal/domain/upload"
)

const (
	ColumnID   = "Sub_ID"
	ColumnDate = "Date"

	DefaultPageSize = 100
	dateLayout      = "2006/01/02"
)

// FormReader resolves the current field set of a form.
type FormReader interface {
	FormFields(ctx context.Context, formID int64) ([]field.Field, error)
}

// SubmissionPager reads a form's submissions oldest first.
type SubmissionPager interface {
	Page(ctx context.Context, formID int64, offset, limit int) ([]*submission.Submission, error)
}

// Row is one exported submission. Columns keep the order they were set in.
type Row struct {
	cols []string
	vals map[string]string
}

func newRow() *Row {
	return &Row{vals: map[string]string{}}
}

// Set stores a cell. A repeated column keeps its first position.
func (r *Row) Set(col, value string) {
	if _, ok := r.vals[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = value
}

func (r *Row) Get(col string) string { return r.vals[col] }

// fieldColumn names a field's column. A label already used in the row,
// Sub_ID and Date included, gets the field id appended.
func (r *Row) fieldColumn(label, id string) string {
	name := columnName(label, id)
	if _, taken := r.vals[name]; taken {
		name += " (" + id + ")"
	}
	return name
}

func (r *Row) Columns() []string { return r.cols }

type Service struct {
	forms   FormReader
	subs    SubmissionPager
	baseURL string
	log     *zap.Logger
}

// NewService builds the exporter. baseURL prefixes file links.
func NewService(forms FormReader, subs SubmissionPager, baseURL string, log *zap.Logger) *Service {
	return &Service{forms: forms, subs: subs, baseURL: baseURL, log: log}
}

// Collect pages through a form's submissions and projects each one to a
// row. maxPages <= 0 reads every page.
func (s *Service) Collect(ctx context.Context, formID int64, pageSize, maxPages int) ([]*Row, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	fields, err := s.forms.FormFields(ctx, formID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var rows []*Row
	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		subs, err := s.subs.Page(ctx, formID, page*pageSize, pageSize)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			row, err := s.project(sub, fields)
			if err != nil {
				s.log.Warn("submission skipped in export", zap.Int64("submission_id", sub.ID), zap.Error(err))
				continue
			}
			rows = append(rows, row)
		}
		if len(subs) < pageSize {
			break
		}
	}

	s.log.Info("submissions collected for export", zap.Int64("form_id", formID), zap.Int("rows", len(rows)))
	return rows, nil
}

// project renders a submission against the form's current fields, then
// appends stored values of removed fields under their saved label.
func (s *Service) project(sub *submission.Submission, fields []field.Field) (*Row, error) {
	values, err := sub.Values()
	if err != nil {
		return nil, err
	}

	row := newRow()
	row.Set(ColumnID, strconv.FormatInt(sub.ID, 10))
	row.Set(ColumnDate, sub.CreatedAt.UTC().Format(dateLayout))

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		cfg := f.Config()
		seen[cfg.ID] = true
		if cfg.Type == field.KindSubmit {
			continue
		}
		row.Set(row.fieldColumn(cfg.Label, cfg.ID), s.cell(cfg.Type, values[cfg.ID]))
	}

	var removed []string
	for id := range values {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		label, err := sub.Label(id)
		if err != nil {
			s.log.Warn("label snapshot unreadable, exporting field id", zap.Int64("submission_id", sub.ID), zap.Error(err))
		}
		row.Set(row.fieldColumn(label, id), s.cell("", values[id]))
	}
	return row, nil
}

func (s *Service) cell(kind field.Kind, v any) string {
	switch kind {
	case field.KindConsent:
		if strings.TrimSpace(field.Stringify(v)) == "" {
			return ""
		}
		return "1"
	case field.KindFileUpload:
		if id, ok := field.ParseID(v); ok {
			return upload.FileURL(s.baseURL, id)
		}
		return field.Stringify(v)
	}
	return strings.Join(field.Strings(v), ", ")
}

func columnName(label, id string) string {
	if name := field.StripTags(label); name != "" {
		return name
	}
	return id
}

// NormalizeColumns returns Sub_ID followed by every other column in first
// seen order, and each row laid out in that order with gaps as "".
func NormalizeColumns(rows []*Row) ([]string, [][]string) {
	cols := []string{ColumnID}
	known := map[string]bool{ColumnID: true}
	for _, r := range rows {
		for _, c := range r.Columns() {
			if !known[c] {
				known[c] = true
				cols = append(cols, c)
			}
		}
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = r.Get(c)
		}
		table = append(table, line)
	}
	return cols, table
}
