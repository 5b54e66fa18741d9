package field

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, cfg Config) Field {
	t.Helper()
	f, err := DefaultRegistry().Build(cfg)
	require.NoError(t, err)
	return f
}

func validationKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Kind
}

func TestRequiredFieldsRejectEmptyValues(t *testing.T) {
	kinds := []Kind{
		KindText, KindTextArea, KindNumbers, KindEmail, KindTel, KindSelect,
		KindMultiselect, KindRadio, KindCheckbox, KindFileUpload, KindDate,
		KindCountry, KindHidden, KindConsent,
	}
	empties := []any{nil, "", "   ", []any{}, []any{""}}

	for _, kind := range kinds {
		f := build(t, Config{ID: "f1", Type: kind, Required: true})
		for _, raw := range empties {
			_, err := f.Validate(raw)
			require.Error(t, err, "kind=%s raw=%#v", kind, raw)
			assert.Equal(t, MissingRequired, validationKind(t, err), "kind=%s", kind)
		}
	}
}

func TestRequiredErrorUsesConfiguredMessage(t *testing.T) {
	f := build(t, Config{ID: "name", Type: KindText, Required: true, ErrorMsg: "Tell us your name"})

	_, err := f.Validate("")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.FieldID)
	assert.Equal(t, "Tell us your name", verr.Message)
}

func TestSubmitIsNeverRequired(t *testing.T) {
	f := build(t, Config{ID: "go", Type: KindSubmit, Required: true})

	v, err := f.Validate(nil)

	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestTextSanitizes(t *testing.T) {
	f := build(t, Config{ID: "t", Type: KindText})

	v, err := f.Validate("  <b>hello</b>\n  world ")

	require.NoError(t, err)
	assert.Equal(t, "hello world", v)
}

func TestTextAreaKeepsLineBreaks(t *testing.T) {
	f := build(t, Config{ID: "t", Type: KindTextArea})

	v, err := f.Validate("line one  \r\n<i>line</i>   two")

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", v)
}

func TestEmailValidation(t *testing.T) {
	f := build(t, Config{ID: "email", Type: KindEmail})

	for _, good := range []string{"a@b.com", "First.Last@Example.ORG"} {
		v, err := f.Validate(good)
		require.NoError(t, err, good)
		assert.Equal(t, good, v)
	}

	for _, bad := range []string{"not-an-email", "user@", "@example.com"} {
		_, err := f.Validate(bad)
		require.Error(t, err, bad)
		assert.Equal(t, InvalidFormat, validationKind(t, err))
	}
}

func TestNumbersValidation(t *testing.T) {
	f := build(t, Config{ID: "n", Type: KindNumbers})

	v, err := f.Validate(" 42.5 ")
	require.NoError(t, err)
	assert.Equal(t, json.Number("42.5"), v)

	v, err = f.Validate(float64(7))
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), v)

	_, err = f.Validate("forty")
	assert.Equal(t, InvalidFormat, validationKind(t, err))

	for _, bad := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "Infinity", "0x1p-2", "0x10"} {
		_, err := f.Validate(bad)
		require.Error(t, err, bad)
		assert.Equal(t, InvalidFormat, validationKind(t, err), bad)
	}

	for in, want := range map[string]string{"+5": "5", ".5": "0.5", "007": "7", "-3": "-3", "1e3": "1e3"} {
		v, err := f.Validate(in)
		require.NoError(t, err, in)
		assert.Equal(t, json.Number(want), v, in)
		_, err = json.Marshal(v)
		assert.NoError(t, err, in)
	}
}

func TestDateValidation(t *testing.T) {
	iso := build(t, Config{ID: "d", Type: KindDate, Format: "YYYY-MM-DD"})

	_, err := iso.Validate("2024-02-30")
	assert.Equal(t, InvalidFormat, validationKind(t, err))

	v, err := iso.Validate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v)

	_, err = iso.Validate("2023-02-29")
	assert.Equal(t, InvalidFormat, validationKind(t, err))

	_, err = iso.Validate("29/02/2024")
	assert.Equal(t, InvalidFormat, validationKind(t, err), "pattern mismatch fails closed")
}

func TestDateFormatsOrderComponents(t *testing.T) {
	cases := []struct {
		format string
		value  string
		valid  bool
	}{
		{"DD/MM/YYYY", "31/12/2023", true},
		{"DD/MM/YYYY", "12/31/2023", false},
		{"MM/DD/YYYY", "12/31/2023", true},
		{"MM-DD-YYYY", "02-29-2023", false},
		{"DD.MM.YYYY", "29.02.2024", true},
		{"YYYY/MM/DD", "2023/04/31", false},
		{"YYYY.MM.DD", "2023.04.30", true},
		{"", "01/02/2020", true},
		{"DD/MM/YYYY", "01/02/2020 extra", false},
	}

	for _, tc := range cases {
		f := build(t, Config{ID: "d", Type: KindDate, Format: tc.format})
		_, err := f.Validate(tc.value)
		if tc.valid {
			assert.NoError(t, err, "%s %s", tc.format, tc.value)
		} else {
			assert.Error(t, err, "%s %s", tc.format, tc.value)
		}
	}
}

func TestMultiValuePreservesOrderAndCount(t *testing.T) {
	f := build(t, Config{ID: "c", Type: KindCheckbox, Required: true})

	v, err := f.Validate([]any{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, v)

	v, err = f.Validate([]any{"c", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "c"}, v)

	v, err = f.Validate("single")
	require.NoError(t, err)
	assert.Equal(t, []string{"single"}, v)
}

func TestSelectDoesNotEnforceOptions(t *testing.T) {
	f := build(t, Config{ID: "s", Type: KindSelect, Options: Options{{Value: "a", Label: "A"}}})

	v, err := f.Validate("zzz")

	require.NoError(t, err)
	assert.Equal(t, "zzz", v)
}

func TestFileUploadValidation(t *testing.T) {
	f := build(t, Config{ID: "cv", Type: KindFileUpload})

	v, err := f.Validate("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	v, err = f.Validate(float64(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)

	for _, bad := range []any{"abc", "-3", float64(1.5), true, false} {
		_, err := f.Validate(bad)
		assert.Equal(t, InvalidFileReference, validationKind(t, err), "%v", bad)
	}
}

func TestParseIDRejectsBooleans(t *testing.T) {
	_, ok := ParseID(true)
	assert.False(t, ok)

	id, ok := ParseID(" 17 ")
	assert.True(t, ok)
	assert.Equal(t, int64(17), id)
}

func TestFileUploadLimits(t *testing.T) {
	f := build(t, Config{ID: "cv", Type: KindFileUpload, AllowedExtensions: ".PDF, do*cx,, "}).(*FileUpload)
	assert.Equal(t, []string{"pdf", "docx"}, f.AllowedExtensions([]string{"jpg"}))
	assert.Equal(t, MaxUploadBytes, f.MaxBytes())

	small := build(t, Config{ID: "cv", Type: KindFileUpload, MaxFilesize: 500}).(*FileUpload)
	assert.Equal(t, []string{"jpg"}, small.AllowedExtensions([]string{"jpg"}))
	assert.Equal(t, int64(500000), small.MaxBytes())

	huge := build(t, Config{ID: "cv", Type: KindFileUpload, MaxFilesize: 1 << 20}).(*FileUpload)
	assert.Equal(t, MaxUploadBytes, huge.MaxBytes())
}

func TestDecodeConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig([]byte(`{"id":"a","type":"text","colour":"red"}`))
	assert.Error(t, err)

	cfg, err := DecodeConfig([]byte(`{"id":" a ","type":"select","options":"x|X~|empty~broken~y|Y"}`))
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.ID)
	assert.Equal(t, Options{{Value: "x", Label: "X"}, {Value: "y", Label: "Y"}}, cfg.Options)
}

func TestDecodeConfigsKeepsGoodBlocks(t *testing.T) {
	cfgs, errs := DecodeConfigs([]byte(`[{"id":"a","type":"text"},{"id":"b","bogus":1},{"id":"c","type":"email"}]`))

	assert.Len(t, errs, 1)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "a", cfgs[0].ID)
	assert.Equal(t, "c", cfgs[1].ID)
}

func TestDescribeHidesHandler(t *testing.T) {
	f := build(t, Config{ID: "e", Type: KindEmail, Label: "Email", Handler: "email"})

	raw, err := json.Marshal(Describe(f, nil))

	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pardot_handler")
	assert.Contains(t, string(raw), `"label":"Email"`)
}
