package validation

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"", "text/csv", "TEXT/CSV", "text/plain; charset=utf-8", "application/vnd.ms-excel", "application/octet-stream"} {
		assert.NoError(t, ValidateClientContentType(ct), ct)
	}
	for _, ct := range []string{"application/pdf", "image/png", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"} {
		assert.ErrorIs(t, ValidateClientContentType(ct), ErrValidationFailed, ct)
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csv := "\ufeffIdentificação da Maquininha;Código da Transação\n123;TX1\n"
	r := strings.NewReader(csv)
	detected, err := ValidateFileContentByMagicBytes(r)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)
	assert.Equal(t, int64(len(csv)), int64(r.Len()), "reader is rewound")

	_, err = ValidateFileContentByMagicBytes(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateFileContentByMagicBytes(bytes.NewReader([]byte{'P', 'K', 3, 4, 0, 0, 1}))
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateFileContentByMagicBytes(strings.NewReader("<html><body>hi</body></html>"))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateFileContentToleratesCutRune(t *testing.T) {
	// 1023 ASCII bytes followed by a two-byte rune: the sniffed window ends mid-rune.
	content := strings.Repeat("a", 1023) + "ç;rest\n"
	_, err := ValidateFileContentByMagicBytes(strings.NewReader(content))
	assert.NoError(t, err)
}

func TestValidateMachineID(t *testing.T) {
	id, err := ValidateMachineID(" 9999999999 ")
	require.NoError(t, err)
	assert.Equal(t, "9999999999", id)

	for _, good := range []string{"PB-01.a_b", "PB 01", "Maquininha São João", strings.Repeat("ç", MaxMachineIDLength)} {
		id, err := ValidateMachineID(good)
		assert.NoError(t, err, "input %q", good)
		assert.Equal(t, good, id)
	}

	for _, bad := range []string{"", "   ", "12\x0034", "PB\n01", "PB\x7f", "\xff\xfe", strings.Repeat("1", MaxMachineIDLength+1)} {
		_, err := ValidateMachineID(bad)
		assert.ErrorIs(t, err, ErrValidationFailed, "input %q", bad)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "export.csv", SanitizeFilename("export.csv"))
	assert.Equal(t, "export.csv", SanitizeFilename(`C:\Users\me\export.csv`))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "x.csv", SanitizeFilename("<b>x.csv</b>"))
	assert.Equal(t, "", SanitizeFilename(""))
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 400)), MaxFilenameLength)
}

func TestSanitizeFilenameTruncatesOnRuneBoundary(t *testing.T) {
	// One ASCII byte then two-byte runes: a byte cut at the limit would split a rune.
	name := SanitizeFilename("a" + strings.Repeat("ç", 300))
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(name))
	assert.True(t, strings.HasPrefix(name, "aç"))
}
