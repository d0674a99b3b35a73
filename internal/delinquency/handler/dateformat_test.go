package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arrears/pkg/domain-errors"
)

func TestGoLayout(t *testing.T) {
	tests := []struct {
		pattern string
		layout  string
	}{
		{"yyyy-MM-dd", "2006-01-02"},
		{"dd MMMM yyyy", "02 January 2006"},
		{"d MMM yy", "2 Jan 06"},
		{"dd/MM/yyyy", "02/01/2006"},
		{"EEEE, dd MMMM yyyy", "Monday, 02 January 2006"},
		{"dd 'of' MMMM yyyy", "02 of January 2006"},
		{"yyyy''MM", "2006'01"},
		{"yyyy'Z'MM'T'dd", "2006Z01T02"},
		{"dd.MM.yyyy", "02.01.2006"},
		{"dd MMMM yyyy 'r7'", "02 January 2006 r7"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			layout, err := goLayout(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.layout, layout)
		})
	}
}

func TestGoLayout_Unsupported(t *testing.T) {
	for _, pattern := range []string{"yyyy-MM-dd HH:mm", "ddd MM yyyy", "dd 'MM yyyy"} {
		_, err := goLayout(pattern)
		assert.Error(t, err, pattern)
	}
}

// Go layouts have no escaping, so literal text that time.Parse would read as
// a field must be refused rather than silently shifting the parsed date.
func TestGoLayout_LiteralClashesWithFields(t *testing.T) {
	for _, pattern := range []string{
		"dd MMMM yyyy '1'",   // month number
		"yyyy_MM_d",          // _2 space padded day
		"dd 'Jan' yyyy",      // month name
		"MMM'uary' yyyy",     // widens Jan to January
		"EEE dd MMM 'PM'",    // meridiem
		"dd MMM yyyy 'MST'",  // zone name
		"dd MMMM yyyy'.0'",   // fractional seconds
		"dd-MM-yyyy '15:04'", // clock
	} {
		t.Run(pattern, func(t *testing.T) {
			_, err := goLayout(pattern)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "clashes with date fields")
		})
	}
}

func TestDateParser(t *testing.T) {
	t.Run("parses month names case-insensitively", func(t *testing.T) {
		p, err := newDateParser("dd MMMM yyyy", "en_GB")
		require.NoError(t, err)

		d, err := p.parse("startDate", "09 september 2022")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, time.Date(2022, 9, 9, 0, 0, 0, 0, time.UTC), *d)
	})

	t.Run("empty value is absent", func(t *testing.T) {
		p, err := newDateParser("", "")
		require.NoError(t, err)
		d, err := p.parse("endDate", "  ")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("rejects non English locale", func(t *testing.T) {
		_, err := newDateParser("", "de-DE")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects malformed locale", func(t *testing.T) {
		_, err := newDateParser("", "not a locale!")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("clashing literal is a validation error", func(t *testing.T) {
		_, err := newDateParser("dd MMMM yyyy '1'", "en")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("safe literal digits parse as text", func(t *testing.T) {
		p, err := newDateParser("dd MMMM yyyy 'r7'", "en")
		require.NoError(t, err)

		d, err := p.parse("startDate", "09 September 2022 r7")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, time.Date(2022, 9, 9, 0, 0, 0, 0, time.UTC), *d)
	})

	t.Run("mismatched value", func(t *testing.T) {
		p, err := newDateParser("yyyy-MM-dd", "en")
		require.NoError(t, err)
		_, err = p.parse("startDate", "2022-13-01")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
