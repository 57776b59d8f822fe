package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge/pkg/domain"
)

func TestSanitizeText_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", DefaultMaxTextSize - 1, false},
		{"exact limit", DefaultMaxTextSize, false},
		{"over limit", DefaultMaxTextSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeText(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTextTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeText_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "a red fox", "a red fox"},
		{"safe controls", "line1\nline2\tcol\r", "line1\nline2\tcol\r"},
		{"ansi escape", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"null byte", "nul\x00byte", "nulbyte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeText_InvalidUTF8(t *testing.T) {
	_, err := SanitizeText("bad\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeText_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxTextSize, "10")

	_, err := SanitizeText("12345678901")
	assert.ErrorIs(t, err, ErrTextTooLarge)

	_, err = SanitizeText("12345")
	assert.NoError(t, err)
}

func TestDecodeParameters_SanitizesText(t *testing.T) {
	p, err := DecodeParameters(map[string]any{"prompt": "a cat\x07", "negative_prompt": "\x1bblur"})
	require.NoError(t, err)
	assert.Equal(t, "a cat", p.Prompt)
	assert.Equal(t, "blur", p.NegativePrompt)

	t.Setenv(EnvMaxTextSize, "4")
	_, err = DecodeParameters(map[string]any{"prompt": "too long"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "prompt", verr.Field)
}
