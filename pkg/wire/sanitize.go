package wire

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/comfyforge/pkg/domain"
)

var (
	// DefaultMaxTextSize bounds every free-text parameter, in bytes.
	DefaultMaxTextSize = 16 << 10
	// EnvMaxTextSize overrides DefaultMaxTextSize.
	EnvMaxTextSize = "COMFYFORGE_MAX_TEXT_SIZE"
)

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// SanitizeText rejects oversized or invalid UTF-8 input and strips control characters
// other than newline, tab and carriage return. Oversized text is rejected, never truncated.
func SanitizeText(s string) (string, error) {
	limit := maxTextSize()
	if len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTextTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(s, unsafeControl) < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxTextSize() int {
	if val := os.Getenv(EnvMaxTextSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTextSize
}

// sanitizeParameters cleans the free-text fields that end up inside the graph.
func sanitizeParameters(p *domain.BuildParameters) error {
	fields := []struct {
		name string
		v    *string
	}{
		{"prompt", &p.Prompt},
		{"negative_prompt", &p.NegativePrompt},
		{"filename_prefix", &p.FilenamePrefix},
		{"reference_image", &p.ReferenceImage},
	}
	for _, f := range fields {
		clean, err := SanitizeText(*f.v)
		if err != nil {
			return invalid(f.name, err.Error())
		}
		*f.v = clean
	}
	return nil
}
