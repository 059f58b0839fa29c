package chain

import (
	"regexp"
	"strings"
)

// DefaultPattern matches a word starting with a letter or digit, allowing
// internal apostrophes and hyphens, with optional trailing sentence
// punctuation.
const DefaultPattern = `[\p{L}\p{N}][\p{L}\p{N}'-]*[.!?]?`

// Tokenizer splits raw text into the ordered token sequence the chain trains
// on and decides how adjacent tokens are joined back together in generated
// output. The chain treats every returned token as atomic, whatever its
// content.
type Tokenizer interface {
	// Split returns the ordered tokens found in text. An empty result is
	// valid and trains nothing.
	Split(text string) []string
	// Separator returns the string written between prev and next when
	// assembling generated output.
	Separator(prev, next string) string
}

// RegexpTokenizer is the default Tokenizer implementation. It extracts
// tokens with a regular expression and joins output tokens with a single
// configurable separator, suppressed before punctuation and around tokens
// that are themselves whitespace. Its behavior can be customized with
// functional options.
type RegexpTokenizer struct {
	pattern     *regexp.Regexp
	separator   string
	noSepBefore *regexp.Regexp
}

// TokenizerOption Is a function that configures a RegexpTokenizer.
type TokenizerOption func(*RegexpTokenizer)

// WithPattern sets the regex string used to extract tokens from input text.
// Default: DefaultPattern
func WithPattern(pattern string) TokenizerOption {
	return func(t *RegexpTokenizer) {
		t.pattern = regexp.MustCompile(pattern)
	}
}

// WithSeparator Sets the string used for joining tokens during generation.
// Default: " "
func WithSeparator(sep string) TokenizerOption {
	return func(t *RegexpTokenizer) {
		t.separator = sep
	}
}

// WithNoSeparatorBefore sets the regex for tokens that don't get a separator
// put before them. Default: `^[.,!?;:]`
func WithNoSeparatorBefore(pattern string) TokenizerOption {
	return func(t *RegexpTokenizer) {
		t.noSepBefore = regexp.MustCompile(pattern)
	}
}

// NewRegexpTokenizer creates a tokenizer with default settings, which can be
// overridden by providing one or more TokenizerOption functions.
func NewRegexpTokenizer(opts ...TokenizerOption) *RegexpTokenizer {
	t := &RegexpTokenizer{
		pattern:     regexp.MustCompile(DefaultPattern),
		separator:   " ",
		noSepBefore: regexp.MustCompile(`^[.,!?;:]`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Split Returns every match of the token pattern, in order.
func (t *RegexpTokenizer) Split(text string) []string {
	return t.pattern.FindAllString(text, -1)
}

// Separator Returns the configured separator, or nothing when the next token
// starts with punctuation or either token is itself whitespace (captured
// verbatim by a custom pattern).
func (t *RegexpTokenizer) Separator(prev, next string) string {
	if strings.TrimSpace(prev) == "" || strings.TrimSpace(next) == "" {
		return ""
	}
	if t.noSepBefore.MatchString(next) {
		return ""
	}
	return t.separator
}
