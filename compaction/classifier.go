package compaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ProviderError is implemented by model-provider API errors that are not
// covered by the built-in SDK types. ResponseBody returns the raw response
// body as received from the provider.
type ProviderError interface {
	error
	ResponseBody() string
}

// Classifier decides whether an error means the model input exceeded the
// context window. It is a heuristic over provider error text: a false
// negative surfaces as an ordinary model failure.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles the given case-insensitive patterns. With no
// patterns, DefaultOverflowPatterns are used.
func NewClassifier(patterns ...string) (*Classifier, error) {
	if len(patterns) == 0 {
		patterns = DefaultOverflowPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: overflow pattern %q: %v", ErrInvalidConfig, p, err)
		}
		compiled = append(compiled, re)
	}

	return &Classifier{patterns: compiled}, nil
}

var defaultClassifier = mustClassifier(DefaultOverflowPatterns...)

func mustClassifier(patterns ...string) *Classifier {
	c, err := NewClassifier(patterns...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultClassifier returns the classifier built from DefaultOverflowPatterns.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// IsContextOverflow reports whether err is a context-window overflow
// according to the default classifier.
func IsContextOverflow(err error) bool {
	return defaultClassifier.IsContextOverflow(err)
}

// IsContextOverflow walks the wrap chain of err looking for a provider API
// error and tests its text against the overflow patterns. Errors that do not
// wrap a provider error are never classified as overflow.
func (c *Classifier) IsContextOverflow(err error) bool {
	if err == nil {
		return false
	}

	for _, text := range providerErrorText(err) {
		if c.MatchText(text) {
			return true
		}
	}
	return false
}

// MatchText reports whether text matches any overflow pattern. It is used
// for error payloads that only survive as strings, such as stream error events.
func (c *Classifier) MatchText(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// providerErrorText returns the candidate texts of the first provider error
// found in the chain, in priority order: response body, message field,
// serialized error. It returns nil when no provider error is found.
func providerErrorText(err error) []string {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return nonEmpty(
			anthropicErr.RawJSON(),
			safeErrorString(anthropicErr),
		)
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return nonEmpty(
			openaiErr.RawJSON(),
			openaiErr.Message,
			safeErrorString(openaiErr),
			serialize(map[string]string{"code": openaiErr.Code, "type": openaiErr.Type}),
		)
	}

	var providerErr ProviderError
	if errors.As(err, &providerErr) {
		return nonEmpty(
			providerErr.ResponseBody(),
			safeErrorString(providerErr),
			serialize(providerErr),
		)
	}

	return nil
}

// safeErrorString calls Error, which on SDK errors dereferences the HTTP
// request and response and panics when they were never populated.
func safeErrorString(err error) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return err.Error()
}

// serialize is a best-effort JSON rendering; failures yield "".
func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(data)
	if s == "{}" || s == "null" {
		return ""
	}
	return s
}

func nonEmpty(texts ...string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
