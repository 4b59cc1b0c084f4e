// Package translate turns UI string sets into other languages through a text model.
package translate

import (
	"context"       // Context for cancellation
	"crypto/sha256" // Cache key hashing
	"encoding/hex"  // Hash encoding
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel errors
	"fmt"           // Error wrapping
	"regexp"        // Fence matching
	"strings"       // String manipulation
	"time"          // Time durations

	"github.com/cenkalti/backoff/v4" // Retry with exponential backoff
	"github.com/sirupsen/logrus"     // Structured logging
)

var (
	// ErrUnsupportedLanguage is returned for codes outside Languages()
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrNoKeys is returned when there is nothing to translate
	ErrNoKeys = errors.New("no keys to translate")
	// ErrUnavailable is returned when no text model is configured
	ErrUnavailable = errors.New("translation model not configured")
)

// NonJSONMessage is reported when the model answer cannot be parsed
const NonJSONMessage = "AI returned non-JSON response"

// TextGenerator produces text for a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Result is a translated key set
type Result struct {
	Translations map[string]any
	Cached       bool
	Parsed       bool // false when the model answer was not JSON
}

// Service translates key sets and caches the answers
type Service struct {
	gen         TextGenerator
	cache       Cache
	maxAttempts uint64
	backoff     func() backoff.BackOff
}

// Option tweaks a Service
type Option func(*Service)

// WithRetry sets how many attempts are made and the first backoff interval
func WithRetry(attempts uint64, initial time.Duration) Option {
	if attempts < 1 {
		attempts = 1
	}
	return func(s *Service) {
		s.maxAttempts = attempts
		s.backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.Multiplier = 2
			b.RandomizationFactor = 0
			return b
		}
	}
}

// NewService builds a Service; gen may be nil when no model is configured
func NewService(gen TextGenerator, cache Cache, opts ...Option) *Service {
	s := &Service{gen: gen, cache: cache}
	WithRetry(3, time.Second)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey hashes the canonical JSON of keys; encoding/json sorts map keys
func CacheKey(lang string, keys map[string]any) (string, error) {
	b, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return KeyPrefix + lang + ":" + hex.EncodeToString(sum[:]), nil
}

// Prompt is the instruction sent to the model
func Prompt(languageName string, keys map[string]any) (string, error) {
	b, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Translate the following JSON object keys and values to %s. "+
		"Return only a valid JSON object with the same structure but translated values:\n\n%s", languageName, b), nil
}

var fence = regexp.MustCompile("```(?:json)?\\s*")

// CleanResponse strips markdown code fences the model tends to add
func CleanResponse(text string) string {
	return strings.TrimSpace(fence.ReplaceAllString(text, ""))
}

// Translate returns keys translated into lang
func (s *Service) Translate(ctx context.Context, lang string, keys map[string]any) (Result, error) {
	language, ok := Lookup(lang)
	if !ok {
		return Result{}, ErrUnsupportedLanguage
	}
	if len(keys) == 0 {
		return Result{}, ErrNoKeys
	}
	key, err := CacheKey(lang, keys) // Same keys in any order share an entry
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNoKeys, err)
	}

	// Try to get from cache
	if cached, found, err := s.cache.Get(ctx, key); err != nil {
		logrus.WithFields(logrus.Fields{"lang": lang, "error": err.Error()}).Warn("Translation cache read failed")
	} else if found {
		return Result{Translations: cached, Cached: true, Parsed: true}, nil
	}

	if s.gen == nil {
		if lang == "en" {
			return Result{Translations: keys, Parsed: true}, nil // Source strings are English
		}
		return Result{}, ErrUnavailable
	}

	prompt, err := Prompt(language.Name, keys)
	if err != nil {
		return Result{}, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return Result{}, err
	}

	var translations map[string]any
	if err := json.Unmarshal([]byte(CleanResponse(text)), &translations); err != nil {
		logrus.WithFields(logrus.Fields{"lang": lang, "raw": text}).Error("Translation response is not JSON")
		return Result{Translations: map[string]any{"error": NonJSONMessage, "raw": text}}, nil // Not cached
	}

	if err := s.cache.Set(ctx, key, translations); err != nil {
		logrus.WithFields(logrus.Fields{"lang": lang, "error": err.Error()}).Warn("Translation cache write failed")
	}
	return Result{Translations: translations, Parsed: true}, nil
}

// Clear empties the translation cache
func (s *Service) Clear(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0
	op := func() error {
		attempt++
		out, err := s.gen.GenerateText(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logrus.WithFields(logrus.Fields{"attempt": attempt, "error": err.Error()}).Warn("Translation attempt failed")
			return err
		}
		text = out
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(s.backoff(), s.maxAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return text, nil
}
