package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	prompts []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.answers) {
		return f.answers[i], nil
	}
	return f.answers[len(f.answers)-1], nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newService(gen TextGenerator) *Service {
	return NewService(gen, NewMemoryCache(10, time.Hour), WithRetry(3, time.Millisecond))
}

var uiKeys = map[string]any{"nav.home": "Home", "hero.title": "Empower Your Craft"}

func TestLanguages(t *testing.T) {
	langs := Languages()
	require.Len(t, langs, 23)
	assert.Equal(t, Language{Code: "en", Name: "English", Flag: "🇺🇸"}, langs[0])
	assert.Equal(t, "ar", langs[22].Code)

	l, ok := Lookup("ta")
	assert.True(t, ok)
	assert.Equal(t, "Tamil", l.Name)
	_, ok = Lookup("xx")
	assert.False(t, ok)
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a, err := CacheKey("hi", map[string]any{"a": "1", "b": "2"})
	require.NoError(t, err)
	b, err := CacheKey("hi", map[string]any{"b": "2", "a": "1"})
	require.NoError(t, err)
	c, err := CacheKey("fr", map[string]any{"a": "1", "b": "2"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "translation:hi:")
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `{"a":"b"}`, CleanResponse("```json\n{\"a\":\"b\"}\n```"))
	assert.Equal(t, `{"a":"b"}`, CleanResponse("```\n{\"a\":\"b\"}```\n"))
	assert.Equal(t, `{"a":"b"}`, CleanResponse(`  {"a":"b"} `))
}

func TestPrompt(t *testing.T) {
	p, err := Prompt("Hindi", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Contains(t, p, "to Hindi.")
	assert.Contains(t, p, "Return only a valid JSON object")
	assert.Contains(t, p, "{\n  \"k\": \"v\"\n}")
}

func TestTranslateCachesResult(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"```json\n{\"nav.home\":\"होम\",\"hero.title\":\"अपने शिल्प को सशक्त बनाएं\"}\n```"}}
	svc := newService(gen)
	ctx := context.Background()

	res, err := svc.Translate(ctx, "hi", uiKeys)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.True(t, res.Parsed)
	assert.Equal(t, "होम", res.Translations["nav.home"])

	res, err = svc.Translate(ctx, "hi", map[string]any{"hero.title": "Empower Your Craft", "nav.home": "Home"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, gen.calls())

	require.NoError(t, svc.Clear(ctx))
	_, err = svc.Translate(ctx, "hi", uiKeys)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls())
}

func TestTranslateNonJSONIsNotCached(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"Sorry, I cannot do that."}}
	svc := newService(gen)

	res, err := svc.Translate(context.Background(), "fr", uiKeys)
	require.NoError(t, err)
	assert.False(t, res.Parsed)
	assert.Equal(t, NonJSONMessage, res.Translations["error"])
	assert.Equal(t, "Sorry, I cannot do that.", res.Translations["raw"])

	_, err = svc.Translate(context.Background(), "fr", uiKeys)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls())
}

func TestTranslateRetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{
		errs:    []error{errors.New("503"), errors.New("503")},
		answers: []string{"", "", `{"nav.home":"Inicio"}`},
	}
	svc := newService(gen)

	res, err := svc.Translate(context.Background(), "es", uiKeys)
	require.NoError(t, err)
	assert.Equal(t, "Inicio", res.Translations["nav.home"])
	assert.Equal(t, 3, gen.calls())
}

func TestTranslateGivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("quota exceeded")
	gen := &fakeGenerator{errs: []error{boom, boom, boom, boom}, answers: []string{""}}
	svc := newService(gen)

	_, err := svc.Translate(context.Background(), "de", uiKeys)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, gen.calls())
}

func TestTranslateValidation(t *testing.T) {
	svc := newService(&fakeGenerator{answers: []string{"{}"}})

	_, err := svc.Translate(context.Background(), "xx", uiKeys)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	_, err = svc.Translate(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestTranslateWithoutModel(t *testing.T) {
	svc := NewService(nil, NewMemoryCache(10, time.Hour))

	res, err := svc.Translate(context.Background(), "en", uiKeys)
	require.NoError(t, err)
	assert.Equal(t, uiKeys, res.Translations)

	_, err = svc.Translate(context.Background(), "hi", uiKeys)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryCacheBounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Hour)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, map[string]any{"k": k}))
	}
	assert.Equal(t, 2, c.Len())
	_, found, _ := c.Get(ctx, "a")
	assert.False(t, found, "oldest entry is evicted")
	v, found, _ := c.Get(ctx, "c")
	assert.True(t, found)
	assert.Equal(t, "c", v["k"])
}

func TestMemoryCacheConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			_ = c.Set(ctx, key, map[string]any{"i": i})
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, c.Len())
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	gen := &fakeGenerator{answers: []string{`{"nav.home":"Accueil"}`}}
	svc := NewService(gen, NewRedisCache(rdb, time.Hour), WithRetry(1, time.Millisecond))

	_, err := svc.Translate(ctx, "fr", uiKeys)
	require.NoError(t, err)
	key, _ := CacheKey("fr", uiKeys)
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(key).Seconds(), 1)

	res, err := svc.Translate(ctx, "fr", uiKeys)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "Accueil", res.Translations["nav.home"])

	require.NoError(t, mr.Set("products:list:x", "1"))
	require.NoError(t, svc.Clear(ctx))
	assert.False(t, mr.Exists(key))
	assert.True(t, mr.Exists("products:list:x"))
}
