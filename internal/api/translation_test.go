package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguagesRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/languages", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var langs []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &langs))
	require.Len(t, langs, 23)
	assert.Equal(t, "en", langs[0]["code"])
	assert.Equal(t, "Hindi", langs[1]["name"])
}

func TestTranslateRoutesUseCache(t *testing.T) {
	env := newTestEnv(t)
	keys := gin.H{"nav.home": "Home"}

	w := env.do(http.MethodPost, "/api/translate", gin.H{"lang": "hi", "keys": keys}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"nav.home":"होम"}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/translations/hi", gin.H{"keys": keys}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, env.gen.count())

	w = env.do(http.MethodDelete, "/api/cache", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Translation cache cleared", decode(t, w)["message"])

	w = env.do(http.MethodPost, "/api/translate", gin.H{"lang": "hi", "keys": keys}, "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, env.gen.count())
}

func TestTranslateErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/translate", gin.H{"lang": "xx", "keys": gin.H{"a": "b"}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported language", decode(t, w)["message"])

	w = env.do(http.MethodPost, "/api/translate", gin.H{"lang": "fr"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.gen.answer = "Sorry, I cannot do that"
	w = env.do(http.MethodPost, "/api/translate", gin.H{"lang": "fr", "keys": gin.H{"a": "b"}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "AI returned non-JSON response", body["error"])
	assert.Equal(t, "Sorry, I cannot do that", body["raw"])

	env.gen.err = errBoom
	w = env.do(http.MethodPost, "/api/translate", gin.H{"lang": "de", "keys": gin.H{"a": "b"}}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Failed to fetch translations", body["message"])
	assert.True(t, strings.Contains(body["details"].(string), "boom"))
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","db":"up","redis":"up"}`, w.Body.String())

	unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer unreachable.Close()
	r := gin.New()
	r.GET("/health", HealthHandler(env.db, unreachable))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "down", decode(t, w)["redis"])

	w = env.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "artisanhub_http_requests_total")

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	w = env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
