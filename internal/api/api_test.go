package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"artisanhub/internal/db"
	"artisanhub/internal/notify"
	"artisanhub/internal/storage"
	"artisanhub/internal/translate"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Send(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeEnhancer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEnhancer) EnhanceImage(_ context.Context, data []byte, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("enhanced:"), data...), nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) GenerateText(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.answer, f.err
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	store    *storage.LocalStore
	sink     *recordingSink
	enhancer *fakeEnhancer
	gen      *fakeGenerator
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		db:       gdb,
		mr:       mr,
		rdb:      rdb,
		store:    store,
		sink:     &recordingSink{},
		enhancer: &fakeEnhancer{},
		gen:      &fakeGenerator{answer: `{"nav.home":"होम"}`},
	}
	svc := translate.NewService(env.gen, translate.NewMemoryCache(100, time.Hour), translate.WithRetry(2, time.Millisecond))
	env.router, err = SetupRouter(Deps{
		DB:         gdb,
		Redis:      rdb,
		Store:      store,
		Enhancer:   env.enhancer,
		Translator: svc,
		Events:     notify.NewSyncDispatcher(time.Second, env.sink),
		JWTSecret:  testSecret,
		JWTTTL:     time.Hour,
		UploadDir:  store.Dir(),
	})
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type upload struct {
	field    string
	filename string
	data     string
}

func (e *testEnv) doMultipart(path string, fields map[string]string, files []upload, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		part, _ := mw.CreateFormFile(f.field, f.filename)
		_, _ = part.Write([]byte(f.data))
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// registerSeller returns a token and the user id of a fresh seller
func (e *testEnv) registerSeller(t *testing.T, email string) (string, uint) {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"firstName":    "Ana",
		"lastName":     "Ruiz",
		"email":        email,
		"password":     "secret1",
		"role":         "seller",
		"businessName": "Clay & Co",
		"location":     "Jaipur",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint(user["id"].(float64))
}

func (e *testEnv) registerCustomer(t *testing.T, email string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Bo Buyer",
		"email":    email,
		"password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

var errBoom = errors.New("boom")
