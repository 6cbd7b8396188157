package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/city-guide/internal/auth"
	"github.com/romangod6/city-guide/internal/content"
	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

const testCookie = "cityguide_session"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestAPIWithStore(t *testing.T, store storage.Store) *testAPI {
	t.Helper()
	logger := zerolog.Nop()
	svc := content.NewService(store, logger)
	authority := auth.NewAuthority(
		auth.Credentials{Username: "admin", Password: "password"},
		auth.NewMemorySessionStore(),
		7*24*time.Hour,
		logger,
	)
	h := NewHandler(svc, authority, store, CookieConfig{Name: testCookie})
	srv := NewServer(0, nil, h, logger)
	return &testAPI{t: t, handler: srv.Handler()}
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithStore(t, storage.NewMemoryStore())
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login() {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/login", loginRequest{Username: "admin", Password: "password"})
	require.Equal(a.t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			a.cookie = c
		}
	}
	require.NotNil(a.t, a.cookie, "login must set the session cookie")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (a *testAPI) snapshot() models.Snapshot {
	a.t.Helper()
	rec := a.do(http.MethodGet, "/api/data", nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	return decode[models.Snapshot](a.t, rec)
}

func TestGetDataEmptySnapshot(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/data", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"news":[],"categories":[],"establishments":[],"contacts":{}}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantOK     bool
	}{
		{"valid", loginRequest{Username: "admin", Password: "password"}, http.StatusOK, true},
		{"wrong password", loginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized, false},
		{"malformed", `{"username":`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/login", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decode[map[string]any](t, rec)
			assert.Equal(t, tt.wantOK, resp["success"])
			assert.NotEmpty(t, resp["message"])

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == testCookie {
					cookie = c
				}
			}
			if tt.wantOK {
				require.NotNil(t, cookie)
				assert.True(t, cookie.HttpOnly)
				assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}

func TestMutatingRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/logout"},
		{http.MethodPost, "/api/news"},
		{http.MethodPut, "/api/news/x"},
		{http.MethodDelete, "/api/news/x"},
		{http.MethodPost, "/api/categories"},
		{http.MethodPut, "/api/categories/x"},
		{http.MethodDelete, "/api/categories/x"},
		{http.MethodPost, "/api/establishments"},
		{http.MethodPut, "/api/establishments/x"},
		{http.MethodDelete, "/api/establishments/x"},
		{http.MethodPost, "/api/contacts"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := api.do(r.method, r.path, map[string]string{"title": "x", "name": "x"})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, decode[map[string]any](t, rec), "message")
		})
	}

	api.cookie = &http.Cookie{Name: testCookie, Value: "forged"}
	rec := api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenMutateThenLogout(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "Новина"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/api/session", nil)
	assert.JSONEq(t, `{"authenticated": true}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "Ще одна"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/session", nil)
	assert.JSONEq(t, `{"authenticated": false}`, rec.Body.String())
}

func TestBearerTokenIsAccepted(t *testing.T) {
	api := newTestAPI(t)
	api.login()
	token := api.cookie.Value
	api.cookie = nil

	req := httptest.NewRequest(http.MethodPost, "/api/categories", bytes.NewBufferString(`{"name":"Кафе"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNewsRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "Перша", Date: "01.05.2024"})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[struct {
		Message string      `json:"message"`
		News    models.News `json:"news"`
	}](t, rec)
	assert.NotEmpty(t, first.Message)
	require.NotEmpty(t, first.News.ID)

	rec = api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "Друга", Date: "2024-05-02"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[struct {
		News models.News `json:"news"`
	}](t, rec)
	assert.NotEqual(t, first.News.ID, second.News.ID)

	snap := api.snapshot()
	require.Len(t, snap.News, 2)
	assert.Equal(t, first.News, snap.News[0])

	rec = api.do(http.MethodPut, "/api/news/"+first.News.ID, models.NewsInput{Title: "Оновлена"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Оновлена", api.snapshot().News[0].Title)

	rec = api.do(http.MethodDelete, "/api/news/"+second.News.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, api.snapshot().News, 1)
}

func TestNotFoundAndValidationStatuses(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"update missing news", http.MethodPut, "/api/news/missing", models.NewsInput{Title: "x"}, http.StatusNotFound},
		{"delete missing news", http.MethodDelete, "/api/news/missing", nil, http.StatusNotFound},
		{"rename missing category", http.MethodPut, "/api/categories/missing", models.CategoryInput{Name: "x"}, http.StatusNotFound},
		{"delete missing category", http.MethodDelete, "/api/categories/missing", nil, http.StatusNotFound},
		{"get missing establishment", http.MethodGet, "/api/establishments/missing", nil, http.StatusNotFound},
		{"delete missing establishment", http.MethodDelete, "/api/establishments/missing", nil, http.StatusNotFound},
		{"news without title", http.MethodPost, "/api/news", models.NewsInput{}, http.StatusBadRequest},
		{"news with bad date", http.MethodPost, "/api/news", models.NewsInput{Title: "x", Date: "tomorrow"}, http.StatusBadRequest},
		{"blank category", http.MethodPost, "/api/categories", models.CategoryInput{Name: " "}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/establishments", `{"name": 5`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decode[map[string]any](t, rec)["message"])
		})
	}
}

func TestDuplicateCategory(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/categories", models.CategoryInput{Name: "Кафе"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPost, "/api/categories", models.CategoryInput{Name: "Кафе"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, api.snapshot().Categories, 1)
}

func TestCategoryRenameScenario(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/categories", models.CategoryInput{Name: "Кафе"})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[struct {
		Category models.Category `json:"category"`
	}](t, rec).Category

	rec = api.do(http.MethodPost, "/api/establishments", models.EstablishmentInput{Name: "Тест", Category: "Кафе"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPut, "/api/categories/"+cat.ID, models.CategoryInput{Name: "Кава"})
	require.Equal(t, http.StatusOK, rec.Code)

	snap := api.snapshot()
	require.Len(t, snap.Establishments, 1)
	assert.Equal(t, "Кава", snap.Establishments[0].Category)
	assert.Equal(t, []models.Category{{ID: cat.ID, Name: "Кава"}}, snap.Categories)
}

func TestDeleteCategoryNeedsConfirmation(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/categories", models.CategoryInput{Name: "Кафе"})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[struct {
		Category models.Category `json:"category"`
	}](t, rec).Category
	for i := 0; i < 2; i++ {
		rec = api.do(http.MethodPost, "/api/establishments", models.EstablishmentInput{Name: fmt.Sprint("e", i), Category: "Кафе"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = api.do(http.MethodPost, "/api/establishments", models.EstablishmentInput{Name: "other", Category: "Спорт"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodDelete, "/api/categories/"+cat.ID, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["establishments"])
	snap := api.snapshot()
	assert.Len(t, snap.Establishments, 3)
	assert.Len(t, snap.Categories, 1)

	rec = api.do(http.MethodDelete, "/api/categories/"+cat.ID+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["removedEstablishments"])

	snap = api.snapshot()
	assert.Empty(t, snap.Categories)
	require.Len(t, snap.Establishments, 1)
	assert.Equal(t, "other", snap.Establishments[0].Name)
}

func TestEstablishmentsFilterAndCRUD(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/establishments", models.EstablishmentInput{
		Name:        "Кав'ярня",
		Category:    "Кафе",
		Coordinates: &models.Coordinates{Latitude: 50.45, Longitude: 30.52},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cafe := decode[struct {
		Establishment models.Establishment `json:"establishment"`
	}](t, rec).Establishment

	rec = api.do(http.MethodPost, "/api/establishments", models.EstablishmentInput{Name: "Зал", Category: "Спорт"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/api/establishments?category="+url.QueryEscape("Кафе"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Establishment{cafe}, decode[[]models.Establishment](t, rec))

	rec = api.do(http.MethodGet, "/api/establishments", nil)
	assert.Len(t, decode[[]models.Establishment](t, rec), 2)

	rec = api.do(http.MethodPut, "/api/establishments/"+cafe.ID, models.EstablishmentInput{Name: "Кав'ярня", Category: "Кафе", Phone: "+380"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/establishments/"+cafe.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Establishment](t, rec)
	assert.Equal(t, "+380", got.Phone)
	assert.Nil(t, got.Coordinates, "update is a full replacement")

	rec = api.do(http.MethodDelete, "/api/establishments/"+cafe.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, api.snapshot().Establishments, 1)
}

func TestUpsertContacts(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/contacts", models.Contacts{Phone: "+380", Email: "info@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodPost, "/api/contacts", models.Contacts{Phone: "+381", Instagram: "insta"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.Contacts{Phone: "+381", Instagram: "insta"}, api.snapshot().Contacts)

	rec = api.do(http.MethodGet, "/api/contacts", nil)
	assert.JSONEq(t, `{"phone":"+381","instagram":"insta"}`, rec.Body.String())
}

type downStore struct {
	storage.Store
}

func (downStore) List(context.Context, storage.Kind) ([]storage.Document, error) {
	return nil, fmt.Errorf("list: %w: connection refused", storage.ErrUnavailable)
}

func (downStore) Ping(context.Context) error {
	return fmt.Errorf("ping: %w", storage.ErrUnavailable)
}

func TestStoreUnavailable(t *testing.T) {
	api := newTestAPIWithStore(t, downStore{Store: storage.NewMemoryStore()})

	rec := api.do(http.MethodGet, "/api/data", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestGetNewsByID(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/news", models.NewsInput{Title: "Відкриття", Date: "2024-05-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct {
		News models.News `json:"news"`
	}](t, rec).News

	api.cookie = nil
	rec = api.do(http.MethodGet, "/api/news/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[models.News](t, rec))

	rec = api.do(http.MethodGet, "/api/news/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "news not found", decode[map[string]any](t, rec)["message"])
}

func TestStaleCookieFallsBackToBearerToken(t *testing.T) {
	api := newTestAPI(t)
	api.login()
	token := api.cookie.Value

	withStaleCookie := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: "expired-session"})
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := withStaleCookie(http.MethodPost, "/api/categories", `{"name":"Кафе"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = withStaleCookie(http.MethodGet, "/api/session", "")
	assert.JSONEq(t, `{"authenticated": true}`, rec.Body.String())

	// logout ends the session that authenticated the request
	rec = withStaleCookie(http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = withStaleCookie(http.MethodPost, "/api/categories", `{"name":"Спорт"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
