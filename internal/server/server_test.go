package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"realty_backend/internal/model"
	"realty_backend/internal/service"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/config"
	"realty_backend/pkg/database"
	"realty_backend/pkg/logging"
	"realty_backend/pkg/utils/jwt"
	"realty_backend/pkg/utils/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "admin"
	testPassword = "correct horse battery"
)

type testServer struct {
	app       *fiber.App
	uploadDir string
	stores    *store.Stores
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	log := logging.Discard()

	cfg := &config.Config{
		Env: "test",
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			URL:    filepath.Join(dir, "api.db"),
		},
		Auth: config.AuthConfig{
			JWTSecret:     "test-signing-key",
			TokenTTL:      time.Hour,
			AdminUsername: testUser,
			AdminPassword: testPassword,
		},
		HTTP: config.HTTPConfig{
			CORSOrigins:     []string{"*"},
			RateLimitWindow: time.Minute,
			RateLimitMax:    1000,
		},
		Upload: config.UploadConfig{
			Backend:    "local",
			Dir:        filepath.Join(dir, "uploads"),
			PublicPath: "/uploads",
			MaxBytes:   1 << 20,
		},
		Analytics: config.AnalyticsConfig{RetentionDays: 90},
	}

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, log, model.All()...))
	t.Cleanup(func() { _ = database.Close(db) })

	stores := store.New(db)
	auth, err := service.NewAdminAuth(cfg.Auth, jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), stores.Sessions, log)
	require.NoError(t, err)
	files, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicPath)
	require.NoError(t, err)

	app := New(Deps{
		Config: cfg,
		Log:    log,
		DB:     db,
		Stores: stores,
		Auth:   auth,
		Files:  files,
	})
	return &testServer{app: app, uploadDir: cfg.Upload.Dir, stores: stores}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "ADMIN",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func testVilla() map[string]any {
	return map[string]any{
		"title":         "Test Villa",
		"type":          "Villa",
		"status":        "For Sale",
		"price":         1000000,
		"location_area": "X",
		"location_city": "Y",
		"bedrooms":      3,
		"bathrooms":     2,
		"size":          100,
		"description":   "d",
	}
}

func (s *testServer) createVilla(t *testing.T, token string) uint {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/admin/properties", token, testVilla())
	require.Equal(t, http.StatusCreated, code, body)
	prop := body["property"].(map[string]any)
	return uint(prop["id"].(float64))
}

func path(format string, id uint) string {
	return strings.Replace(format, ":id", jsonID(id), 1)
}

func jsonID(id uint) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestCreateThenFetchCountsViews(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createVilla(t, token)

	code, body := s.do(t, http.MethodGet, path("/api/properties/:id", id), "", nil)
	require.Equal(t, http.StatusOK, code, body)
	prop := body["property"].(map[string]any)
	assert.Equal(t, "Test Villa", prop["title"])
	assert.Equal(t, float64(0), prop["views_count"])

	code, body = s.do(t, http.MethodGet, path("/api/properties/:id", id), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["property"].(map[string]any)["views_count"])

	code, body = s.do(t, http.MethodGet, "/api/properties/test-villa", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["property"].(map[string]any)["views_count"])
}

func TestCreateRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodPost, "/api/properties", "", testVilla())
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or missing credentials", body["error"])

	token := s.login(t)
	code, _ = s.do(t, http.MethodPost, "/api/properties", token, testVilla())
	assert.Equal(t, http.StatusCreated, code)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	fields := testVilla()
	delete(fields, "location_city")
	code, body := s.do(t, http.MethodPost, "/api/admin/properties", token, fields)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "location_city", body["field"])

	fields = testVilla()
	fields["type"] = "Castle"
	code, body = s.do(t, http.MethodPost, "/api/admin/properties", token, fields)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "type", body["field"])

	fields = testVilla()
	fields["price"] = "a lot"
	code, body = s.do(t, http.MethodPost, "/api/admin/properties", token, fields)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "price", body["field"])
}

func TestUpdateReportsIgnoredFields(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createVilla(t, token)

	code, body := s.do(t, http.MethodPut, path("/api/admin/properties/:id", id), token, map[string]any{
		"price":       900000,
		"views_count": 99,
		"colour":      "blue",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(900000), body["property"].(map[string]any)["price"])
	assert.ElementsMatch(t, []any{"views_count", "colour"}, body["ignored_fields"])

	code, _ = s.do(t, http.MethodPut, "/api/admin/properties/9999", token, map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListFiltersAndHidesUnpublished(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	s.createVilla(t, token)

	hidden := testVilla()
	hidden["title"] = "Hidden Flat"
	hidden["type"] = "Apartment"
	hidden["published"] = false
	code, _ := s.do(t, http.MethodPost, "/api/admin/properties", token, hidden)
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodGet, "/api/properties?min_price=500000&bedrooms=2&sort=price&order=asc", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])
	assert.Len(t, body["properties"], 1)

	code, body = s.do(t, http.MethodGet, "/api/admin/properties", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total"])

	code, body = s.do(t, http.MethodGet, "/api/properties?min_price=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "min_price", body["field"])

	code, body = s.do(t, http.MethodGet, "/api/properties/type/Villa", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	code, body = s.do(t, http.MethodGet, "/api/properties/search/villa", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	code, body = s.do(t, http.MethodGet, "/api/properties/stats/summary", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["summary"].(map[string]any)["total"])
}

func TestLocationsFromPublishedListings(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	for _, area := range []string{"Marina", "Marina", "Downtown"} {
		fields := testVilla()
		fields["title"] = "Villa in " + area
		fields["location_country"] = "UAE"
		fields["location_city"] = "Dubai"
		fields["location_area"] = area
		code, body := s.do(t, http.MethodPost, "/api/admin/properties", token, fields)
		require.Equal(t, http.StatusCreated, code, body)
	}
	hidden := testVilla()
	hidden["location_country"] = "Oman"
	hidden["published"] = false
	code, _ := s.do(t, http.MethodPost, "/api/admin/properties", token, hidden)
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodGet, "/api/locations/countries", "", nil)
	require.Equal(t, http.StatusOK, code)
	countries := body["countries"].([]any)
	require.Len(t, countries, 1)
	assert.Equal(t, "UAE", countries[0].(map[string]any)["name"])
	assert.Equal(t, float64(3), countries[0].(map[string]any)["count"])

	code, body = s.do(t, http.MethodGet, "/api/locations/countries/uae/cities", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["cities"], 1)

	code, body = s.do(t, http.MethodGet, "/api/locations/cities/Dubai/areas", "", nil)
	require.Equal(t, http.StatusOK, code)
	areas := body["areas"].([]any)
	require.Len(t, areas, 2)
	assert.Equal(t, "Marina", areas[0].(map[string]any)["name"])

	code, body = s.do(t, http.MethodGet, "/api/locations", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["locations"], 1)
}

func TestContactSubmission(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/contacts", "", map[string]any{
		"name":    "Ada",
		"message": "Is it still available?",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email", body["field"])

	code, body = s.do(t, http.MethodPost, "/api/contacts", "", map[string]any{
		"name":    "Ada",
		"email":   "not-an-email",
		"message": "Is it still available?",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email", body["field"])

	code, body = s.do(t, http.MethodPost, "/api/contacts", "", map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Is it still available?",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotZero(t, body["id"])
	assert.NotEmpty(t, body["reference"])

	code, _ = s.do(t, http.MethodPost, "/api/contacts", "", map[string]any{
		"name":        "Ada",
		"email":       "ada@example.com",
		"message":     "Hello",
		"property_id": 4242,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestContactAdminWorkflow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	code, body := s.do(t, http.MethodPost, "/api/contacts", "", map[string]any{
		"name":    "Grace",
		"email":   "grace@example.com",
		"message": "Viewing on Friday?",
	})
	require.Equal(t, http.StatusCreated, code)
	id := uint(body["id"].(float64))

	code, _ = s.do(t, http.MethodGet, "/api/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(t, http.MethodGet, "/api/contacts?status=new", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	code, body = s.do(t, http.MethodPut, path("/api/contacts/:id/status", id), token, map[string]any{
		"status": "contacted",
	})
	require.Equal(t, http.StatusOK, code, body)
	contact := body["contact"].(map[string]any)
	assert.Equal(t, "contacted", contact["status"])
	assert.NotNil(t, contact["contacted_at"])

	code, body = s.do(t, http.MethodPut, path("/api/contacts/:id/status", id), token, map[string]any{
		"status": "lost",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "status", body["field"])

	code, _ = s.do(t, http.MethodDelete, path("/api/contacts/:id", id), token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, path("/api/contacts/:id", id), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLoginVerifyLogout(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": testUser,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	wrongPassword := body["error"]

	_, body = s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "someone",
		"password": testPassword,
	})
	assert.Equal(t, wrongPassword, body["error"])

	token := s.login(t)
	code, body = s.do(t, http.MethodGet, "/api/admin/verify", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["valid"])

	mid := len(token) - 10
	flipped := byte('A')
	if token[mid] == 'A' {
		flipped = 'B'
	}
	tampered := token[:mid] + string(flipped) + token[mid+1:]
	code, _ = s.do(t, http.MethodGet, "/api/admin/verify", tampered, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/admin/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDeletePropertyWithoutUploadDir(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createVilla(t, token)

	_, err := os.Stat(filepath.Join(s.uploadDir, jsonID(id)))
	require.True(t, os.IsNotExist(err))

	code, body := s.do(t, http.MethodDelete, path("/api/admin/properties/:id", id), token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Property deleted successfully", body["message"])

	code, _ = s.do(t, http.MethodGet, path("/api/properties/:id", id), "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodDelete, path("/api/admin/properties/:id", id), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadPropertyImagesAndCleanup(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createVilla(t, token)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"front.png", "garden.png"} {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(pngBytes(t))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path("/api/admin/upload/property/:id", id), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	code, resp := s.send(t, req)
	require.Equal(t, http.StatusCreated, code, resp)

	images := resp["property"].(map[string]any)["images"].([]any)
	require.Len(t, images, 2)
	first := images[0].(map[string]any)
	assert.Equal(t, true, first["is_primary"])
	assert.Equal(t, false, images[1].(map[string]any)["is_primary"])

	url := first["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"+jsonID(id)+"/"), url)

	staticResp, err := s.app.Test(httptest.NewRequest(http.MethodGet, url, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, staticResp.StatusCode)

	code, _ = s.do(t, http.MethodDelete, path("/api/admin/properties/:id", id), token, nil)
	require.Equal(t, http.StatusOK, code)
	_, err = os.Stat(filepath.Join(s.uploadDir, jsonID(id)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadRejectsNonImage(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "notes.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("definitely not a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	code, resp := s.send(t, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "image", resp["field"])
}

func TestAnalyticsTrackAndReports(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	code, _ := s.do(t, http.MethodPost, "/api/analytics/track", "", map[string]any{"event_type": "teleport"})
	assert.Equal(t, http.StatusBadRequest, code)

	for _, q := range []string{"Villa", "villa", "studio"} {
		code, _ = s.do(t, http.MethodPost, "/api/analytics/track", "", map[string]any{
			"event_type":   "search",
			"session_id":   "abc",
			"search_query": q,
			"referrer":     "https://www.google.com/search?q=x",
			"event_data":   map[string]any{"results": 3},
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, _ = s.do(t, http.MethodGet, "/api/analytics/overview", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(t, http.MethodGet, "/api/analytics/overview?days=7", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total_events"])
	assert.Equal(t, float64(1), body["unique_sessions"])

	code, body = s.do(t, http.MethodGet, "/api/analytics/searches", token, nil)
	require.Equal(t, http.StatusOK, code)
	top := body["searches"].([]any)[0].(map[string]any)
	assert.Equal(t, "villa", top["label"])
	assert.Equal(t, float64(2), top["count"])

	code, body = s.do(t, http.MethodGet, "/api/analytics/traffic-sources", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "search", body["sources"].([]any)[0].(map[string]any)["label"])

	resp, err := s.app.Test(func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/analytics/report.pdf", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}(), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	code, _ = s.do(t, http.MethodDelete, "/api/analytics/cleanup?days=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = s.do(t, http.MethodDelete, "/api/analytics/cleanup?days=30", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["deleted"])
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	s.createVilla(t, token)

	code, body := s.do(t, http.MethodGet, "/api/admin/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["properties"].(map[string]any)["total"])
	assert.Equal(t, float64(1), body["active_sessions"])
}

func TestErrorHandlerHidesInternalMessagesInProduction(t *testing.T) {
	for _, production := range []bool{true, false} {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard(), production)})
		app.Get("/boom", func(c *fiber.Ctx) error {
			return apperror.Internal("Failed to load", errors.New("db down"))
		})
		app.Get("/raw", func(c *fiber.Ctx) error {
			return errors.New("raw failure")
		})

		for _, p := range []string{"/boom", "/raw"} {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, p, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if production {
				assert.Equal(t, "Internal server error", body["error"])
			} else {
				assert.NotEqual(t, "Internal server error", body["error"])
			}
		}
	}
}
