package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"campusface/config"
	"campusface/helper"
	"campusface/metrics"
	"campusface/testsupport"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) http.Handler {
	h, _ := newServerWithPhotos(t)
	return h
}

func newServerWithPhotos(t *testing.T) (http.Handler, string) {
	t.Helper()
	testsupport.NewDB(t)
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	return SetupRouter(Deps{
		Cfg: &config.Config{
			JWTKey:      []byte("test-key"),
			TokenTTL:    time.Hour,
			CORSOrigins: []string{"http://localhost:5000"},
			UploadDir:   dir,
		},
		Metrics:  metrics.New(),
		Throttle: helper.NewLoginThrottle(5, time.Minute),
	}), dir
}

func do(h http.Handler, method, path, token string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	creds := url.Values{"username": {username}, "password": {"pw"}}
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/register", "", creds).Code)
	w := do(h, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func TestPublicEndpoints(t *testing.T) {
	h := newServer(t)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "", nil).Code)

	w := do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "campusface_")
}

func TestProtectedRoutesNeedLogin(t *testing.T) {
	h := newServer(t)
	for _, path := range []string{"/dashboard", "/attendance", "/developer", "/me"} {
		assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, path, "", nil).Code, path)
	}
}

func TestAdminOnlyDelete(t *testing.T) {
	h := newServer(t)
	admin := login(t, h, "root")
	operator := login(t, h, "asha")

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/dashboard", operator, nil).Code)

	form := url.Values{"password": {"pw"}}
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/attendance/1/delete", operator, form).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/attendance/1/delete", admin, form).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestStudentPhotosNeedLogin(t *testing.T) {
	h, dir := newServerWithPhotos(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_a.jpg"), []byte("jpeg"), 0o644))

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/photos/students/01_a.jpg", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/static/images/student_photos/01_a.jpg", "", nil).Code)

	token := login(t, h, "root")
	w := do(h, http.MethodGet, "/photos/students/01_a.jpg", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
}
