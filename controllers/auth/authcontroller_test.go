package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"campusface/config"
	"campusface/helper"
	"campusface/metrics"
	"campusface/middleware"
	"campusface/models"
	"campusface/testsupport"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController() *Controller {
	return &Controller{
		Cfg:      &config.Config{JWTKey: []byte("k"), TokenTTL: time.Hour},
		Throttle: helper.NewLoginThrottle(3, time.Minute),
		Metrics:  metrics.New(),
	}
}

func newRouter(h *Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", middleware.AuthRequired(h.Cfg.JWTKey), h.Me)
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	testsupport.NewDB(t)
	r := newRouter(newController())

	w := postForm(r, "/register", url.Values{"username": {"root"}, "password": {"pw"}})
	require.Equal(t, http.StatusCreated, w.Code)
	w = postForm(r, "/register", url.Values{"username": {"asha"}, "password": {"pw"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var root, asha models.User
	require.NoError(t, models.DB.Where("username = ?", "root").First(&root).Error)
	require.NoError(t, models.DB.Where("username = ?", "asha").First(&asha).Error)
	assert.Equal(t, models.RoleAdmin, root.Role)
	assert.Equal(t, models.RoleOperator, asha.Role)
	assert.NotEqual(t, "pw", asha.Password)
	assert.NotContains(t, w.Body.String(), asha.Password, "hash never leaves the server")
}

func TestRegisterValidation(t *testing.T) {
	testsupport.NewDB(t)
	r := newRouter(newController())

	w := postForm(r, "/register", url.Values{"username": {"asha"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(r, "/register", url.Values{"username": {"   "}, "password": {"pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, postForm(r, "/register", url.Values{"username": {"asha"}, "password": {"pw"}}).Code)
	w = postForm(r, "/register", url.Values{"username": {"asha"}, "password": {"other"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginFlow(t *testing.T) {
	testsupport.NewDB(t)
	h := newController()
	r := newRouter(h)
	require.Equal(t, http.StatusCreated, postForm(r, "/register", url.Values{"username": {"asha"}, "password": {"pw"}}).Code)

	w := postForm(r, "/login", url.Values{"username": {"asha"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"username":"asha"`)

	out := postForm(r, "/logout", nil)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestLoginThrottlesRepeatedFailures(t *testing.T) {
	testsupport.NewDB(t)
	h := newController()
	r := newRouter(h)
	require.Equal(t, http.StatusCreated, postForm(r, "/register", url.Values{"username": {"asha"}, "password": {"pw"}}).Code)

	for i := 0; i < 3; i++ {
		w := postForm(r, "/login", url.Values{"username": {"asha"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := postForm(r, "/login", url.Values{"username": {"asha"}, "password": {"pw"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 3.0, testutil.ToFloat64(h.Metrics.LoginFailures))
}

func TestLoginUnknownUser(t *testing.T) {
	testsupport.NewDB(t)
	r := newRouter(newController())
	w := postForm(r, "/login", url.Values{"username": {"nobody"}, "password": {"pw"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
