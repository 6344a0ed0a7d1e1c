package api_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/server"
	"github.com/pageza/recipe-api/backend/internal/storage"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

type testAPI struct {
	t         *testing.T
	handler   http.Handler
	db        *gorm.DB
	mediaRoot string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(root, "/media")
	require.NoError(t, err)

	cfg := &config.Config{
		ServerHost:        "localhost",
		ServerPort:        "8000",
		DBDriver:          config.DriverSQLite,
		MediaURL:          "/media",
		PasswordMinLength: 5,
		MaxUploadBytes:    1 << 20,
		RateLimitWindow:   time.Hour,
		RecipeCreateLimit: 100,
		RecipeModifyLimit: 100,
	}
	srv := server.New(cfg, db, store, nil, zap.NewNop(), server.WithHashCost(bcrypt.MinCost))
	return &testAPI{t: t, handler: srv.Handler(), db: db, mediaRoot: root}
}

// do sends body as JSON unless it is nil and returns the recorded response.
func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(path, token, filename string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(a.t, err)
		_, err = part.Write(data)
		require.NoError(a.t, err)
	} else {
		require.NoError(a.t, mw.WriteField("other", "value"))
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token.
func (a *testAPI) register(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": email, "password": "secret123", "name": "Test User",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/users/token", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(a.t, w, &resp)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
