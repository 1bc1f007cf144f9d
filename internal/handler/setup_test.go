package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/zornyy/photoCloud/internal/blobstore"
	"github.com/zornyy/photoCloud/internal/config"
	"github.com/zornyy/photoCloud/internal/handler"
	"github.com/zornyy/photoCloud/internal/middleware"
	"github.com/zornyy/photoCloud/internal/model"
	"github.com/zornyy/photoCloud/internal/pkg/token"
	"github.com/zornyy/photoCloud/internal/repo"
	"github.com/zornyy/photoCloud/internal/service"
	"github.com/zornyy/photoCloud/internal/testutil"
)

var testSecret = []byte("test-secret")

type fixture struct {
	router http.Handler
	auth   *service.AuthService
}

func uniqueName(prefix string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

func setupRouter(t *testing.T) (*fixture, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(conn)
	photoRepo := repo.NewPhotoRepo(conn)

	store, err := blobstore.New(config.UploadStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	authService := service.NewAuthService(userRepo, testSecret, time.Hour, 1024)
	userService := service.NewUserService(userRepo)
	photoService := service.NewPhotoService(photoRepo, userRepo, store)

	deps := handler.RouterDeps{
		Auth:   handler.NewAuthHandler(authService),
		Users:  handler.NewUserHandler(userService),
		Photos: handler.NewPhotoHandler(photoService),
		Guard:  middleware.NewGuard(userRepo, testSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return &fixture{router: engine, auth: authService}, cleanup
}

func (f *fixture) registerUser(t *testing.T, quotaMB int64) (*model.User, string) {
	t.Helper()
	username := uniqueName("user")
	user, err := f.auth.RegisterWithQuota(context.Background(), username, username+"@example.com", "Passw0rd", "Test User", quotaMB)
	require.NoError(t, err)
	tok, err := token.Generate(user.ID, user.Username, testSecret, time.Hour)
	require.NoError(t, err)
	return user, tok
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) doWithAuthHeader(t *testing.T, method, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authHeader)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) uploadPhoto(t *testing.T, bearer, name, filename, mimeType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", name))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func errCode(t *testing.T, resp *httptest.ResponseRecorder) float64 {
	t.Helper()
	apiErr, ok := decodeBody(t, resp)["error"].(map[string]interface{})
	require.True(t, ok, "body carries no error object: %s", resp.Body.String())
	code, _ := apiErr["code"].(float64)
	return code
}
