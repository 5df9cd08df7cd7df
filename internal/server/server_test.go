package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/classhub/internal/config"
	"anoa.com/classhub/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopStorage struct{}

func (nopStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	return "https://files.test/" + folder + "/" + fileName, nil
}

func (nopStorage) Delete(ctx context.Context, fileURL string) error { return nil }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AllowedOrigins:        "http://localhost:3000",
		JWTSecret:             "test-secret",
		JWTExpiration:         time.Hour,
		OrphanCleanupSchedule: "@every 12h",
	}
	srv, err := NewServer(cfg, Deps{
		DB:          testutil.NewTestDB(t),
		FileStorage: nopStorage{},
	})
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signupAndLogin(t *testing.T, h http.Handler, email, role string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":            email,
		"first_name":       "Test",
		"password":         "secret123",
		"password_confirm": "secret123",
		"role":             role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestAuthAndClassroomFlow(t *testing.T) {
	h := newTestServer(t)

	teacher := signupAndLogin(t, h, "teacher@school.test", "teacher")
	student := signupAndLogin(t, h, "student@school.test", "student")

	w := do(t, h, http.MethodGet, "/api/users/me", teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"teacher"`)

	w = do(t, h, http.MethodPost, "/api/classes", teacher, gin.H{"name": "Physics"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Code)

	w = do(t, h, http.MethodPost, "/api/classes/join", student, gin.H{"code": created.Data.Code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/classes/"+created.Data.ID, student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, created.Data.ID, detail.ID)
	assert.Empty(t, detail.Code)
}

func TestRouteProtection(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/notes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	teacher := signupAndLogin(t, h, "teacher@school.test", "teacher")
	w = do(t, h, http.MethodGet, "/api/admin/dashboard", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/api/admin/jobs/orphan-attachment-cleanup/run", teacher, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
