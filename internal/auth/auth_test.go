package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := MintToken("user-42")
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUserID string
	handler := JwtAuthMiddleware(func(c echo.Context) error {
		gotUserID, _ = c.Get("user_id").(string)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-42", gotUserID)
}

func TestJwtAuthMiddlewareRejectsMissingToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JwtAuthMiddleware(func(c echo.Context) error {
		t.Fatal("handler must not run without a token")
		return nil
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJwtAuthMiddlewareRejectsBadSignature(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	token, err := MintToken("user-42")
	require.NoError(t, err)

	t.Setenv("SESSION_SECRET", "other-secret")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JwtAuthMiddleware(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenHandler(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("DEVICE_API_KEY", "device-key-1")

	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"device_key":"device-key-1","user_id":"user-42"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, TokenHandler(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "access_token")

	req = httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"device_key":"wrong","user_id":"user-42"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	require.NoError(t, TokenHandler(e.NewContext(req, rec)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
