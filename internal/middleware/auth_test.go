package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newProtectedServer(t *testing.T) *echo.Echo {
	t.Helper()
	auth, err := NewAuthenticator(AuthConfig{Secret: testSecret})
	require.NoError(t, err)
	t.Cleanup(auth.Close)

	e := echo.New()
	e.GET("/private", func(c echo.Context) error {
		subject, _ := SubjectFromContext(c.Request().Context())
		return c.String(http.StatusOK, subject)
	}, auth.Middleware())
	return e
}

func TestAuthenticator_ValidToken(t *testing.T) {
	e := newProtectedServer(t)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, testSecret, "admin@cardapio"))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@cardapio", rec.Body.String())
}

func TestAuthenticator_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "admin")},
		{"garbage", "Bearer not.a.token"},
	}

	e := newProtectedServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestNewAuthenticator_RequiresKeyMaterial(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{})
	assert.Error(t, err)
}

func TestRequestLogger_SkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/v1/products", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/products", nil))
	assert.Contains(t, buf.String(), `"uri":"/v1/products"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestVersionHeader(t *testing.T) {
	e := echo.New()
	e.GET("/v1/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, VersionHeader("v1"))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Empty(t, rec.Header().Get("X-API-Deprecated"))
}
