package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type contextKey string

// SubjectKey holds the token subject of an authenticated request.
const SubjectKey contextKey = "subject"

// AuthConfig selects how bearer tokens are verified. JWKSURL takes
// precedence over Secret.
type AuthConfig struct {
	Secret          string
	JWKSURL         string
	RefreshInterval time.Duration
}

// Authenticator verifies bearer tokens on the write routes.
type Authenticator struct {
	config echojwt.Config
	jwks   *keyfunc.JWKS
}

func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	a := &Authenticator{}
	a.config = echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			subject, _ := token.Claims.GetSubject()
			ctx := context.WithValue(c.Request().Context(), SubjectKey, subject)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}

	switch {
	case cfg.JWKSURL != "":
		interval := cfg.RefreshInterval
		if interval <= 0 {
			interval = time.Hour
		}
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   interval,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Warn().Err(err).Str("component", "auth").Msg("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, err
		}
		a.jwks = jwks
		a.config.KeyFunc = jwks.Keyfunc
	case cfg.Secret != "":
		a.config.SigningKey = []byte(cfg.Secret)
	default:
		return nil, errors.New("either a JWT secret or a JWKS url is required")
	}
	return a, nil
}

func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(a.config)
}

// Close stops the background JWKS refresh, if any.
func (a *Authenticator) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok && subject != ""
}
