// Package auth issues and validates the short-lived tokens behind the
// manual-entry form links. Tokens are HS256 JWTs carrying the user id;
// the form page passes them back as a query parameter.
package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	claimSubject = "sub"
	claimUserID  = "user_id"
)

// JWTMiddleware returns a JWT auth middleware configured for HS256
// tokens, accepted from the Authorization header or a token query
// parameter (form links use the latter).
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		Skipper:       skipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// UserIDFromContext extracts the authenticated user id from JWT claims.
func UserIDFromContext(c echo.Context) (int64, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	raw := claimString(claims, claimUserID)
	if raw == "" {
		raw = claimString(claims, claimSubject)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "user id missing")
	}
	return userID, nil
}

// GenerateToken creates a signed JWT for the user.
func GenerateToken(userID int64, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		claimSubject: strconv.FormatInt(userID, 10),
		claimUserID:  strconv.FormatInt(userID, 10),
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// FormLinks mints tokenized links to the manual entry form.
type FormLinks struct {
	baseURL   string
	secret    string
	expiresIn time.Duration
}

func NewFormLinks(baseURL, secret string, expiresIn time.Duration) *FormLinks {
	return &FormLinks{baseURL: baseURL, secret: secret, expiresIn: expiresIn}
}

// Link returns the form URL with a fresh token for the user.
func (f *FormLinks) Link(userID int64) (string, error) {
	token, _, err := GenerateToken(userID, f.secret, f.expiresIn)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(f.baseURL, "/")
	return base + "/form?token=" + url.QueryEscape(token), nil
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(raw)
	}
}
