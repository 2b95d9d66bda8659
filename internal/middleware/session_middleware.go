package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
)

const (
	// SessionCookie holds "{userId}:{signedToken}", httpOnly.
	SessionCookie = "session_token"
	// ProfileCookie holds URL-encoded JSON {id,email,displayName} and is
	// readable by page scripts for UI rendering. Never trusted server-side.
	ProfileCookie = "session_profile"

	sessionIssuer = "lowther-auth"
	contextKey    = "session_user_id"
)

// SessionManager mints and verifies browser sessions. The signed half of
// the session cookie is an HS256 token carrying the user id and expiry,
// so its authority is re-checked on every request without server-side
// session state.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure}
}

type profilePayload struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName"`
}

// Issue writes both session cookies for the user. Safe to call again
// after profile completion to refresh the readable profile cookie.
func (m *SessionManager) Issue(c echo.Context, user *model.User) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	m.setCookie(c, SessionCookie, fmt.Sprintf("%d:%s", user.ID, token), true)

	b, err := json.Marshal(profilePayload{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
	if err != nil {
		return err
	}
	m.setCookie(c, ProfileCookie, url.QueryEscape(string(b)), false)
	return nil
}

// Clear expires both cookies.
func (m *SessionManager) Clear(c echo.Context) {
	m.expireCookie(c, SessionCookie, true)
	m.expireCookie(c, ProfileCookie, false)
}

// Verify checks a raw session cookie value and returns the user id it
// vouches for. The id prefix must match the signed token's subject.
func (m *SessionManager) Verify(value string) (int64, error) {
	idPart, tokenPart, found := strings.Cut(value, ":")
	if !found {
		return 0, fmt.Errorf("malformed session value")
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed session user id")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenPart, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid session token")
	}
	if claims.Subject != idPart {
		return 0, fmt.Errorf("session token subject mismatch")
	}
	return userID, nil
}

// Require returns an Echo middleware that rejects requests without a
// valid session and stores the user id on the context.
func (m *SessionManager) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "unauthorized",
					"message": "sign in required",
				})
			}
			userID, err := m.Verify(cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "unauthorized",
					"message": "invalid or expired session",
				})
			}
			c.Set(contextKey, userID)
			return next(c)
		}
	}
}

// UserID extracts the session user id set by Require.
func UserID(c echo.Context) (int64, bool) {
	v := c.Get(contextKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (m *SessionManager) setCookie(c echo.Context, name, value string, httpOnly bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) expireCookie(c echo.Context, name string, httpOnly bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
