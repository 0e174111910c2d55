package service

import (
	"context"
	"net/http"
	"time"

	"github.com/flickvault/flickvault/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func comparePassword(hash, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// SessionCookie is the cookie holding the signed session token.
const SessionCookie = "fv_session"

// SessionClaims is the client-held session payload: who the bearer is and
// when the session was issued. The token is self-contained so no server
// session store exists; expiry alone ends a session.
type SessionClaims struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// SessionService authenticates credentials and issues/clears the session
// cookie. Sessions slide: every authenticated request re-issues the cookie
// so expiry is always last-use + window.
type SessionService struct {
	users  UserRepo
	secret []byte
	window time.Duration
	secure bool
}

func NewSessionService(users UserRepo, secret string, window time.Duration, secure bool) *SessionService {
	return &SessionService{users: users, secret: []byte(secret), window: window, secure: secure}
}

// Login verifies credentials and returns a session token for the user.
// An unconfirmed email is the only failure distinguished from a generic
// credential mismatch.
func (s *SessionService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := comparePassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.EmailConfirmed {
		return "", nil, ErrEmailNotConfirmed
	}
	token, err := s.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Issue signs a fresh session token for the user, valid for the full window.
func (s *SessionService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.window)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Refresh re-signs the claims with a new window starting now. Called on
// every authenticated request so an active session never lapses, while an
// idle one expires window after its last use.
func (s *SessionService) Refresh(claims *SessionClaims) (string, error) {
	now := time.Now()
	fresh := &SessionClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Roles:    claims.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.window)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, fresh)
	return token.SignedString(s.secret)
}

// Parse validates a session token. An expired or malformed token returns
// an error; callers treat that as an absent session, not a failure.
func (s *SessionService) Parse(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// Cookie wraps a token in the session cookie with the sliding window as
// its max age.
func (s *SessionService) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.window.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie; this is logout.
func (s *SessionService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
