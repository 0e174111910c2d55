package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flickvault/flickvault/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ConfirmationMailer delivers the account-activation link after sign-up.
type ConfirmationMailer interface {
	SendConfirmation(to, link string) error
}

type AuthHandler struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
	Resets   *service.ResetService
	Mailer   ConfirmationMailer // nil when SMTP is not configured
	BaseURL  string
	Log      *zap.SugaredLogger
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeNotice(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"notice": msg})
}

func writeFieldErrors(w http.ResponseWriter, verrs service.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
}

// SignUp registers a user and sends the confirmation link.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	user, err := h.Accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if verrs, ok := service.AsValidation(err); ok {
			writeFieldErrors(w, verrs)
			return
		}
		h.Log.Errorw("sign up", "err", err)
		http.Error(w, `{"error":"sign up failed"}`, http.StatusInternalServerError)
		return
	}
	link := fmt.Sprintf("%s/confirm?uid=%s", h.BaseURL, user.ID.Hex())
	if h.Mailer != nil {
		if err := h.Mailer.SendConfirmation(user.Email, link); err != nil {
			h.Log.Errorw("send confirmation mail", "user", user.Username, "err", err)
		}
	} else {
		h.Log.Warnw("smtp not configured; confirmation link not delivered", "user", user.Username)
	}
	writeNotice(w, http.StatusCreated,
		"A confirmation email has been sent to your email address. Click the confirmation link to activate your account.")
}

// Confirm activates the account behind the confirmation link.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.URL.Query().Get("uid"))
	if err != nil {
		http.Error(w, `{"error":"invalid confirmation link"}`, http.StatusBadRequest)
		return
	}
	if err := h.Accounts.ConfirmEmail(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, `{"error":"invalid confirmation link"}`, http.StatusNotFound)
			return
		}
		h.Log.Errorw("confirm email", "err", err)
		http.Error(w, `{"error":"confirmation failed"}`, http.StatusInternalServerError)
		return
	}
	writeNotice(w, http.StatusOK, "Your email is confirmed. You can log in now.")
}

// Login verifies credentials, sets the session cookie and redirects to the
// landing page or the originally requested path.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	token, _, err := h.Sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotConfirmed):
			http.Error(w, `{"error":"you need to confirm your email; check your inbox"}`, http.StatusUnauthorized)
		case errors.Is(err, service.ErrInvalidCredentials):
			http.Error(w, `{"error":"invalid username or password"}`, http.StatusUnauthorized)
		default:
			h.Log.Errorw("login", "err", err)
			http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		}
		return
	}
	http.SetCookie(w, h.Sessions.Cookie(token))
	target := "/"
	if returnURL := r.URL.Query().Get("returnUrl"); returnURL != "" && returnURL[0] == '/' {
		target = returnURL
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout clears the session cookie and redirects to the landing page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// The session middleware re-issued the cookie for this request; drop it
	// so the clearing cookie is the only one the response carries.
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, h.Sessions.ClearCookie())
	http.Redirect(w, r, "/", http.StatusFound)
}

// ForgotPassword issues a reset token and mails the link. The response is
// identical whether or not the email matches an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, `{"error":"email is required"}`, http.StatusBadRequest)
		return
	}
	if err := h.Resets.RequestReset(r.Context(), req.Email); err != nil {
		h.Log.Errorw("request password reset", "err", err)
		http.Error(w, `{"error":"password reset failed"}`, http.StatusInternalServerError)
		return
	}
	writeNotice(w, http.StatusOK,
		"If an account exists for that address, a password reset link has been sent.")
}

// ResetPassword consumes a reset token and replaces the password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Token           string `json:"token"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeFieldErrors(w, service.ValidationErrors{"confirmPassword": "new password and confirm password do not match"})
		return
	}
	err := h.Resets.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		if verrs, ok := service.AsValidation(err); ok {
			writeFieldErrors(w, verrs)
			return
		}
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			http.Error(w, `{"error":"this reset link has expired; request a new one"}`, http.StatusBadRequest)
		case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrUserNotFound):
			http.Error(w, `{"error":"this reset link is invalid"}`, http.StatusBadRequest)
		default:
			h.Log.Errorw("reset password", "err", err)
			http.Error(w, `{"error":"password reset failed"}`, http.StatusInternalServerError)
		}
		return
	}
	writeNotice(w, http.StatusOK, "Your password has been reset successfully.")
}
