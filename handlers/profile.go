package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flickvault/flickvault/middleware"
	"github.com/flickvault/flickvault/models"
	"github.com/flickvault/flickvault/service"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	Accounts *service.AccountService
	Pictures *service.PictureService
	Records  *service.RecordService
	MaxBytes int64
	Log      *zap.SugaredLogger
}

type ProfileResponse struct {
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	ProfilePicturePath string          `json:"profilePicturePath"`
	Records            []models.Record `json:"records"`
}

// Profile returns the current user's email, picture path and title requests.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.UsernameFromContext(r.Context())
	user, err := h.Accounts.FindByName(r.Context(), username)
	if err != nil || user == nil {
		if err != nil {
			h.Log.Errorw("load profile", "user", username, "err", err)
		}
		http.Error(w, `{"error":"failed to load profile"}`, http.StatusInternalServerError)
		return
	}
	records, err := h.Records.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.Log.Errorw("load profile records", "user", username, "err", err)
		http.Error(w, `{"error":"failed to load profile"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		Username:           user.Username,
		Email:              user.Email,
		ProfilePicturePath: h.Pictures.ResolvePath(r.Context(), username),
		Records:            records,
	})
}

// UpdatePassword changes the current user's password. Responses are the
// plain-text status strings the profile page displays inline.
func (h *ProfileHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid Request"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		w.Write([]byte("New Password And Confirm Password Do Not Match"))
		return
	}
	username, _ := middleware.UsernameFromContext(r.Context())
	user, err := h.Accounts.FindByName(r.Context(), username)
	if err != nil || user == nil {
		if err != nil {
			h.Log.Errorw("update password", "user", username, "err", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error While Updating The Password"))
		return
	}
	err = h.Accounts.UpdatePassword(r.Context(), user, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		w.Write([]byte("Password Updated Successfully"))
	case errors.Is(err, service.ErrWrongPassword):
		w.Write([]byte("Current Password Is Incorrect"))
	default:
		if verrs, ok := service.AsValidation(err); ok {
			w.Write([]byte(verrs.Error()))
			return
		}
		h.Log.Errorw("update password", "user", username, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error While Updating The Password"))
	}
}

// UpdatePicture replaces the current user's profile picture. Requests with
// no file are rejected with 400.
func (h *ProfileHandler) UpdatePicture(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "Error", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("picture")
	if err != nil {
		http.Error(w, "Error", http.StatusBadRequest)
		return
	}
	defer file.Close()

	username, _ := middleware.UsernameFromContext(r.Context())
	ok, err := h.Pictures.UpdatePicture(r.Context(), file, header.Size, header.Header.Get("Content-Type"), username)
	if err != nil {
		h.Log.Errorw("update profile picture", "user", username, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error While Updating The Profile Picture"))
		return
	}
	if !ok {
		w.Write([]byte("Error While Updating The Profile Picture"))
		return
	}
	w.Write([]byte("Profile Picture Updated Successfully"))
}
