package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flickvault/flickvault/middleware"
	"github.com/flickvault/flickvault/models"
	"github.com/flickvault/flickvault/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AdminHandler struct {
	Accounts *service.AccountService
	Records  *service.RecordService
	Log      *zap.SugaredLogger
}

type UserResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	EmailConfirmed bool     `json:"emailConfirmed"`
	Roles          []string `json:"roles"`
	CreatedAt      string   `json:"createdAt"`
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID.Hex(),
		Username:       u.Username,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		Roles:          u.Roles,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
	}
}

// ListUsers returns all users. Password hashes are omitted via bson-only fields.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListAll(r.Context())
	if err != nil {
		h.Log.Errorw("list users", "err", err)
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) userByParam(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return nil, false
	}
	user, err := h.Accounts.FindByID(r.Context(), id)
	if err != nil {
		h.Log.Errorw("load user", "err", err)
		http.Error(w, `{"error":"failed to load user"}`, http.StatusInternalServerError)
		return nil, false
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return nil, false
	}
	return user, true
}

// GetUser returns one user for the admin edit view.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userByParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// DeleteUser removes a user and their records, tokens and picture. Admins
// cannot delete themselves or the last remaining admin.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userByParam(w, r)
	if !ok {
		return
	}
	if currentID, ok := middleware.UserIDFromContext(r.Context()); ok && currentID == user.ID {
		http.Error(w, `{"error":"cannot delete your own account"}`, http.StatusBadRequest)
		return
	}
	if user.HasRole(models.RoleAdmin) {
		count, err := h.Accounts.AdminsCount(r.Context())
		if err != nil {
			h.Log.Errorw("count admins", "err", err)
			http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
			return
		}
		if count <= 1 {
			http.Error(w, `{"error":"cannot delete the last admin user"}`, http.StatusBadRequest)
			return
		}
	}
	if err := h.Accounts.Delete(r.Context(), user); err != nil {
		h.Log.Errorw("delete user", "user", user.Username, "err", err)
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusFound)
}

// UpdateEmail changes a user's email address.
func (h *AdminHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userByParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	err := h.Accounts.SetEmail(r.Context(), user.ID, req.Email)
	if err != nil {
		if verrs, ok := service.AsValidation(err); ok {
			writeFieldErrors(w, verrs)
			return
		}
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		default:
			h.Log.Errorw("update email", "user", user.Username, "err", err)
			http.Error(w, `{"error":"failed to update email"}`, http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusFound)
}

// ListRecords is the admin view over every user's title requests.
func (h *AdminHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Records.ListAll(r.Context())
	if err != nil {
		h.Log.Errorw("list records", "err", err)
		http.Error(w, `{"error":"failed to list records"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
