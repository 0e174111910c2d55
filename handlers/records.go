package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flickvault/flickvault/middleware"
	"github.com/flickvault/flickvault/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RecordsHandler struct {
	Records  *service.RecordService
	Throttle *service.Throttle
	Log      *zap.SugaredLogger
}

type TitleRequest struct {
	Name string `json:"name"`
	Year int    `json:"year"`
	Type string `json:"type"`
}

func (h *RecordsHandler) caller(r *http.Request) service.Caller {
	id, _ := middleware.UserIDFromContext(r.Context())
	return service.Caller{UserID: id, Admin: middleware.IsAdmin(r.Context())}
}

// Request creates a title request, at most one per user per window. The
// redis marker enforces the limit; the cookie mirrors it for the client.
func (h *RecordsHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	username, _ := middleware.UsernameFromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())

	key := service.ThrottleKey(username)
	recent, err := h.Throttle.HasRecentRequest(r.Context(), key)
	if err != nil {
		h.Log.Errorw("throttle lookup", "user", username, "err", err)
		http.Error(w, `{"error":"request failed, try again later"}`, http.StatusInternalServerError)
		return
	}
	if recent {
		writeNotice(w, http.StatusOK, "You have already requested a title. Try again after 24 hours.")
		return
	}

	record, err := h.Records.Create(r.Context(), req.Name, req.Year, req.Type, userID)
	if err != nil {
		if verrs, ok := service.AsValidation(err); ok {
			writeFieldErrors(w, verrs)
			return
		}
		h.Log.Errorw("create title request", "user", username, "err", err)
		http.Error(w, `{"error":"request failed, try again later"}`, http.StatusInternalServerError)
		return
	}
	if err := h.Throttle.RecordRequest(r.Context(), key, record.Name); err != nil {
		h.Log.Errorw("throttle record", "user", username, "err", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    key,
		Value:   url.QueryEscape(record.Name),
		Path:    "/",
		Expires: time.Now().Add(h.Throttle.Window()),
	})
	writeNotice(w, http.StatusCreated, fmt.Sprintf("Your requested title '%s' has been received.", record.Name))
}

func (h *RecordsHandler) recordID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid record id"}`, http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *RecordsHandler) writeRecordError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, `{"error":"record not found"}`, http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, `{"error":"access denied"}`, http.StatusForbidden)
	default:
		if verrs, ok := service.AsValidation(err); ok {
			writeFieldErrors(w, verrs)
			return
		}
		h.Log.Errorw(action, "err", err)
		http.Error(w, `{"error":"request failed, try again later"}`, http.StatusInternalServerError)
	}
}

// Edit updates a record owned by the caller (Admins may edit any record).
func (h *RecordsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	var req TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if err := h.Records.Edit(r.Context(), id, req.Name, req.Year, req.Type, h.caller(r)); err != nil {
		h.writeRecordError(w, err, "edit record")
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

// Get returns a single record for the edit form.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	record, err := h.Records.Get(r.Context(), id, h.caller(r))
	if err != nil {
		h.writeRecordError(w, err, "get record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete removes a record owned by the caller (Admins may delete any).
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.Records.Delete(r.Context(), id, h.caller(r)); err != nil {
		h.writeRecordError(w, err, "delete record")
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}
