// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventpulse/internal/auth"
	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
	"github.com/Shivanand-hulikatti/eventpulse/internal/service"
)

// EventService is the event behaviour the handlers need.
type EventService interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest, createdBy string) (*model.Event, error)
	ListEvents(ctx context.Context, filter string) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
}

// UserService is the user behaviour the handlers need.
type UserService interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetRole(ctx context.Context, email string) (string, error)
}

// TokenIssuer mints session credentials.
type TokenIssuer interface {
	Issue(id model.Identity) (string, time.Time, error)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a single JSON object into dst. Unknown keys are ignored;
// payloads that keep them declare it through their own UnmarshalJSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// internalError logs err and answers with an opaque 500.
func internalError(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	log.ErrorContext(r.Context(), msg, slog.Any("error", err), slog.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

// AuthHandler issues and clears the session cookie.
type AuthHandler struct {
	issuer  TokenIssuer
	cookies *auth.Cookies
	log     *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(issuer TokenIssuer, cookies *auth.Cookies, log *slog.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, cookies: cookies, log: log}
}

// IssueToken handles POST /jwt
// Signs the posted identity and stores the credential in the token cookie.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var id model.Identity
	if err := decodeJSON(w, r, &id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := service.Validate(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, exp, err := h.issuer.Issue(id)
	if err != nil {
		internalError(w, r, h.log, "issue token", err)
		return
	}
	h.cookies.Set(w, token, exp)
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// Logout handles POST /logout
// Clears the token cookie. The credential itself stays valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// ─── Users ────────────────────────────────────────────────────────────────────

// UserHandler holds the user endpoints.
type UserHandler struct {
	svc UserService
	log *slog.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrDuplicate):
			writeError(w, http.StatusConflict, "a user with this email already exists")
		default:
			internalError(w, r, h.log, "create user", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.InsertResult{Acknowledged: true, InsertedID: user.ID})
}

// GetRole handles GET /users/role/{email}
// Requires a valid credential.
func (h *UserHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the request has one, so the param is
	// still escaped only in that case.
	email := chi.URLParam(r, "email")
	if r.URL.RawPath != "" {
		var err error
		if email, err = url.PathUnescape(email); err != nil {
			writeError(w, http.StatusBadRequest, "invalid email")
			return
		}
	}

	role, err := h.svc.GetRole(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, h.log, "get role", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.RoleResponse{Role: role})
}

// ─── Events ───────────────────────────────────────────────────────────────────

// EventHandler holds the event endpoints.
type EventHandler struct {
	svc EventService
	log *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, log *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// CreateEvent handles POST /events
// Requires a valid credential; the caller is recorded as the creator.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())
	event, err := h.svc.CreateEvent(r.Context(), req, id.Email)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, r, h.log, "create event", err)
		return
	}

	writeJSON(w, http.StatusCreated, model.InsertResult{Acknowledged: true, InsertedID: event.ID})
}

// ListEvents handles GET /events?filter=upcoming|past
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, r, h.log, "list events", err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, h.log, "get event", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ─── Liveness ─────────────────────────────────────────────────────────────────

// Root handles GET /
func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "Event server is running")
}
