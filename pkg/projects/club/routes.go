package club

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/gatehouse/pkg/httputil"
	"github.com/platinummonkey/gatehouse/pkg/middleware"
	"github.com/platinummonkey/gatehouse/pkg/notification"
	"github.com/platinummonkey/gatehouse/pkg/observability"
)

// Handlers carries the dependencies of the club routes
type Handlers struct {
	Authn      *middleware.Authenticator
	Dispatcher *notification.Dispatcher
	Catalog    *notification.Catalog
	Logger     *observability.Logger
}

// RegisterRoutes mounts the club endpoints. Each route carries exactly one
// policy, attached here at registration time.
func RegisterRoutes(router *mux.Router, h *Handlers) {
	r := router.PathPrefix("/club").Subrouter()

	service := r.NewRoute().Subrouter()
	service.Use(h.Authn.Require(Public()))
	service.HandleFunc("/ping", h.ping).Methods(http.MethodGet)

	user := r.NewRoute().Subrouter()
	user.Use(h.Authn.Require(User()))
	user.HandleFunc("/me", h.me).Methods(http.MethodGet)

	member := r.NewRoute().Subrouter()
	member.Use(h.Authn.Require(Member()))
	member.HandleFunc("/members", h.members).Methods(http.MethodGet)

	admin := r.NewRoute().Subrouter()
	admin.Use(h.Authn.Require(Admin()))
	admin.HandleFunc("/announcements", h.announce).Methods(http.MethodPost)
}

// logger prefers the request-scoped logger attached by the recovery
// middleware, falling back to the handler's own
func (h *Handlers) logger(r *http.Request) *observability.Logger {
	if l := observability.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return h.Logger
}

func (h *Handlers) ping(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	httputil.WriteData(w, map[string]string{
		"pong":   "club",
		"caller": p.String(),
	})
}

// meResponse is the authenticated identity as the client sees it
type meResponse struct {
	UserID   string   `json:"user_id"`
	UserType string   `json:"user_type"`
	Roles    []string `json:"roles"`
	Source   string   `json:"source"`
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	httputil.WriteData(w, meResponse{
		UserID:   p.UserID,
		UserType: string(p.UserType),
		Roles:    p.Roles.Strings(),
		Source:   string(p.Source),
	})
}

func (h *Handlers) members(w http.ResponseWriter, r *http.Request) {
	// Placeholder payload; a real deployment backs this with member storage.
	httputil.WriteData(w, map[string]interface{}{
		"members": []string{},
	})
}

// announceRequest asks for a notification to a set of club members
type announceRequest struct {
	Event     string            `json:"event"`
	Receivers []string          `json:"receivers"`
	Lang      string            `json:"lang"`
	Data      map[string]string `json:"data"`
}

func (h *Handlers) announce(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Event == "" || len(req.Receivers) == 0 {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "bad_request", "event and receivers are required")
		return
	}
	if req.Lang == "" {
		req.Lang = notification.DefaultLang
	}
	if h.Catalog == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "unavailable", "notification catalog not configured")
		return
	}

	title, body, err := h.Catalog.Render(req.Lang, req.Event, req.Data)
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	msg := &notification.Message{
		Project:   ProjectID,
		Event:     req.Event,
		Receivers: req.Receivers,
		Lang:      req.Lang,
		Title:     title,
		Body:      body,
	}
	if err := h.Dispatcher.Dispatch(r.Context(), msg); err != nil {
		h.logger(r).WithError(err).Error("failed to queue announcement")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteData(w, map[string]interface{}{
		"queued":    true,
		"receivers": len(req.Receivers),
	})
}
