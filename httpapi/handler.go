package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/valedict/authgate"
	"github.com/valedict/authgate/middleware"
)

// Handler exposes the engine over HTTP. Build it once and mount
// Routes() on a server.
type Handler struct {
	engine *authgate.Engine
	log    *slog.Logger
}

func NewHandler(engine *authgate.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{engine: engine, log: log}
}

// Routes returns the fully wired mux: client metadata capture
// outermost, then per-class rate limits, CSRF on mutating routes, and
// bearer auth on the session endpoints.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	auth := func(fn http.HandlerFunc) http.Handler {
		return middleware.RateLimit(h.engine, authgate.RateClassAuth,
			middleware.CSRF(h.engine, fn))
	}
	api := func(fn http.HandlerFunc) http.Handler {
		return middleware.RateLimit(h.engine, authgate.RateClassAPI,
			middleware.CSRF(h.engine,
				middleware.RequireAuth(h.engine, fn)))
	}

	mux.Handle("POST /v1/auth/register", auth(h.handleRegister))
	mux.Handle("POST /v1/auth/login", auth(h.handleLogin))
	mux.Handle("POST /v1/auth/refresh", auth(h.handleRefresh))
	mux.Handle("POST /v1/auth/logout", auth(h.handleLogout))
	mux.Handle("GET /v1/auth/csrf", middleware.RateLimit(h.engine, authgate.RateClassAPI, http.HandlerFunc(h.handleCSRF)))

	mux.Handle("GET /v1/sessions", api(h.handleListSessions))
	mux.Handle("DELETE /v1/sessions/{id}", api(h.handleRevokeSession))
	mux.Handle("DELETE /v1/sessions", api(h.handleRevokeAll))

	mux.HandleFunc("GET /healthz", h.handleHealth)

	return middleware.ClientContext(mux)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string                  `json:"access_token"`
	RefreshToken string                  `json:"refresh_token"`
	SessionID    string                  `json:"session_id"`
	Account      authgate.AccountSummary `json:"account"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.engine.Register(r.Context(), authgate.CreateInput{
		Email:    req.Email,
		Username: req.Username,
		Secret:   req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toTokenResponse(result))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.engine.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTokenResponse(result))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTokenResponse(result))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.engine.IssueCSRF(w)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	auth := middleware.AuthFromContext(r.Context())

	views, err := h.engine.Sessions(r.Context(), auth.SubjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (h *Handler) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	auth := middleware.AuthFromContext(r.Context())

	if err := h.engine.RevokeSession(r.Context(), auth.SubjectID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	auth := middleware.AuthFromContext(r.Context())

	revoked, err := h.engine.RevokeAll(r.Context(), auth.SubjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"revoked": revoked})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "BAD_REQUEST"})
		return false
	}
	return true
}

func toTokenResponse(result *authgate.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionID:    result.SessionID,
		Account:      result.Account,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("response encode failed", slog.String("err", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := authgate.HTTPStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, authgate.ErrStoreUnavailable) {
		h.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
	}

	h.writeJSON(w, status, errorBody{Error: authgate.ErrorKind(err)})
}
