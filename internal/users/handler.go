package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-id/meridian-id/internal/observability"
	"github.com/meridian-id/meridian-id/internal/platform/httpx"
	"github.com/meridian-id/meridian-id/internal/shared"
)

// Handler wires the JSON endpoints for the account use cases.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      *AuthMiddleware
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. Metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, auth *AuthMiddleware, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		auth:      auth,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers the public, authenticated and admin route groups.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Get("/auth/verify", h.verifyToken)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAuth)

		r.Get("/users", h.list)
		r.Get("/users/lookup", h.getByEmail)
		r.Get("/users/{id}", h.getByID)
		r.Put("/users/{id}", h.update)
		r.Put("/users/{id}/profile", h.updateProfile)
		r.Put("/users/{id}/password", h.changePassword)
		r.Delete("/users/{id}", h.delete)
		r.Delete("/users/{id}/soft", h.softDelete)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAuth)
		r.Use(h.auth.RequireRole(RoleAdmin, RoleSuperAdmin))

		r.Get("/admin/users", h.list)
		r.Put("/admin/users/{id}/role", h.updateRole)
		r.Post("/admin/users/{id}/activate", h.activate)
		r.Post("/admin/users/{id}/deactivate", h.deactivate)
		r.Delete("/admin/users/{id}", h.adminDelete)
		r.Post("/admin/users/bulk-delete", h.bulkDelete)
	})
}

func (h *Handler) decodeValid(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return shared.E(shared.KindValidation, "invalid request body")
	}
	if err := h.validator.Struct(target); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return shared.Ef(shared.KindValidation, "invalid field %s", fieldErrs[0].Field())
		}
		return shared.E(shared.KindValidation, "invalid request body")
	}
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), req, r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.metrics.RecordLogin("failure")
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordLogin("success")
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.VerifyTokenWithRefresh(r.Context(), BearerToken(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) getByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Activate(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.SoftDelete(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	deleted, err := h.service.AdminDelete(r.Context(), chi.URLParam(r, "id"), actorID(r), force)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := h.decodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.BulkDelete(r.Context(), req.IDs, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func actorID(r *http.Request) string {
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		return principal.UserID
	}
	return ""
}

func parseListRequest(r *http.Request) (ListUsersRequest, error) {
	query := r.URL.Query()
	req := ListUsersRequest{Page: 1, Limit: 10}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, shared.E(shared.KindValidation, "page must be a number")
		}
		req.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, shared.E(shared.KindValidation, "limit must be a number")
		}
		req.Limit = limit
	}
	if raw := query.Get("role"); raw != "" {
		role := Role(raw)
		req.Role = &role
	}
	if raw := query.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return req, shared.E(shared.KindValidation, "is_active must be a boolean")
		}
		req.IsActive = &active
	}
	if raw := query.Get("email_verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			return req, shared.E(shared.KindValidation, "email_verified must be a boolean")
		}
		req.EmailVerified = &verified
	}
	if raw := query.Get("search"); raw != "" {
		search := raw
		req.Search = &search
	}
	return req, nil
}
