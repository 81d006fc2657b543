package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/authcore"
)

type adminUser struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Role          authcore.Role `json:"role"`
	EmailVerified bool          `json:"email_verified"`
	Disabled      bool          `json:"disabled"`
	DisabledAt    *time.Time    `json:"disabled_at,omitempty"`
	LastLoginAt   *time.Time    `json:"last_login_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func toAdminUser(u *authcore.User) adminUser {
	return adminUser{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled(),
		DisabledAt:    u.DisabledAt,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type userListResponse struct {
	Users      []adminUser `json:"users"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

type statsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	VerifiedUsers int64 `json:"verified_users"`
	AdminUsers    int64 `json:"admin_users"`
	DisabledUsers int64 `json:"disabled_users"`
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	f, err := parseUserFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.svc.ListUsers(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := userListResponse{
		Users:      make([]adminUser, 0, len(page.Users)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
	}
	for i := range page.Users {
		out.Users = append(out.Users, toAdminUser(&page.Users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseUserFilter(r *http.Request) (authcore.UserFilter, error) {
	q := r.URL.Query()
	var f authcore.UserFilter

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: page must be an integer", errBadRequest)
		}
		f.Page = n
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: per_page must be an integer", errBadRequest)
		}
		f.PerPage = n
	}
	if v := q.Get("role"); v != "" {
		role := authcore.Role(v)
		if !role.Valid() {
			return f, fmt.Errorf("%w: unknown role", errBadRequest)
		}
		f.Role = &role
	}
	if v := q.Get("email_verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: email_verified must be a boolean", errBadRequest)
		}
		f.EmailVerified = &b
	}
	f.Search = q.Get("search")

	return f, nil
}

func (h *handlers) userStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.UserStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:    st.TotalUsers,
		VerifiedUsers: st.VerifiedUsers,
		AdminUsers:    st.AdminUsers,
		DisabledUsers: st.DisabledUsers,
	})
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	h.withUserID(w, r, h.svc.GetUser)
}

func (h *handlers) disableUser(w http.ResponseWriter, r *http.Request) {
	h.withUserID(w, r, h.svc.DisableUser)
}

func (h *handlers) enableUser(w http.ResponseWriter, r *http.Request) {
	h.withUserID(w, r, h.svc.EnableUser)
}

func (h *handlers) withUserID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*authcore.User, error)) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid user id", errBadRequest))
		return
	}

	u, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAdminUser(u))
}
