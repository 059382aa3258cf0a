package web

import (
	"net/http"

	"github.com/JonMunkholm/UserUpload/internal/database"
)

// DefaultPageSize is the number of users shown when no limit is given.
const DefaultPageSize = 100

// UsersResponse is returned by GET /api/users.
type UsersResponse struct {
	Users []database.User `json:"users"`
	Total int64           `json:"total"`
}

// handleIndex renders the stored users as an HTML table.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseIntParam(r, "limit", DefaultPageSize)

	users, err := s.users.List(ctx, limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := usersPage(pageData{Users: users, Total: total, Pool: s.pool.Status()})
	if err := page.Render(ctx, w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleListUsers returns stored users as JSON.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseIntParam(r, "limit", DefaultPageSize)

	users, err := s.users.List(ctx, limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []database.User{}
	}

	writeJSON(w, http.StatusOK, UsersResponse{Users: users, Total: total})
}

// handlePoolStatus returns connection pool usage.
func (s *Server) handlePoolStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Status())
}
