package web

import (
	"net/http"
	"time"

	"storepos/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]core.User{"users": users})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := h.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var in core.RegisterUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.svc.Users.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, user, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Username == "" || in.Password == "" {
		writeError(w, r, "username and password are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Users.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, r, "could not issue token", "INTERNAL", http.StatusInternalServerError)
		return
	}

	type response struct {
		Token string     `json:"token"`
		User  *core.User `json:"user"`
	}
	writeJSON(w, response{Token: token, User: user})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in core.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.svc.Users.UpdateUser(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Users.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
