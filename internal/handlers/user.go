// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/auth"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/database"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// CreateUserHandler registers a new user account.
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}
	if req.Role == models.RoleAdmin || req.Role == models.RoleBanned {
		// privileged roles are granted through the admin path, never self-assigned
		req.Role = models.RoleNormal
	}

	user := models.User{Username: req.Username, Password: req.Password, Role: req.Role}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and sets the auth_token cookie the
// websocket and admin paths authenticate with.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user, err := database.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}
	if user.IsBanned() {
		http.Error(w, "account banned", http.StatusForbidden)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})

	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ListUsersHandler returns every known user. Requires authentication but
// not privilege: the connected-user view is visible to all participants.
func ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	users, err := database.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// authenticatedUser resolves the auth_token cookie to a fresh user row,
// writing the HTTP error itself when that fails.
func authenticatedUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}

	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return nil, false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		http.Error(w, "invalid token subject", http.StatusForbidden)
		return nil, false
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusForbidden)
		return nil, false
	}
	if user.IsBanned() {
		http.Error(w, "account banned", http.StatusForbidden)
		return nil, false
	}
	return user, true
}

// requireAdmin re-verifies privilege against the users table at the
// moment of the privileged action; a role claim cached in a long-lived
// token is never trusted.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin() {
		http.Error(w, "admin privilege required", http.StatusForbidden)
		return nil, false
	}
	return user, true
}
