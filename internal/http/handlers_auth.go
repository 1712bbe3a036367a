package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if isValidationError(err) {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// isValidationError spots the plain-text validation failures that User and
// Transaction Validate return, so they surface as 400s instead of 500s.
func isValidationError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"empty username", "invalid email", "empty password", "missing", "too long"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
