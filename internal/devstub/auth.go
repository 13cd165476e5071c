package devstub

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// handleLogin exchanges credentials for a bearer plus a profile snapshot.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	acct, ok := s.state.findByLogin(req.UsernameOrEmail)
	if !ok || acct.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(acct.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "issuing token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  acct.Profile,
	})
}

type signupRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username, email and password are required")
		return
	}
	if _, exists := s.state.findByLogin(req.Username); exists {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}

	s.state.addAccount(req.Username, req.Name, req.Email, req.Password, 0, false, false)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "account created"})
}

// handleForgotPassword issues a reset token. A real backend emails it; the
// stub logs it so local flows can complete.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Same response whether or not the account exists.
	if acct, ok := s.state.findByLogin(req.Email); ok {
		reset := uuid.New().String()
		s.state.mu.Lock()
		s.state.resets[reset] = acct.ID
		s.state.mu.Unlock()
		s.logger.Info("password reset issued", "email", req.Email, "reset_token", reset)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, an email was sent"})
}

func (s *Server) handleForgotUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if acct, ok := s.state.findByLogin(req.Email); ok {
		s.logger.Info("username reminder issued", "email", req.Email, "username", acct.Username)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, an email was sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusUnprocessableEntity, "new password is required")
		return
	}

	s.state.mu.Lock()
	id, ok := s.state.resets[req.Token]
	if ok {
		delete(s.state.resets, req.Token)
		if acct, found := s.state.accounts[id]; found {
			acct.Password = req.NewPassword
		}
	}
	s.state.mu.Unlock()

	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// handleMe returns the authoritative profile for the bearer.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	writeJSON(w, http.StatusOK, acct.Profile)
}
