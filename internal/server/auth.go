package server

import (
	"fmt"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"telematic/internal/database"
)

const (
	sessionName        = "telematic-session"
	passwordSettingKey = "admin_password_hash"
)

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ensureAdminCredentials seeds the stored password hash from configuration
// on first start. Once a hash exists the config password no longer matters.
func (s *Server) ensureAdminCredentials() error {
	hash, err := database.GetSetting(passwordSettingKey)
	if err != nil {
		return fmt.Errorf("failed to read admin credentials: %w", err)
	}
	if hash != "" {
		return nil
	}

	hash, err = hashPassword(s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := database.SetSetting(passwordSettingKey, hash); err != nil {
		return fmt.Errorf("failed to store admin credentials: %w", err)
	}
	log.Printf("Admin credentials initialized for %s", s.config.AdminUsername)
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	hash, err := database.GetSetting(passwordSettingKey)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Username != s.config.AdminUsername || checkPassword(req.Password, hash) != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		writeError(w, fmt.Errorf("failed to save session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	delete(session.Values, "authenticated")
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		writeError(w, fmt.Errorf("failed to save session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authRequired rejects requests without an authenticated session.
func (s *Server) authRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionStore.Get(r, sessionName)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		if ok, _ := session.Values["authenticated"].(bool); !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		next(w, r)
	}
}
