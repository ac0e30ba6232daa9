package httpapi

import (
	"net/http"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/authenticator"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req models.NewUser
	if !decode(w, r, &req) {
		return
	}

	user, err := s.auth.SignUp(r.Context(), &req)
	if err != nil {
		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "sign up failed", "error", err)
		}
		writeError(w, code, msg)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": user.ID, "email": user.Email})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	userID, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "token": token})
}

// logout clears the identity of this request. The token is not revoked.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	req := authenticator.RequestFromContext(r.Context())
	if req != nil {
		s.auth.Logout(req)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticator.ClaimsFromContext(r.Context()) != nil})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims := authenticator.ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"user_id": claims.UserID, "email": claims.Email})
}

// keyID returns the {id} path parameter, writing an error and returning
// false for ids the API may not touch.
func keyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "empty key id")
		return "", false
	}
	if id == common.SecretKeyName {
		writeError(w, http.StatusForbidden, "reserved key")
		return "", false
	}
	return id, true
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	ids := slices.DeleteFunc(s.keychain.IDs(), func(id string) bool { return id == common.SecretKeyName })
	writeJSON(w, http.StatusOK, map[string][]string{"keys": ids})
}

func (s *Server) createKey(w http.ResponseWriter, r *http.Request) {
	id, ok := keyID(w, r)
	if !ok {
		return
	}

	s.keysMu.Lock()
	defer s.keysMu.Unlock()

	if _, exists := s.keychain.GetKey(id); exists {
		writeError(w, http.StatusConflict, "already exists")
		return
	}

	key := keychain.GenerateKey()
	if s.keys != nil {
		if err := s.keys.Save(r.Context(), id, key); err != nil {
			s.logger.Error(r.Context(), "persisting key failed", "key_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	s.keychain.AddKey(id, key)

	s.logger.Info(r.Context(), "key created", "key_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"key_id": id})
}

func (s *Server) deleteKey(w http.ResponseWriter, r *http.Request) {
	id, ok := keyID(w, r)
	if !ok {
		return
	}

	s.keysMu.Lock()
	defer s.keysMu.Unlock()

	if s.keys != nil {
		if err := s.keys.Delete(r.Context(), id); err != nil {
			s.logger.Error(r.Context(), "deleting stored key failed", "key_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	s.keychain.RemoveKey(id)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) encrypt(w http.ResponseWriter, r *http.Request) {
	id, ok := keyID(w, r)
	if !ok {
		return
	}
	var req struct {
		Plaintext string `json:"plaintext"`
	}
	if !decode(w, r, &req) {
		return
	}

	ct, err := s.keychain.Encrypt(id, req.Plaintext)
	if err != nil {
		code, msg := statusFor(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ciphertext": ct})
}

func (s *Server) decrypt(w http.ResponseWriter, r *http.Request) {
	id, ok := keyID(w, r)
	if !ok {
		return
	}
	var req struct {
		Ciphertext string `json:"ciphertext"`
	}
	if !decode(w, r, &req) {
		return
	}

	pt, err := s.keychain.Decrypt(id, req.Ciphertext)
	if err != nil {
		code, msg := statusFor(err)
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plaintext": pt})
}
