package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"spruceup/internal/middleware"
	"spruceup/internal/session"
	"spruceup/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login validates credentials and opens a session. The session is not
// fully authenticated until the 2FA challenge completes.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.userStore.FindByEmail(req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// TwoFADone starts as false — the user must complete 2FA.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		TwoFADone: false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"needs_2fa_setup": user.Needs2FASetup(),
	})
}

// TwoFASetup generates a TOTP secret for the logged-in user and returns
// it together with a QR code for authenticator apps. The secret is not
// active until confirmed with a valid code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SpruceUp Living",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr encode failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"secret":  key.Secret(),
		"qr_png":  base64.StdEncoding.EncodeToString(png),
		"otp_url": key.URL(),
	})
}

type twoFARequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFAConfirm validates the first code against the pending secret and
// enables 2FA for the user.
func (a *Auth) TwoFAConfirm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req twoFARequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "a 6-digit code is required")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil || user.TOTPSecret == nil {
		respondError(w, http.StatusBadRequest, "2FA setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if err := a.userStore.EnableTOTP(user.ID); err != nil {
		slog.Error("enable totp failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.completeSession(w, r, sess)
}

// TwoFAVerify validates a code for a user with 2FA already enabled and
// marks the session fully authenticated.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req twoFARequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "a 6-digit code is required")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil || !user.TOTPEnabled || user.TOTPSecret == nil {
		respondError(w, http.StatusBadRequest, "2FA is not set up")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	a.completeSession(w, r, sess)
}

// completeSession flips TwoFADone on the stored session.
func (a *Auth) completeSession(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}
