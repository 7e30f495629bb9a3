package account

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	msgDuplicate        = "An account with that username or email already exists."
	msgInvalid          = "Invalid account data specified."
	msgPasswordMismatch = "The passwords do not match."
	msgCreated          = "Account created. Please close this page and login in the game."
	msgServerError      = "An internal server error has occurred."
)

const registerPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Register</title></head>
<body>
<form method="post" action="/account/register?type=sdk">
<input name="username" placeholder="Username" required>
<input name="email" type="email" placeholder="Email" required>
<input name="passwordv1" type="password" placeholder="Password" required>
<input name="passwordv2" type="password" placeholder="Confirm password" required>
<button type="submit">Register</button>
</form>
</body>
</html>
`

// Handler exposes the registration page and form endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(registerPage))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debugw("invalid registration form", "err", err)
		writeText(w, http.StatusBadRequest, msgInvalid)
		return
	}
	form := RegisterForm{
		Username:   r.PostForm.Get("username"),
		Email:      r.PostForm.Get("email"),
		PasswordV1: r.PostForm.Get("passwordv1"),
		PasswordV2: r.PostForm.Get("passwordv2"),
	}

	_, err := h.svc.Register(r.Context(), form)
	switch {
	case errors.Is(err, ErrDuplicate):
		writeText(w, http.StatusBadRequest, msgDuplicate)
	case errors.Is(err, ErrInvalidForm):
		writeText(w, http.StatusBadRequest, msgInvalid)
	case errors.Is(err, ErrPasswordMismatch):
		writeText(w, http.StatusBadRequest, msgPasswordMismatch)
	case err != nil:
		h.logger.Errorw("registration failed", "err", err)
		writeText(w, http.StatusInternalServerError, msgServerError)
	case r.URL.Query().Get("type") == "sdk":
		// hands the credentials back to the game's embedded web view
		q := url.Values{}
		q.Set("username", form.Username)
		q.Set("password", form.PasswordV2)
		http.Redirect(w, r, "uniwebview://register?"+q.Encode(), http.StatusSeeOther)
	default:
		writeText(w, http.StatusOK, msgCreated)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
