package combo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/guard"
	"github.com/ys4e/pancake/internal/metrics"
	"github.com/ys4e/pancake/internal/shield"
)

// LoginRequest is the granter request. Data carries the shield session as
// a JSON string.
type LoginRequest struct {
	AppID     json.Number `json:"app_id"`
	ChannelID json.Number `json:"channel_id"`
	Data      string      `json:"data"`
	Device    string      `json:"device"`
	Sign      string      `json:"sign"`
}

type sessionData struct {
	UID   shield.UID `json:"uid"`
	Token string     `json:"token"`
	Guest bool       `json:"guest"`
}

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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid combo payload", "err", err)
		shield.WriteJSON(w, http.StatusBadRequest, shield.Response{Retcode: shield.RetSystemError, Message: "Invalid request body."})
		return
	}
	device := strings.TrimSpace(req.Device)
	if device == "" {
		d, err := guard.DeviceID(r)
		if err != nil {
			shield.WriteJSON(w, http.StatusBadRequest, shield.Response{Retcode: shield.RetSystemError, Message: "Invalid request, " + err.Error() + "."})
			return
		}
		device = d
	}

	var sess sessionData
	var grant *Grant
	err := json.Unmarshal([]byte(req.Data), &sess)
	if err != nil {
		err = errors.Join(shield.ErrInvalidCredential, err)
	} else {
		grant, err = h.svc.Login(r.Context(), int64(sess.UID), sess.Token, device, sess.Guest)
		if errors.Is(err, ErrGuestLogin) {
			err = errors.Join(shield.ErrInvalidCredential, err)
		}
	}

	code, msg, outcome := shield.Classify(err)
	metrics.RecordAttempt("combo", outcome)
	if err != nil {
		if code == shield.RetSystemError {
			h.logger.Errorw("combo login failed", "err", err)
		} else {
			h.logger.Debugw("combo login rejected", "err", err)
		}
		shield.WriteJSON(w, http.StatusOK, shield.Response{Retcode: code, Message: msg})
		return
	}
	shield.WriteJSON(w, http.StatusOK, shield.Response{Retcode: code, Message: msg, Data: grant})
}

func (h *Handler) JWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.svc.JWKS())
}
