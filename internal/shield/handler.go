package shield

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/guard"
	"github.com/ys4e/pancake/internal/metrics"
)

// Handler exposes the login and verify endpoints.
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
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.reject(w, "Invalid request body.")
		return
	}
	res, err := h.svc.Login(r.Context(), req, client)
	h.respond(w, "login", res, err)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid verify payload", "err", err)
		h.reject(w, "Invalid request body.")
		return
	}
	res, err := h.svc.Verify(r.Context(), req, client)
	h.respond(w, "verify", res, err)
}

// client resolves the device and address or answers 400.
func (h *Handler) client(w http.ResponseWriter, r *http.Request) (Client, bool) {
	device, err := guard.DeviceID(r)
	if err != nil {
		h.reject(w, "Invalid request, "+err.Error()+".")
		return Client{}, false
	}
	ip, err := guard.ClientIP(r)
	if err != nil {
		h.reject(w, "Invalid request, "+err.Error()+".")
		return Client{}, false
	}
	return Client{Device: device, IP: ip}, true
}

func (h *Handler) respond(w http.ResponseWriter, operation string, res *LoginResult, err error) {
	code, msg, outcome := Classify(err)
	metrics.RecordAttempt(operation, outcome)
	if err != nil {
		if code == RetSystemError {
			h.logger.Errorw(operation+" failed", "err", err)
		} else {
			h.logger.Debugw(operation+" rejected", "err", err)
		}
		WriteJSON(w, http.StatusOK, Response{Retcode: code, Message: msg})
		return
	}
	WriteJSON(w, http.StatusOK, Response{Retcode: code, Message: msg, Data: res})
}

func (h *Handler) reject(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, Response{Retcode: RetSystemError, Message: msg})
}

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
