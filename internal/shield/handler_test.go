package shield

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/account/entity"
	"github.com/ys4e/pancake/internal/guard"
	"github.com/ys4e/pancake/internal/metrics"
)

type envelope struct {
	Retcode int16           `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := newMemStore(testAccount(t, 1, "traveler", entity.StateActive))
	return NewHandler(newTestService(t, store), zap.NewNop().Sugar())
}

func post(t *testing.T, h http.HandlerFunc, body, device string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hk4e_global/mdk/shield/api/login", strings.NewReader(body))
	req.RemoteAddr = "8.8.8.8:51234"
	if device != "" {
		req.Header.Set(guard.DeviceHeader, device)
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHandlerLogin(t *testing.T) {
	h := newTestHandler(t)
	body := `{"account":"traveler","password":"Y29ycmVjdCBob3JzZQ==","is_crypto":false}`

	t.Run("success", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", metrics.OutcomeSuccess))
		rec, env := post(t, h.Login, body, "dev-a")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, RetSuccess, env.Retcode)
		assert.Equal(t, MessageOK, env.Message)

		var res LoginResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, int64(1), res.Account.UID)
		assert.Equal(t, "US", res.Account.Country)
		assert.Len(t, res.Account.Token, 32)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", metrics.OutcomeSuccess)))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, env := post(t, h.Login, `{"account":"traveler","password":"bm9wZQ=="}`, "dev-a")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, RetInvalidCredential, env.Retcode)
		assert.Equal(t, MessageInvalidCredential, env.Message)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("missing device header", func(t *testing.T) {
		rec, env := post(t, h.Login, body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, RetSystemError, env.Retcode)
		assert.Equal(t, "Invalid request, missing 'x-rpc-device_id' header.", env.Message)
	})

	t.Run("undecodable body", func(t *testing.T) {
		rec, env := post(t, h.Login, `{"account":`, "dev-a")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, RetSystemError, env.Retcode)
	})
}

func TestHandlerVerify(t *testing.T) {
	h := newTestHandler(t)
	_, env := post(t, h.Login, `{"account":"traveler","password":"Y29ycmVjdCBob3JzZQ=="}`, "dev-a")
	var res LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	tok := res.Account.Token

	t.Run("uid as string", func(t *testing.T) {
		_, env := post(t, h.Verify, `{"uid":"1","token":"`+tok+`"}`, "dev-a")
		assert.Equal(t, RetSuccess, env.Retcode)
	})

	t.Run("uid as number", func(t *testing.T) {
		_, env := post(t, h.Verify, `{"uid":1,"token":"`+tok+`"}`, "dev-a")
		assert.Equal(t, RetSuccess, env.Retcode)
	})

	t.Run("device mismatch", func(t *testing.T) {
		_, env := post(t, h.Verify, `{"uid":1,"token":"`+tok+`"}`, "dev-b")
		assert.Equal(t, RetDeviceMismatch, env.Retcode)
		assert.Equal(t, MessageDeviceMismatch, env.Message)
	})

	t.Run("bad token", func(t *testing.T) {
		_, env := post(t, h.Verify, `{"uid":1,"token":"stale"}`, "dev-a")
		assert.Equal(t, RetBadToken, env.Retcode)
	})

	t.Run("non numeric uid", func(t *testing.T) {
		rec, env := post(t, h.Verify, `{"uid":"abc","token":"x"}`, "dev-a")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, RetSystemError, env.Retcode)
	})
}
