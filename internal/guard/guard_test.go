package guard

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceID(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	_, err := DeviceID(r)
	assert.ErrorIs(t, err, ErrMissingDevice)

	r.Header.Set(DeviceHeader, "  ")
	_, err = DeviceID(r)
	assert.ErrorIs(t, err, ErrMissingDevice)

	r.Header.Set(DeviceHeader, "a1b2c3")
	d, err := DeviceID(r)
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", d)
}

func TestClientIP(t *testing.T) {
	t.Run("peer address", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = "203.0.113.7:51234"
		ip, err := ClientIP(r)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.7", ip)
	})

	t.Run("ipv6 peer", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = "[2001:db8::1]:443"
		ip, err := ClientIP(r)
		require.NoError(t, err)
		assert.Equal(t, "2001:db8::1", ip)
	})

	t.Run("proxy header wins over peer", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.2")
		ip, err := ClientIP(r)
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.2", ip)
	})

	t.Run("cloudflare header wins over proxy", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.2")
		r.Header.Set("CF-Connecting-IP", "192.0.2.9")
		ip, err := ClientIP(r)
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.9", ip)
	})

	t.Run("nothing available", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = ""
		_, err := ClientIP(r)
		assert.ErrorIs(t, err, ErrMissingIP)
	})
}
