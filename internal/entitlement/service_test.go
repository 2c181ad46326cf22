package entitlement

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscribers/user-1", r.URL.Path)
		assert.Equal(t, "Bearer rc-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(baseURL string) *Service {
	s := New("rc-key", "user-1", zerolog.Nop())
	s.BaseURL = baseURL
	s.Now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestIsPremiumWithActiveEntitlement(t *testing.T) {
	srv := newServer(t, `{"subscriber":{"entitlements":{
		"premium_access":{"expires_date":"2024-02-01T00:00:00Z"},
		"old":{"expires_date":"2023-01-01T00:00:00Z"}}}}`)
	s := newService(srv.URL)
	assert.True(t, s.IsPremium(context.Background()))

	active, err := s.ActiveEntitlements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"premium_access"}, active)
}

func TestIsPremiumLifetimeEntitlement(t *testing.T) {
	srv := newServer(t, `{"subscriber":{"entitlements":{"pro":{"expires_date":null}}}}`)
	assert.True(t, newService(srv.URL).IsPremium(context.Background()))
}

func TestIsPremiumExpiredOrUnknown(t *testing.T) {
	srv := newServer(t, `{"subscriber":{"entitlements":{
		"premium":{"expires_date":"2024-01-01T00:00:00Z"},
		"gold":{"expires_date":null}}}}`)
	assert.False(t, newService(srv.URL).IsPremium(context.Background()))
}

func TestIsPremiumWithoutKeyIsFalse(t *testing.T) {
	s := New("", "user-1", zerolog.Nop())
	assert.ErrorIs(t, s.Init(context.Background()), ErrMissingAPIKey)
	assert.False(t, s.IsPremium(context.Background()))
	assert.False(t, s.Initialized())
}

func TestServerErrorIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()
	assert.False(t, newService(srv.URL).IsPremium(context.Background()))
}

func TestCloseResetsLifecycle(t *testing.T) {
	s := newService("http://127.0.0.1:0")
	require.NoError(t, s.Init(context.Background()))
	assert.True(t, s.Initialized())
	require.NoError(t, s.Close())
	assert.False(t, s.Initialized())
	_, err := s.ActiveEntitlements(context.Background())
	assert.Error(t, err)
}
