package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

// newTestFairScale points a client at h. Callers defer the returned close
// after goleak so the server is gone before leaks are checked.
func newTestFairScale(h http.HandlerFunc) (*FairScaleClient, func()) {
	srv := httptest.NewServer(h)
	client := NewFairScaleClient(srv.URL+"/score", "secret", 2*time.Second)
	return client, func() {
		client.Client.CloseIdleConnections()
		srv.Close()
	}
}

func TestValidateWallet(t *testing.T) {
	assert.ErrorIs(t, ValidateWallet(""), ErrWalletRequired)
	assert.ErrorIs(t, ValidateWallet("short"), ErrInvalidWallet)
	assert.ErrorIs(t, ValidateWallet(strings.Repeat("a", MaxWalletLength+1)), ErrInvalidWallet)
	assert.NoError(t, ValidateWallet(strings.Repeat("a", MinWalletLength)))
	assert.NoError(t, ValidateWallet(testWallet))

	// 32 two-byte runes and 20 surrogate pairs are in range despite their byte length
	assert.NoError(t, ValidateWallet(strings.Repeat("é", MinWalletLength)))
	assert.NoError(t, ValidateWallet(strings.Repeat("😀", 20)))
	assert.ErrorIs(t, ValidateWallet(strings.Repeat("😀", 23)), ErrInvalidWallet)
	assert.ErrorIs(t, ValidateWallet(strings.Repeat("é", MinWalletLength-1)), ErrInvalidWallet)
}

func TestFetchScoreRelaysBody(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, closeServer := newTestFairScale(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/score", r.URL.Path)
		assert.Equal(t, testWallet, r.URL.Query().Get("wallet"))
		assert.Equal(t, "secret", r.Header.Get("fairkey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"wallet":"x","fairscore":71.5,"tier":"gold"}`))
	})
	defer closeServer()

	body, err := client.FetchScore(context.Background(), testWallet)
	require.NoError(t, err)
	assert.JSONEq(t, `{"wallet":"x","fairscore":71.5,"tier":"gold"}`, string(body))
}

func TestFetchScoreNotFound(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, closeServer := newTestFairScale(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	defer closeServer()

	_, err := client.FetchScore(context.Background(), testWallet)
	assert.ErrorIs(t, err, ErrScoreNotFound)
}

func TestFetchScoreUpstreamError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, closeServer := newTestFairScale(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})
	defer closeServer()

	_, err := client.FetchScore(context.Background(), testWallet)
	var upstream *UpstreamStatusError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	assert.Equal(t, "maintenance", upstream.Body)
}

func TestFetchScoreInvalidJSON(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, closeServer := newTestFairScale(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	defer closeServer()

	_, err := client.FetchScore(context.Background(), testWallet)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrScoreNotFound)
}

func TestFallbackScore(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fb := FallbackScore(testWallet, now)

	assert.Equal(t, testWallet, fb["wallet"])
	assert.Equal(t, 0, fb["fairscore"])
	assert.Equal(t, "unranked", fb["tier"])
	assert.Equal(t, true, fb["_fallback"])
	assert.Equal(t, "2025-03-01T12:00:00Z", fb["timestamp"])
	assert.Empty(t, fb["badges"])
}
