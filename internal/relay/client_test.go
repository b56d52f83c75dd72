package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-token-tracker/internal/domain"
)

var testRecord = &domain.TokenRecord{
	Contract:  "0x1111111111111111111111111111111111111111",
	Name:      "Pepe",
	Symbol:    "$PEPE",
	Timestamp: 1700000000000,
}

func TestClient_DeliverSuccess(t *testing.T) {
	var got domain.TokenRecord
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token")
	err := client.Deliver(context.Background(), testRecord)

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, testRecord.Contract, got.Contract)
	assert.Equal(t, testRecord.Name, got.Name)
}

func TestClient_DeliverUnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-token", WithRetryDelay(time.Millisecond))
	err := client.Deliver(context.Background(), testRecord)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized), "expected ErrUnauthorized, got %v", err)
	assert.Equal(t, int32(1), calls.Load(), "unauthorized must not be retried")
}

func TestClient_DeliverBadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", WithRetryDelay(time.Millisecond))
	err := client.Deliver(context.Background(), testRecord)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected), "expected ErrRejected, got %v", err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DeliverRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", WithRetryDelay(time.Millisecond))
	err := client.Deliver(context.Background(), testRecord)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "expected two retries before success")
}

func TestClient_DeliverExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret",
		WithMaxAttempts(2), WithRetryDelay(time.Millisecond))
	err := client.Deliver(context.Background(), testRecord)

	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
