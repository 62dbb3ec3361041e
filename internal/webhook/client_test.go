package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelrelay/internal/models"
)

func TestSendSuccess(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[]}`))
	}))
	defer upstream.Close()

	client := New(0, 0)
	reply, err := client.Send(context.Background(), upstream.URL, models.OutboundRequest{
		ContentType: "application/json",
		Body:        []byte(`{"prompt":"hi"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, `{"prompt":"hi"}`, string(gotBody))

	assert.Equal(t, http.StatusOK, reply.StatusCode)
	assert.True(t, reply.OK())
	assert.Equal(t, `{"responses":[]}`, string(reply.Body))
	assert.Greater(t, reply.Elapsed, time.Duration(0))
}

func TestSendNon2xxIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("workflow exploded"))
	}))
	defer upstream.Close()

	client := New(0, 0)
	reply, err := client.Send(context.Background(), upstream.URL, models.OutboundRequest{
		ContentType: "application/json",
		Body:        []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, reply.StatusCode)
	assert.False(t, reply.OK())
	assert.Equal(t, "workflow exploded", string(reply.Body))
}

func TestSendUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	client := New(0, 0)
	_, err := client.Send(context.Background(), upstream.URL, models.OutboundRequest{
		ContentType: "application/json",
		Body:        []byte(`{}`),
	})
	require.Error(t, err)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "webhook request failed")
}

func TestSendTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer upstream.Close()

	client := New(50*time.Millisecond, 50*time.Millisecond)
	_, err := client.Send(context.Background(), upstream.URL, models.OutboundRequest{
		ContentType: "application/json",
		Body:        []byte(`{}`),
	})
	require.Error(t, err)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{StatusCode: http.StatusBadGateway, Body: "raw body"}
	assert.Contains(t, err.Error(), "502")
}
