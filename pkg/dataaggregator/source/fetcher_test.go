package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	body, err := Fetch(context.Background(), FetchRequest{
		Source:  "test",
		URL:     server.URL,
		Headers: map[string]string{"x-api-key": "secret"},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	startTime := time.Now()
	_, err := Fetch(context.Background(), FetchRequest{
		Source:  "test",
		URL:     server.URL,
		Timeout: 100 * time.Millisecond,
	})

	assert.True(t, IsKind(err, ErrorUpstreamTimeout))
	assert.Equal(t, 5041, ErrorCode(err))
	assert.Less(t, time.Since(startTime), 2*time.Second)
}

func TestFetchUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), FetchRequest{Source: "test", URL: server.URL, Timeout: time.Second})
	assert.True(t, IsKind(err, ErrorUpstreamUnavailable))

	server.Close()
	_, err = Fetch(context.Background(), FetchRequest{Source: "test", URL: server.URL, Timeout: time.Second})
	assert.True(t, IsKind(err, ErrorUpstreamUnavailable))
}

func TestExpandURL(t *testing.T) {
	expanded := ExpandURL("https://example.com/board?from={origin}&to={destination}&key={apiKey}", map[string]string{
		"origin":      "NYK",
		"destination": "BTA",
		"apiKey":      "a b",
	})

	assert.Equal(t, "https://example.com/board?from=NYK&to=BTA&key=a+b", expanded)
}

func TestFeedErrorWrapping(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewError(ErrorUnsupportedStation, "The Stop does not support real-time status information.", cause)

	assert.Equal(t, 4007, err.Code)
	assert.Equal(t, "Unsupported Station", err.Category)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, ErrorUnsupportedStation))
	assert.False(t, IsKind(err, ErrorFeedUnavailable))
	assert.Equal(t, 0, ErrorCode(cause))
}
