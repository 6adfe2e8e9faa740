// Package speech_test tests the speech server HTTP client.
package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAudioData = "RIFF-fake-wav-bytes"

func standardRequest() core.SpeechRequest {
	return core.SpeechRequest{
		Model:          "tts-1",
		Input:          "Hello world.",
		Voice:          "alba",
		ResponseFormat: "wav",
		Speed:          1.0,
	}
}

func newSpeechServer(t *testing.T, handler http.HandlerFunc) *speech.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return speech.NewClient(server.URL, 5*time.Second)
}

func TestSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req core.SpeechRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "Hello world.", req.Input)
		assert.Equal(t, "alba", req.Voice)
		assert.InEpsilon(t, 1.0, req.Speed, 0.001)

		_, _ = w.Write([]byte(testAudioData))
	})

	audio, err := client.Synthesize(context.Background(), standardRequest())
	require.NoError(t, err)
	assert.Equal(t, []byte(testAudioData), audio)
}

func TestSynthesizeRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	client := speech.NewClient("http://localhost:1", time.Second)

	req := standardRequest()
	req.Input = ""

	_, err := client.Synthesize(context.Background(), req)
	require.Error(t, err)
}

func TestSynthesizeUnreachableServer(t *testing.T) {
	t.Parallel()

	// Nothing listens on this port.
	client := speech.NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.Synthesize(context.Background(), standardRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrServerUnreachable)
}

func TestSynthesizeInvalidVoice(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"detail": "unknown voice 'nobody'",
		})
	})

	_, err := client.Synthesize(context.Background(), standardRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidVoice)
	assert.Contains(t, err.Error(), "nobody")
}

func TestSynthesizeInputTooLong(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"detail": "input exceeds maximum length of 4096 characters",
		})
	})

	_, err := client.Synthesize(context.Background(), standardRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInputTooLong)
}

func TestSynthesizeServerErrorKeepsDetail(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"detail": "model not loaded",
		})
	})

	_, err := client.Synthesize(context.Background(), standardRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrServerUnreachable)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestSynthesizeEmptyAudioIsAnError(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Synthesize(context.Background(), standardRequest())
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	client := newSpeechServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	require.NoError(t, client.Health(context.Background()))
}

func TestHealthUnreachable(t *testing.T) {
	t.Parallel()

	client := speech.NewClient("http://127.0.0.1:1", time.Second)

	err := client.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrServerUnreachable)
}
