// Package speech provides the HTTP client for the local OpenAI-compatible
// text-to-speech server.
//
// The client issues one synthesis request per bounded-length text chunk and
// returns the raw audio bytes. It performs no retries; retry policy belongs
// to the stitcher.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/podcast-service/internal/core"
)

// API endpoints and paths.
const (
	apiAudioSpeech = "/v1/audio/speech"
	apiHealth      = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Error messages.
const (
	errInputCannotBeEmpty    = "input text cannot be empty"
	errReceivedEmptyAudio    = "received empty audio data"
	errFmtServiceNonOKStatus = "tts server returned status %s: %s"
)

// Client is an HTTP client for the speech server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// errorResponse is the JSON error body returned by the speech server.
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient creates a client for the speech server at baseURL (protocol and
// port included, e.g. "http://localhost:8001"). The timeout applies to every
// request, so it must cover the synthesis time of a full chunk.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one speech request and returns the raw audio bytes in
// the requested response format.
//
// Failure modes map onto the shared taxonomy: core.ErrServerUnreachable for
// connection-level failures, core.ErrInvalidVoice and core.ErrInputTooLong
// for request rejections, and a wrapped generic error otherwise.
func (c *Client) Synthesize(ctx context.Context, req core.SpeechRequest) ([]byte, error) {
	if req.Input == "" {
		return nil, errors.New(errInputCannotBeEmpty)
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiAudioSpeech,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s: %w", core.ErrServerUnreachable, c.baseURL, err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, errors.New(errReceivedEmptyAudio)
	}

	return audioData, nil
}

// Health verifies that the speech server is up and has its model loaded.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrServerUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// classifyErrorResponse reads the error body and maps client-side request
// rejections onto the shared error taxonomy. Unclassified errors keep the
// raw server detail so diagnostics are preserved.
func (c *Client) classifyErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	detail := string(body)

	var structured errorResponse
	if json.Unmarshal(body, &structured) == nil && structured.Detail != "" {
		detail = structured.Detail
	}

	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		lowered := strings.ToLower(detail)

		switch {
		case strings.Contains(lowered, "voice"):
			return fmt.Errorf("%w: %s", core.ErrInvalidVoice, detail)
		case strings.Contains(lowered, "input"), strings.Contains(lowered, "length"):
			return fmt.Errorf("%w: %s", core.ErrInputTooLong, detail)
		}
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, detail)
}
