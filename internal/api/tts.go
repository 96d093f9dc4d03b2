// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the KurisuAssistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// =============================================================================
// TEXT TO SPEECH
// =============================================================================

// Synthesize asks the server to render text as speech and returns the raw
// audio bytes. Decoding and playback are the caller's problem; the client
// does not interpret the audio format.
func (c *Client) Synthesize(ctx context.Context, req TTSRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read audio", Cause: err}
	}
	return audio, nil
}

// ListVoices returns the voice names the TTS backend offers.
func (c *Client) ListVoices(ctx context.Context) ([]string, error) {
	var result VoicesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/tts/voices", nil, "", &result); err != nil {
		return nil, err
	}
	return result.Voices, nil
}

// ListTTSBackends returns the available synthesis backends.
func (c *Client) ListTTSBackends(ctx context.Context) ([]string, error) {
	var result BackendsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/tts/backends", nil, "", &result); err != nil {
		return nil, err
	}
	return result.Backends, nil
}
