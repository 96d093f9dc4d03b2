// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the KurisuAssistant backend.
package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
)

// =============================================================================
// CHAT REQUEST
// =============================================================================

// ChatRequest describes one send to POST /chat. ConversationID zero means
// the server should open a new conversation and report its identity in an
// early stream fragment. Images are server UUIDs from prior UploadImage
// calls, in the order the user attached them.
type ChatRequest struct {
	Text           string
	ModelName      string
	ConversationID int64
	ChunkID        int64
	Images         []string
}

// FragmentCallback is called for each fragment received during streaming.
type FragmentCallback func(fragment StreamFragment)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream posts a chat turn and calls the callback for each NDJSON
// fragment, synchronously in arrival order. Returns when the stream ends
// or fails. There is no mid-stream abort: cancelling the context tears
// the connection down, nothing is sent to the server.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback FragmentCallback) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("text", req.Text); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
	}
	if err := writer.WriteField("model_name", req.ModelName); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
	}
	if req.ConversationID != 0 {
		if err := writer.WriteField("conversation_id", strconv.FormatInt(req.ConversationID, 10)); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
		}
	}
	if req.ChunkID != 0 {
		if err := writer.WriteField("chunk_id", strconv.FormatInt(req.ChunkID, 10)); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
		}
	}
	for _, uuid := range req.Images {
		if err := writer.WriteField("images", uuid); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
		}
	}
	if err := writer.Close(); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build chat request", Cause: err}
	}

	// The shared client's timeout would kill a long generation; streaming
	// gets its own client and a deadline from StreamTimeout instead.
	streamCtx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)
	defer cancel()
	streamClient := &http.Client{}

	httpReq, err := c.newRequest(streamCtx, http.MethodPost, "/chat", &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	reader := NewFragmentReader(resp.Body, c.config.Logger)
	return reader.Process(streamCtx, callback)
}

// ChatStreamChan posts a chat turn and returns a channel of fragments.
// The channel is closed when streaming is complete or an error occurs.
// Transport errors are delivered as a final fragment with Err set.
func (c *Client) ChatStreamChan(ctx context.Context, req ChatRequest) <-chan StreamFragment {
	ch := make(chan StreamFragment)

	go func() {
		defer close(ch)

		err := c.ChatStream(ctx, req, func(fragment StreamFragment) {
			select {
			case ch <- fragment:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamFragment{Err: err, Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
