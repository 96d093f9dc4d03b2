// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the KurisuAssistant backend.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
)

// =============================================================================
// FRAGMENT READER
// =============================================================================

// FragmentReader handles line-by-line JSON parsing of the /chat NDJSON
// stream. Network reads can split a JSON object across chunks, so a line
// without a trailing newline is held back and re-joined with the next
// read. At EOF the remainder gets one best-effort parse; malformed lines
// are skipped and the stream continues.
type FragmentReader struct {
	reader *bufio.Reader
	logger zerolog.Logger
	count  int
}

// NewFragmentReader creates a fragment reader from an io.Reader.
func NewFragmentReader(r io.Reader, logger zerolog.Logger) *FragmentReader {
	return &FragmentReader{
		reader: bufio.NewReader(r),
		logger: logger,
	}
}

// Process reads the stream and calls the callback for each fragment.
// Blocks until the stream is complete or the context is cancelled.
func (r *FragmentReader) Process(ctx context.Context, callback FragmentCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			fragment, err := r.readFragment()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if fragment != nil {
				callback(*fragment)
				if fragment.Done || fragment.Error != "" {
					return nil
				}
			}
		}
	}
}

// readFragment reads and parses a single line from the stream.
// bufio.ReadBytes returns the partial line along with the error at EOF,
// which gives the trailing unterminated fragment its best-effort parse.
func (r *FragmentReader) readFragment() (*StreamFragment, error) {
	line, err := r.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
		if len(line) == 0 {
			return nil, err
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var fragment StreamFragment
	if err := json.Unmarshal(line, &fragment); err != nil {
		// Skip malformed lines, keep the stream alive
		r.logger.Warn().Int("line", r.count).Msg("skipping malformed stream line")
		r.count++
		return nil, nil
	}

	r.count++
	return &fragment, nil
}

// FragmentCount returns the number of lines consumed so far.
func (r *FragmentReader) FragmentCount() int {
	return r.count
}
